package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kahani-labs/kahani/pkg/story"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))
}

func testInput() *story.Input {
	return &story.Input{
		Title:          "The Clever Crow",
		Content:        "A thirsty crow found a pitcher with a little water at the bottom.",
		StoryType:      story.TypeFolkTale,
		Language:       story.LanguageEnglish,
		Culture:        "Indian",
		TargetAgeGroup: "all",
	}
}

func TestEnhance(t *testing.T) {
	mock := NewMockGenerator()
	mock.SetResponse("An enhanced telling of the clever crow.")
	svc := NewContentService(mock, testLogger())

	enhanced, ok := svc.Enhance(context.Background(), testInput())
	assert.True(t, ok)
	assert.Equal(t, "An enhanced telling of the clever crow.", enhanced)
}

func TestEnhanceFallback(t *testing.T) {
	mock := NewMockGenerator()
	mock.SetError(errors.New("backend unavailable"))
	svc := NewContentService(mock, testLogger())

	in := testInput()
	enhanced, ok := svc.Enhance(context.Background(), in)
	assert.False(t, ok)
	assert.Equal(t, in.Content, enhanced, "original content must survive backend failure")
}

func TestGenerateChoices(t *testing.T) {
	mock := NewMockGenerator()
	mock.SetResponse(`[
		{"choice_id": "follow_river", "choice_text": "Follow the river", "consequence": "A new path opens"},
		{"choice_id": "climb_hill", "choice_text": "Climb the hill", "consequence": "A wide view appears"},
		{"choice_id": "rest", "choice_text": "Rest under the tree", "consequence": "Night falls"}
	]`)
	svc := NewContentService(mock, testLogger())

	choices := svc.GenerateChoices(context.Background(), "scene text", "")
	require.Len(t, choices, 3)
	assert.Equal(t, "follow_river", choices[0].ID)
	assert.Equal(t, "Climb the hill", choices[1].Text)
}

func TestGenerateChoicesCodeFence(t *testing.T) {
	mock := NewMockGenerator()
	mock.SetResponse("```json\n[{\"choice_id\": \"c1\", \"choice_text\": \"Go on\", \"consequence\": \"onward\"}]\n```")
	svc := NewContentService(mock, testLogger())

	choices := svc.GenerateChoices(context.Background(), "scene", "")
	require.Len(t, choices, 1)
	assert.Equal(t, "c1", choices[0].ID)
}

func TestGenerateChoicesFallback(t *testing.T) {
	tests := []struct {
		name     string
		response string
		err      error
	}{
		{name: "backend error", err: errors.New("backend unavailable")},
		{name: "not json", response: "Here are some choices you could take..."},
		{name: "empty array", response: "[]"},
		{name: "missing fields", response: `[{"choice_id": "", "choice_text": ""}]`},
		{name: "json object not array", response: `{"choices": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockGenerator()
			if tt.err != nil {
				mock.SetError(tt.err)
			} else {
				mock.SetResponse(tt.response)
			}
			svc := NewContentService(mock, testLogger())

			choices := svc.GenerateChoices(context.Background(), "scene", "")
			require.Len(t, choices, 3, "fallback set must have 3 choices")
			assert.Equal(t, "choice_1", choices[0].ID)
			assert.Equal(t, "Continue with the traditional path", choices[0].Text)
			assert.Equal(t, "Ask the elder for wisdom", choices[2].Text)
		})
	}
}

func TestGenerateChoicesTruncatesContext(t *testing.T) {
	mock := NewMockGenerator()
	mock.SetResponse(`[{"choice_id": "c1", "choice_text": "Go", "consequence": "x"}]`)
	svc := NewContentService(mock, testLogger())

	long := strings.Repeat("a", 600)
	svc.GenerateChoices(context.Background(), long, "")

	prompts := mock.Prompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], strings.Repeat("a", 500))
	assert.NotContains(t, prompts[0], strings.Repeat("a", 501))
}

func TestContinueStory(t *testing.T) {
	mock := NewMockGenerator()
	mock.SetResponse("The crow dropped pebbles one by one.")
	svc := NewContentService(mock, testLogger())

	scene := svc.ContinueStory(context.Background(), []string{"opening"}, "The water rises")
	assert.Equal(t, "The crow dropped pebbles one by one.", scene)
}

func TestContinueStoryFallback(t *testing.T) {
	mock := NewMockGenerator()
	mock.SetError(errors.New("backend unavailable"))
	svc := NewContentService(mock, testLogger())

	scene := svc.ContinueStory(context.Background(), []string{"opening"}, "The water rises")
	assert.Equal(t, "The story continues as The water rises...", scene)
}

func TestTranslateFallback(t *testing.T) {
	mock := NewMockGenerator()
	mock.SetError(errors.New("backend unavailable"))
	svc := NewContentService(mock, testLogger())

	out := svc.Translate(context.Background(), "original text", story.LanguageHindi)
	assert.Equal(t, "original text", out)
}

func TestDescribeVisualFallback(t *testing.T) {
	mock := NewMockGenerator()
	mock.SetError(errors.New("backend unavailable"))
	svc := NewContentService(mock, testLogger())

	desc := svc.DescribeVisual(context.Background(), "", "a village fair")
	assert.Equal(t, "A cultural scene depicting a village fair", desc)
}
