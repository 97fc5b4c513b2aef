package prompts

import (
	"strings"
	"testing"

	"github.com/kahani-labs/kahani/pkg/story"
)

func TestEnhanceIncludesInputFields(t *testing.T) {
	in := &story.Input{
		Title:          "The Clever Crow",
		Content:        "A thirsty crow found a pitcher.",
		StoryType:      story.TypeFolkTale,
		Language:       story.LanguageHindi,
		Culture:        "Indian",
		TargetAgeGroup: "children",
	}

	prompt := Enhance(in)
	for _, want := range []string{"The Clever Crow", "folk_tale", "Indian", "Hindi", "children", "A thirsty crow found a pitcher."} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Expected prompt to contain %q", want)
		}
	}
}

func TestContinueWindowsHistory(t *testing.T) {
	history := []string{"scene one", "scene two", "scene three", "scene four", "scene five"}
	prompt := Continue(history, "the crow drops a stone")

	if strings.Contains(prompt, "scene one") || strings.Contains(prompt, "scene two") {
		t.Error("Expected only the last three history entries in the prompt")
	}
	if !strings.Contains(prompt, "scene three -> scene four -> scene five") {
		t.Error("Expected recent history joined with arrows")
	}
	if !strings.Contains(prompt, "the crow drops a stone") {
		t.Error("Expected the consequence in the prompt")
	}
}

func TestContinueShortHistory(t *testing.T) {
	prompt := Continue([]string{"only scene"}, "something happens")
	if !strings.Contains(prompt, "only scene") {
		t.Error("Expected short history to be used as-is")
	}
}

func TestChoicesRequestsFixedCount(t *testing.T) {
	prompt := Choices("a crow by a pitcher")
	if !strings.Contains(prompt, "exactly 3 meaningful choices") {
		t.Error("Expected the prompt to request exactly 3 choices")
	}
	if !strings.Contains(prompt, "a crow by a pitcher") {
		t.Error("Expected the scene context in the prompt")
	}
}

func TestTranslateNamesTargetLanguage(t *testing.T) {
	prompt := Translate("some content", story.LanguageSpanish)
	if !strings.Contains(prompt, "Spanish") {
		t.Error("Expected the target language display name in the prompt")
	}
}
