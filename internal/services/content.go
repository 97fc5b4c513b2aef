package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kahani-labs/kahani/pkg/prompts"
	"github.com/kahani-labs/kahani/pkg/story"
)

const (
	// choiceContextLen bounds the scene context embedded in the
	// choice-generation prompt.
	choiceContextLen = 500

	// visualContextLen bounds the context for visual descriptions.
	visualContextLen = 300
)

// ContentService wraps the text-generation backend for story content
// operations. Every backend failure degrades to a deterministic,
// non-empty, locally computed fallback; the backend's raw error never
// reaches a caller.
type ContentService struct {
	gen    TextGenerator
	logger *slog.Logger
}

// NewContentService creates a content service over a text generator.
func NewContentService(gen TextGenerator, logger *slog.Logger) *ContentService {
	return &ContentService{
		gen:    gen,
		logger: logger,
	}
}

// Enhance rewrites the authored story with cultural elaboration. On
// backend failure it returns the original content verbatim and false;
// the author's text is never lost.
func (c *ContentService) Enhance(ctx context.Context, in *story.Input) (string, bool) {
	text, err := c.gen.GenerateText(ctx, prompts.Enhance(in))
	if err != nil {
		c.logger.Warn("Enhancement degraded to original content", "title", in.Title, "error", err)
		return in.Content, false
	}
	return text, true
}

// fallbackChoices is the fixed choice set used whenever the backend
// fails or returns something unparseable. Callers always receive a
// usable, non-empty set.
func fallbackChoices() []story.Choice {
	return []story.Choice{
		{
			ID:          "choice_1",
			Text:        "Continue with the traditional path",
			Consequence: "The story follows its original course",
		},
		{
			ID:          "choice_2",
			Text:        "Explore a different perspective",
			Consequence: "The story takes an alternative direction",
		},
		{
			ID:          "choice_3",
			Text:        "Ask the elder for wisdom",
			Consequence: "Gain deeper cultural insights",
		},
	}
}

// GenerateChoices produces branch choices for a scene. Context is the
// scene override when given, else the leading excerpt of contextText.
// The backend response must be a JSON array of choice objects; any
// backend or parse failure yields the deterministic fallback set.
func (c *ContentService) GenerateChoices(ctx context.Context, contextText, sceneOverride string) []story.Choice {
	sceneContext := sceneOverride
	if sceneContext == "" {
		sceneContext = story.Truncate(contextText, choiceContextLen)
	}

	text, err := c.gen.GenerateText(ctx, prompts.Choices(sceneContext))
	if err != nil {
		c.logger.Warn("Choice generation degraded to fallback set", "error", err)
		return fallbackChoices()
	}

	choices, err := parseChoices(text)
	if err != nil {
		c.logger.Warn("Unparseable choice response, using fallback set", "error", err)
		return fallbackChoices()
	}
	return choices
}

// parseChoices strictly parses a JSON array of
// {choice_id, choice_text, consequence} objects. Markdown code fences
// around the array are tolerated; anything else is an error.
func parseChoices(text string) ([]story.Choice, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var choices []story.Choice
	if err := json.Unmarshal([]byte(cleaned), &choices); err != nil {
		return nil, fmt.Errorf("failed to parse choices: %w", err)
	}
	if len(choices) == 0 {
		return nil, fmt.Errorf("backend returned an empty choice list")
	}
	for i, ch := range choices {
		if ch.ID == "" || ch.Text == "" {
			return nil, fmt.Errorf("choice %d is missing required fields", i)
		}
	}
	return choices, nil
}

// ContinueStory generates the next scene from recent history and the
// chosen consequence. On failure it returns a templated sentence
// referencing the consequence verbatim, never an empty string.
func (c *ContentService) ContinueStory(ctx context.Context, history []string, consequence string) string {
	text, err := c.gen.GenerateText(ctx, prompts.Continue(history, consequence))
	if err != nil {
		c.logger.Warn("Continuation degraded to template", "error", err)
		return fmt.Sprintf("The story continues as %s...", consequence)
	}
	return text
}

// Translate renders content into the target language. On failure it
// returns the original content unchanged.
func (c *ContentService) Translate(ctx context.Context, content string, target story.Language) string {
	text, err := c.gen.GenerateText(ctx, prompts.Translate(content, target))
	if err != nil {
		c.logger.Warn("Translation degraded to source content", "target", target, "error", err)
		return content
	}
	return text
}

// DescribeVisual produces an image-generation prompt fragment for a
// scene. Context is the override when given, else the leading excerpt
// of content. On failure it returns a templated description.
func (c *ContentService) DescribeVisual(ctx context.Context, content, sceneContext string) string {
	visualContext := sceneContext
	if visualContext == "" {
		visualContext = story.Truncate(content, visualContextLen)
	}

	text, err := c.gen.GenerateText(ctx, prompts.Visual(visualContext))
	if err != nil {
		c.logger.Warn("Visual description degraded to template", "error", err)
		return fmt.Sprintf("A cultural scene depicting %s", visualContext)
	}
	return text
}
