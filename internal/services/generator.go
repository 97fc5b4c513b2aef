package services

import (
	"context"
)

// TextGenerator defines the interface for the generative-text backend.
// A generator returns raw text for a prompt or an error; callers that
// need degradation guarantees go through ContentService, which never
// lets a generator error escape.
type TextGenerator interface {
	// GenerateText sends one prompt and returns the generated text.
	GenerateText(ctx context.Context, prompt string) (string, error)

	// Ready checks that the backend is reachable and configured.
	Ready(ctx context.Context) error
}
