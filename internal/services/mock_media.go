package services

import (
	"context"
	"sync"

	"github.com/kahani-labs/kahani/pkg/story"
)

// MockAudioGenerator is a mock implementation of AudioGenerator for
// testing. Unless overridden it writes a placeholder file and succeeds.
type MockAudioGenerator struct {
	GenerateAudioFunc func(ctx context.Context, text string, lang story.Language, voiceStyle, outputPath string) bool

	// Paths written, for assertions
	Calls []string

	mu sync.Mutex
}

var _ AudioGenerator = (*MockAudioGenerator)(nil)

func (m *MockAudioGenerator) GenerateAudio(ctx context.Context, text string, lang story.Language, voiceStyle, outputPath string) bool {
	m.mu.Lock()
	m.Calls = append(m.Calls, outputPath)
	m.mu.Unlock()

	if m.GenerateAudioFunc != nil {
		return m.GenerateAudioFunc(ctx, text, lang, voiceStyle, outputPath)
	}
	_ = WritePlaceholderAudio(outputPath)
	return true
}

// MockImageGenerator is a mock implementation of ImageGenerator.
type MockImageGenerator struct {
	GenerateImageFunc func(ctx context.Context, description, style, outputPath string) bool

	Calls []string

	mu sync.Mutex
}

var _ ImageGenerator = (*MockImageGenerator)(nil)

func (m *MockImageGenerator) GenerateImage(ctx context.Context, description, style, outputPath string) bool {
	m.mu.Lock()
	m.Calls = append(m.Calls, outputPath)
	m.mu.Unlock()

	if m.GenerateImageFunc != nil {
		return m.GenerateImageFunc(ctx, description, style, outputPath)
	}
	_ = WritePlaceholderImage(outputPath)
	return true
}
