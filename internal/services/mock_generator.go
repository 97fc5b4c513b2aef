package services

import (
	"context"
	"sync"
)

// MockGenerator is a mock implementation of TextGenerator for testing.
type MockGenerator struct {
	GenerateTextFunc func(ctx context.Context, prompt string) (string, error)
	ReadyFunc        func(ctx context.Context) error

	// Track calls for testing
	GenerateTextCalls []string

	mu sync.Mutex // protects fields above
}

var _ TextGenerator = (*MockGenerator)(nil)

// NewMockGenerator creates a new mock text generator.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{
		GenerateTextCalls: make([]string, 0),
	}
}

func (m *MockGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GenerateTextCalls = append(m.GenerateTextCalls, prompt)

	if m.GenerateTextFunc != nil {
		return m.GenerateTextFunc(ctx, prompt)
	}
	return "Mock generated text", nil
}

func (m *MockGenerator) Ready(ctx context.Context) error {
	if m.ReadyFunc != nil {
		return m.ReadyFunc(ctx)
	}
	return nil
}

// SetResponse sets up the mock to return fixed text for every prompt.
func (m *MockGenerator) SetResponse(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerateTextFunc = func(ctx context.Context, prompt string) (string, error) {
		return text, nil
	}
}

// SetError sets up the mock to fail every generation.
func (m *MockGenerator) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GenerateTextFunc = func(ctx context.Context, prompt string) (string, error) {
		return "", err
	}
}

// Prompts returns a copy of the prompts seen so far.
func (m *MockGenerator) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.GenerateTextCalls))
	copy(out, m.GenerateTextCalls)
	return out
}
