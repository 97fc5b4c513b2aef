package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	openAITimeout     = 60 * time.Second
	openAITemperature = 0.7
)

// OpenAIService implements TextGenerator against any OpenAI-compatible
// chat completions API (OpenAI itself, OpenRouter, a local proxy).
type OpenAIService struct {
	client    *openai.Client
	modelName string
}

var _ TextGenerator = (*OpenAIService)(nil)

// NewOpenAIService creates an OpenAI-backed text generator. baseURL may
// be empty for the default endpoint.
func NewOpenAIService(apiKey, baseURL, modelName string) *OpenAIService {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	config.HTTPClient = &http.Client{
		Timeout: openAITimeout,
	}

	return &OpenAIService{
		client:    openai.NewClientWithConfig(config),
		modelName: modelName,
	}
}

func (s *OpenAIService) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: openAITemperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("received empty response from API")
	}

	return resp.Choices[0].Message.Content, nil
}

func (s *OpenAIService) Ready(ctx context.Context) error {
	if _, err := s.client.ListModels(ctx); err != nil {
		return fmt.Errorf("openai backend not ready: %w", err)
	}
	return nil
}
