package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIChat sends chat completions through the OpenAI API.
type OpenAIChat struct {
	client       *openai.Client
	defaultModel string
	maxTokens    int
}

// NewOpenAIChat creates a completer reading its API key from the named
// environment variable.
func NewOpenAIChat(apiKeyEnv, defaultModel string, maxTokens int) (*OpenAIChat, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("completion provider API key not set: %s", apiKeyEnv)
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	return &OpenAIChat{
		client:       openai.NewClient(apiKey),
		defaultModel: defaultModel,
		maxTokens:    maxTokens,
	}, nil
}

// Complete sends the prompts and returns the model's text, trimmed.
func (c *OpenAIChat) Complete(ctx context.Context, systemPrompt, userPrompt, model string) (string, error) {
	if model == "" {
		model = c.defaultModel
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		MaxTokens: c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
