// Package openai implements the inference client port using the OpenAI API.
package openai

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Client invokes OpenAI chat models.
type Client struct {
	client      *openai.Client
	modelName   string
	maxTokens   int
	temperature float32
	logger      *zap.Logger
}

// NewClient creates a new OpenAI client
func NewClient(apiKey, modelName string, maxTokens int, temperature float32, logger *zap.Logger) *Client {
	return &Client{
		client:      openai.NewClient(apiKey),
		modelName:   modelName,
		maxTokens:   maxTokens,
		temperature: temperature,
		logger:      logger,
	}
}

// Invoke sends the prompt as a single user turn and returns the model's text
// response. The modelID override is ignored: stored overrides are Bedrock
// identifiers and do not map onto OpenAI model names.
func (c *Client) Invoke(ctx context.Context, modelID string, prompt string) (string, error) {
	if modelID != "" && modelID != c.modelName {
		c.logger.Debug("Ignoring model override for OpenAI backend",
			zap.String("model_id", modelID))
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.modelName,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to call OpenAI API: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from OpenAI model")
	}

	return resp.Choices[0].Message.Content, nil
}
