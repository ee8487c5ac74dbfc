// Package gemini implements the inference client port using Google Gemini.
package gemini

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Client invokes Gemini generative models.
type Client struct {
	client *genai.Client
	model  *genai.GenerativeModel
	logger *zap.Logger
}

// NewClient creates a new Gemini client
func NewClient(apiKey, modelName string, maxTokens int, temperature float32, logger *zap.Logger) (*Client, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetMaxOutputTokens(int32(maxTokens))

	return &Client{
		client: client,
		model:  model,
		logger: logger,
	}, nil
}

// Close closes the Gemini client
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Invoke sends the prompt as a single user turn and returns the model's text
// response. The modelID override is ignored: stored overrides are Bedrock
// identifiers and do not map onto Gemini model names.
func (c *Client) Invoke(ctx context.Context, modelID string, prompt string) (string, error) {
	if modelID != "" {
		c.logger.Debug("Ignoring model override for Gemini backend",
			zap.String("model_id", modelID))
	}

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to call Gemini API: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty response from Gemini model")
	}

	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text += string(t)
		}
	}
	if text == "" {
		return "", fmt.Errorf("no text content in Gemini response")
	}

	return text, nil
}
