package inference

import (
	"context"
	"fmt"

	"fjacquet/stmt-ingest/internal/logging"

	"google.golang.org/genai"
)

// GenAIClient implements Client with the unified google.golang.org/genai
// SDK. With an empty API key it relies on the SDK's environment
// configuration (GOOGLE_API_KEY, or Vertex AI project settings).
type GenAIClient struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
	logger logging.Logger
}

// NewGenAIClient creates a GenAIClient for model.
func NewGenAIClient(ctx context.Context, apiKey, model string, logger logging.Logger) (*GenAIClient, error) {
	if model == "" {
		model = DefaultGeminiModel
	}

	cfg := &genai.ClientConfig{}
	if apiKey != "" {
		cfg.APIKey = apiKey
		cfg.Backend = genai.BackendGeminiAPI
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GenAIClient{
		client: client,
		model:  model,
		config: &genai.GenerateContentConfig{Temperature: genai.Ptr[float32](0)},
		logger: logging.OrDefault(logger),
	}, nil
}

// Complete sends prompt as a single user turn and returns the reply text.
func (c *GenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), c.config)
	if err != nil {
		return "", fmt.Errorf("genai generate content: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", ErrEmptyResponse
	}

	c.logger.Debug("GenAI response received",
		logging.F("model", c.model),
		logging.F("chars", len(text)))
	return text, nil
}
