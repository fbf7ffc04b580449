package services

import (
	"fmt"

	appconfig "stock-insight/config"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// NewGrokService creates a service for the xAI Grok API. Grok exposes an
// OpenAI-compatible chat completions endpoint, so it reuses OpenAIService
// with a different base URL and breaker name.
func NewGrokService(cfg *appconfig.Config) (*OpenAIService, error) {
	if cfg.Grok.APIKey == "" {
		return nil, fmt.Errorf("GROK_API_KEY is required")
	}

	client := openai.NewClient(
		option.WithAPIKey(cfg.Grok.APIKey),
		option.WithBaseURL(cfg.Grok.BaseURL),
	)

	return &OpenAIService{
		client:    &openaiClientWrapper{client: client},
		model:     cfg.Grok.Model,
		maxTokens: cfg.OpenAI.MaxTokens,
		breaker:   BreakerGrok,
	}, nil
}
