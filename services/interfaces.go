package services

import (
	"context"

	"stock-insight/models"
)

// ChatMessage represents a single turn in an LLM conversation
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// LLMService defines the interface for commentary generation backends
type LLMService interface {
	InvokeWithPrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	InvokeStructured(ctx context.Context, systemPrompt, userPrompt string, result interface{}) error
	Chat(ctx context.Context, systemPrompt string, messages []ChatMessage) (string, error)
}

// MarketDataProvider defines the interface for quote and fundamentals sources
type MarketDataProvider interface {
	GetInfo(ctx context.Context, symbol string) (*models.StockInfo, error)
	GetFundamentals(ctx context.Context, symbol string) (*models.StockFundamentals, error)
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)
}

// HistoryProvider defines the interface for daily price history sources
type HistoryProvider interface {
	GetDailyHistory(ctx context.Context, symbol string, days int) ([]models.Bar, error)
}

// Compile-time interface verification
var _ LLMService = (*OpenAIService)(nil)
var _ LLMService = (*BedrockService)(nil)
var _ MarketDataProvider = (*YahooService)(nil)
var _ MarketDataProvider = (*AlphaVantageService)(nil)
var _ HistoryProvider = (*YahooService)(nil)
var _ HistoryProvider = (*AlpacaService)(nil)
