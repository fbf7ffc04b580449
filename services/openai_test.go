package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"stock-insight/config"

	"github.com/openai/openai-go"
)

// mockOpenAIClient implements openaiClient for testing
type mockOpenAIClient struct {
	completionFunc func(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

func (m *mockOpenAIClient) CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	return m.completionFunc(ctx, params)
}

func TestNewOpenAIService_MissingAPIKey(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.OpenAI.APIKey = ""

	_, err := NewOpenAIService(cfg)
	if err == nil {
		t.Error("expected error when API key is missing")
	}
	if !strings.Contains(err.Error(), "OPENAI_API_KEY is required") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestNewOpenAIService_WithAPIKey(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.OpenAI.APIKey = "test-api-key"
	cfg.OpenAI.Model = "gpt-4o-mini"
	cfg.OpenAI.MaxTokens = 2048

	service, err := NewOpenAIService(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if service == nil {
		t.Fatal("service should not be nil")
	}
	if service.model != "gpt-4o-mini" {
		t.Errorf("model = %s, want gpt-4o-mini", service.model)
	}
	if service.maxTokens != 2048 {
		t.Errorf("maxTokens = %d, want 2048", service.maxTokens)
	}
	if service.breaker != BreakerOpenAI {
		t.Errorf("breaker = %s, want %s", service.breaker, BreakerOpenAI)
	}
}

func TestNewGrokService_MissingAPIKey(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.Grok.APIKey = ""

	_, err := NewGrokService(cfg)
	if err == nil {
		t.Error("expected error when API key is missing")
	}
}

func TestNewGrokService_UsesGrokBreaker(t *testing.T) {
	cfg := config.NewTestConfig()
	cfg.Grok.APIKey = "test-key"
	cfg.Grok.Model = "grok-3"

	service, err := NewGrokService(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if service.breaker != BreakerGrok {
		t.Errorf("breaker = %s, want %s", service.breaker, BreakerGrok)
	}
	if service.model != "grok-3" {
		t.Errorf("model = %s, want grok-3", service.model)
	}
}

func TestOpenAIInvokeWithPrompt_Success(t *testing.T) {
	SetGlobalRegistry(NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig))

	mockClient := &mockOpenAIClient{
		completionFunc: func(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
			return &openai.ChatCompletion{
				Choices: []openai.ChatCompletionChoice{
					{
						Message: openai.ChatCompletionMessage{
							Content: "Shares look fairly valued.",
						},
					},
				},
			}, nil
		},
	}

	service := newOpenAIServiceWithClient(mockClient, "gpt-4o", 4096)
	ctx := context.Background()

	result, err := service.InvokeWithPrompt(ctx, "You are an equity analyst", "Assess AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "Shares look fairly valued." {
		t.Errorf("unexpected result: %s", result)
	}
}

func TestOpenAIInvokeWithPrompt_EmptyChoices(t *testing.T) {
	SetGlobalRegistry(NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig))

	mockClient := &mockOpenAIClient{
		completionFunc: func(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
			return &openai.ChatCompletion{}, nil
		},
	}

	service := newOpenAIServiceWithClient(mockClient, "gpt-4o", 4096)

	_, err := service.InvokeWithPrompt(context.Background(), "system", "user")
	if err == nil {
		t.Error("expected error for empty choices")
	}
}

func TestOpenAIInvokeWithPrompt_APIError(t *testing.T) {
	SetGlobalRegistry(NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig))

	mockClient := &mockOpenAIClient{
		completionFunc: func(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
			return nil, errors.New("rate limit exceeded")
		},
	}

	service := newOpenAIServiceWithClient(mockClient, "gpt-4o", 4096)

	_, err := service.InvokeWithPrompt(context.Background(), "system", "user")
	if err == nil {
		t.Error("expected error")
	}
	if !strings.Contains(err.Error(), "rate limit") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestOpenAIInvokeStructured(t *testing.T) {
	SetGlobalRegistry(NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig))

	mockClient := &mockOpenAIClient{
		completionFunc: func(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
			return &openai.ChatCompletion{
				Choices: []openai.ChatCompletionChoice{
					{
						Message: openai.ChatCompletionMessage{
							Content: `{"thesis": "undervalued", "score": 72}`,
						},
					},
				},
			}, nil
		},
	}

	service := newOpenAIServiceWithClient(mockClient, "gpt-4o", 4096)

	var result struct {
		Thesis string `json:"thesis"`
		Score  int    `json:"score"`
	}
	err := service.InvokeStructured(context.Background(), "system", "user", &result)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Thesis != "undervalued" {
		t.Errorf("Thesis = %s, want undervalued", result.Thesis)
	}
	if result.Score != 72 {
		t.Errorf("Score = %d, want 72", result.Score)
	}
}

func TestOpenAIInvokeStructured_InvalidJSON(t *testing.T) {
	SetGlobalRegistry(NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig))

	mockClient := &mockOpenAIClient{
		completionFunc: func(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
			return &openai.ChatCompletion{
				Choices: []openai.ChatCompletionChoice{
					{
						Message: openai.ChatCompletionMessage{
							Content: "not json at all",
						},
					},
				},
			}, nil
		},
	}

	service := newOpenAIServiceWithClient(mockClient, "gpt-4o", 4096)

	var result map[string]any
	err := service.InvokeStructured(context.Background(), "system", "user", &result)
	if err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestOpenAIChat(t *testing.T) {
	SetGlobalRegistry(NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig))

	var capturedCount int
	mockClient := &mockOpenAIClient{
		completionFunc: func(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
			capturedCount = len(params.Messages)
			return &openai.ChatCompletion{
				Choices: []openai.ChatCompletionChoice{
					{
						Message: openai.ChatCompletionMessage{
							Content: "Follow-up answer",
						},
					},
				},
			}, nil
		},
	}

	service := newOpenAIServiceWithClient(mockClient, "gpt-4o", 4096)

	messages := []ChatMessage{
		{Role: "user", Content: "What is the fair value of MSFT?"},
		{Role: "assistant", Content: "Around 420 dollars."},
		{Role: "user", Content: "And the downside risk?"},
	}

	result, err := service.Chat(context.Background(), "You are an equity analyst", messages)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "Follow-up answer" {
		t.Errorf("unexpected result: %s", result)
	}
	// System prompt plus three conversation turns
	if capturedCount != 4 {
		t.Errorf("expected 4 messages, got %d", capturedCount)
	}
}

func TestCategorizeAPIError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil error", nil, "none"},
		{"timeout", errors.New("request timeout"), "timeout"},
		{"deadline", errors.New("context deadline exceeded"), "timeout"},
		{"rate limit", errors.New("rate limit exceeded"), "rate_limit"},
		{"status 429", errors.New("received 429 from server"), "rate_limit"},
		{"auth", errors.New("401 unauthorized"), "auth_error"},
		{"connection", errors.New("connection refused"), "connection_error"},
		{"other", errors.New("something odd"), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := categorizeAPIError(tt.err); got != tt.want {
				t.Errorf("categorizeAPIError(%v) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}
