package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ValidationResult represents the result of validating an API key
type ValidationResult struct {
	Service  ServiceName   `json:"service"`
	Valid    bool          `json:"valid"`
	Message  string        `json:"message"`
	Duration time.Duration `json:"duration_ms"`
}

// Validator validates API key configurations
type Validator struct {
	client *http.Client
}

// NewValidator creates a new API key validator
func NewValidator() *Validator {
	return &Validator{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// ValidateAPIKey tests if an API key is valid for the given service
func (v *Validator) ValidateAPIKey(ctx context.Context, config *APIKeyConfig) (*ValidationResult, error) {
	if config == nil {
		return nil, errors.New("config cannot be nil")
	}

	start := time.Now()
	result := &ValidationResult{
		Service: config.ServiceName,
	}

	var err error
	switch config.ServiceName {
	case ServiceOpenAI:
		err = v.validateOpenAI(ctx, config)
	case ServiceGrok:
		err = v.validateGrok(ctx, config)
	case ServiceBedrock:
		err = v.validateBedrock(config)
	case ServiceAlpaca:
		err = v.validateAlpaca(ctx, config)
	case ServiceAlphaVantage:
		err = v.validateAlphaVantage(ctx, config)
	default:
		err = fmt.Errorf("unknown service: %s", config.ServiceName)
	}

	result.Duration = time.Since(start)

	if err != nil {
		result.Valid = false
		result.Message = err.Error()
	} else {
		result.Valid = true
		result.Message = "Connection successful"
	}

	return result, nil
}

// validateOpenAI tests OpenAI API connectivity
func (v *Validator) validateOpenAI(ctx context.Context, config *APIKeyConfig) error {
	if config.APIKey == "" {
		return errors.New("API key is required")
	}
	return v.validateBearerModels(ctx, "https://api.openai.com/v1/models", config.APIKey)
}

// validateGrok tests xAI API connectivity. The xAI API mirrors the
// OpenAI surface, including the models listing endpoint.
func (v *Validator) validateGrok(ctx context.Context, config *APIKeyConfig) error {
	if config.APIKey == "" {
		return errors.New("API key is required")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://api.x.ai/v1"
	}
	return v.validateBearerModels(ctx, baseURL+"/models", config.APIKey)
}

func (v *Validator) validateBearerModels(ctx context.Context, url, apiKey string) error {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == 401 {
		return errors.New("invalid API key")
	}
	if resp.StatusCode != 200 {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	return nil
}

// validateBedrock checks Bedrock configuration completeness. Bedrock
// authenticates with ambient AWS credentials, so there is no key to
// probe without making a billable model invocation.
func (v *Validator) validateBedrock(config *APIKeyConfig) error {
	if config.Region == "" {
		return errors.New("AWS region is required")
	}
	if config.ModelID == "" {
		return errors.New("model ID is required")
	}
	return nil
}

// validateAlpaca tests Alpaca API connectivity
func (v *Validator) validateAlpaca(ctx context.Context, config *APIKeyConfig) error {
	if config.APIKey == "" {
		return errors.New("API key is required")
	}
	if config.APISecret == "" {
		return errors.New("API secret is required")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://paper-api.alpaca.markets"
	}

	req, err := http.NewRequestWithContext(ctx, "GET", baseURL+"/v2/account", nil)
	if err != nil {
		return err
	}
	req.Header.Set("APCA-API-KEY-ID", config.APIKey)
	req.Header.Set("APCA-API-SECRET-KEY", config.APISecret)

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == 401 || resp.StatusCode == 403 {
		return errors.New("invalid API credentials")
	}
	if resp.StatusCode != 200 {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	return nil
}

// validateAlphaVantage tests Alpha Vantage API connectivity
func (v *Validator) validateAlphaVantage(ctx context.Context, config *APIKeyConfig) error {
	if config.APIKey == "" {
		return errors.New("API key is required")
	}

	// Use a simple function call to test the API
	url := fmt.Sprintf("https://www.alphavantage.co/query?function=TIME_SERIES_INTRADAY&symbol=IBM&interval=5min&apikey=%s", config.APIKey)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return err
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	// Check response for error message
	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("invalid response: %w", err)
	}

	// Alpha Vantage returns error messages in "Error Message" or "Note" fields
	if errMsg, ok := result["Error Message"].(string); ok {
		return fmt.Errorf("API error: %s", errMsg)
	}
	if note, ok := result["Note"].(string); ok {
		// Rate limit message means the key is valid but throttled
		if len(note) > 50 {
			return nil
		}
	}

	return nil
}
