package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// External service configurations
	Yahoo        YahooConfig
	AlphaVantage AlphaVantageConfig
	Alpaca       AlpacaConfig

	// LLM provider configurations
	OpenAI  OpenAIConfig
	Grok    GrokConfig
	Bedrock BedrockConfig

	// Analysis configuration
	Analysis AnalysisConfig

	// Valuation assumptions
	Valuation ValuationConfig

	// Scoring weights
	Scoring ScoringConfig

	// HTTP configuration
	HTTP HTTPConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// YahooConfig holds Yahoo Finance client configuration
type YahooConfig struct {
	BaseURL string
}

// AlphaVantageConfig holds Alpha Vantage API configuration
type AlphaVantageConfig struct {
	APIKey string
}

// AlpacaConfig holds Alpaca market-data API configuration
type AlpacaConfig struct {
	APIKey    string
	APISecret string
	BaseURL   string
}

// OpenAIConfig holds OpenAI API configuration
type OpenAIConfig struct {
	APIKey    string
	Model     string
	MaxTokens int
}

// GrokConfig holds xAI Grok API configuration
type GrokConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// BedrockConfig holds AWS Bedrock configuration for Claude models
type BedrockConfig struct {
	Region  string
	ModelID string
}

// AnalysisConfig holds orchestration configuration
type AnalysisConfig struct {
	TimeoutSeconds     int
	ConcurrencyLimit   int
	LookbackDays       int
	CommentaryEnabled  bool
	PreferredCommentor string // openai, grok, or bedrock
}

// ValuationConfig holds the rate assumptions for the valuation engine
type ValuationConfig struct {
	RiskFreeRate       float64
	MarketRiskPremium  float64
	TerminalGrowthRate float64
	ProjectionYears    int
	MaxGrowthRate      float64
	IndustryPE         float64
	IndustryPB         float64
	BenchmarkROE       float64
}

// ScoringConfig holds recommendation scoring weights
type ScoringConfig struct {
	WeightValuation float64
	WeightTechnical float64
	WeightQuality   float64
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	Port               string
	CORSAllowedOrigins string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Yahoo: YahooConfig{
			BaseURL: getEnvString("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
		},
		AlphaVantage: AlphaVantageConfig{
			APIKey: os.Getenv("ALPHA_VANTAGE_API_KEY"),
		},
		Alpaca: AlpacaConfig{
			APIKey:    os.Getenv("ALPACA_API_KEY"),
			APISecret: os.Getenv("ALPACA_API_SECRET"),
			BaseURL:   getEnvString("ALPACA_BASE_URL", "https://paper-api.alpaca.markets"),
		},
		OpenAI: OpenAIConfig{
			APIKey:    os.Getenv("OPENAI_API_KEY"),
			Model:     getEnvString("OPENAI_MODEL", "gpt-4o"),
			MaxTokens: getEnvInt("OPENAI_MAX_TOKENS", 4096),
		},
		Grok: GrokConfig{
			APIKey:  os.Getenv("GROK_API_KEY"),
			Model:   getEnvString("GROK_MODEL", "grok-3"),
			BaseURL: getEnvString("GROK_BASE_URL", "https://api.x.ai/v1"),
		},
		Bedrock: BedrockConfig{
			Region:  os.Getenv("AWS_REGION"),
			ModelID: os.Getenv("BEDROCK_MODEL_ID"),
		},
		Analysis: AnalysisConfig{
			TimeoutSeconds:     getEnvInt("ANALYSIS_TIMEOUT_SECONDS", 30),
			ConcurrencyLimit:   getEnvInt("ANALYSIS_CONCURRENCY_LIMIT", 3),
			LookbackDays:       getEnvInt("ANALYSIS_LOOKBACK_DAYS", 365),
			CommentaryEnabled:  getEnvBool("ANALYSIS_COMMENTARY_ENABLED", true),
			PreferredCommentor: getEnvString("ANALYSIS_PREFERRED_COMMENTOR", "openai"),
		},
		Valuation: ValuationConfig{
			RiskFreeRate:       getEnvFloatUnbounded("VALUATION_RISK_FREE_RATE", 0.04),
			MarketRiskPremium:  getEnvFloatUnbounded("VALUATION_MARKET_RISK_PREMIUM", 0.06),
			TerminalGrowthRate: getEnvFloatUnbounded("VALUATION_TERMINAL_GROWTH_RATE", 0.03),
			ProjectionYears:    getEnvInt("VALUATION_PROJECTION_YEARS", 5),
			MaxGrowthRate:      getEnvFloatUnbounded("VALUATION_MAX_GROWTH_RATE", 0.08),
			IndustryPE:         getEnvFloatUnbounded("VALUATION_INDUSTRY_PE", 20.0),
			IndustryPB:         getEnvFloatUnbounded("VALUATION_INDUSTRY_PB", 2.0),
			BenchmarkROE:       getEnvFloatUnbounded("VALUATION_BENCHMARK_ROE", 0.15),
		},
		Scoring: ScoringConfig{
			WeightValuation: getEnvFloat("SCORING_WEIGHT_VALUATION", 0.5),
			WeightTechnical: getEnvFloat("SCORING_WEIGHT_TECHNICAL", 0.3),
			WeightQuality:   getEnvFloat("SCORING_WEIGHT_QUALITY", 0.2),
		},
		HTTP: HTTPConfig{
			Port:               getEnvString("HTTP_PORT", "8080"),
			CORSAllowedOrigins: getEnvString("CORS_ALLOWED_ORIGINS", "*"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	weightSum := c.Scoring.WeightValuation + c.Scoring.WeightTechnical + c.Scoring.WeightQuality
	if weightSum < 0.99 || weightSum > 1.01 {
		return fmt.Errorf("scoring weights must sum to 1.0, got %.2f (valuation=%.2f, technical=%.2f, quality=%.2f)",
			weightSum, c.Scoring.WeightValuation, c.Scoring.WeightTechnical, c.Scoring.WeightQuality)
	}

	if c.Analysis.TimeoutSeconds <= 0 {
		return fmt.Errorf("ANALYSIS_TIMEOUT_SECONDS must be positive, got %d", c.Analysis.TimeoutSeconds)
	}
	if c.Analysis.ConcurrencyLimit <= 0 {
		return fmt.Errorf("ANALYSIS_CONCURRENCY_LIMIT must be positive, got %d", c.Analysis.ConcurrencyLimit)
	}
	if c.Analysis.LookbackDays <= 0 {
		return fmt.Errorf("ANALYSIS_LOOKBACK_DAYS must be positive, got %d", c.Analysis.LookbackDays)
	}

	if c.Valuation.ProjectionYears <= 0 {
		return fmt.Errorf("VALUATION_PROJECTION_YEARS must be positive, got %d", c.Valuation.ProjectionYears)
	}
	if c.Valuation.RiskFreeRate < 0 {
		return fmt.Errorf("VALUATION_RISK_FREE_RATE must be non-negative, got %.4f", c.Valuation.RiskFreeRate)
	}
	if c.Valuation.MarketRiskPremium < 0 {
		return fmt.Errorf("VALUATION_MARKET_RISK_PREMIUM must be non-negative, got %.4f", c.Valuation.MarketRiskPremium)
	}

	return nil
}

// HasDatabase returns true if database configuration is available
func (c *Config) HasDatabase() bool {
	return c.Database.URL != ""
}

// HasAlphaVantage returns true if Alpha Vantage configuration is available
func (c *Config) HasAlphaVantage() bool {
	return c.AlphaVantage.APIKey != ""
}

// HasAlpaca returns true if Alpaca configuration is available
func (c *Config) HasAlpaca() bool {
	return c.Alpaca.APIKey != "" && c.Alpaca.APISecret != ""
}

// HasOpenAI returns true if OpenAI configuration is available
func (c *Config) HasOpenAI() bool {
	return c.OpenAI.APIKey != ""
}

// HasGrok returns true if Grok configuration is available
func (c *Config) HasGrok() bool {
	return c.Grok.APIKey != ""
}

// HasBedrock returns true if Bedrock configuration is available
func (c *Config) HasBedrock() bool {
	return c.Bedrock.Region != "" && c.Bedrock.ModelID != ""
}

func getEnvString(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil && parsed >= 0 && parsed <= 1 {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloatUnbounded(key string, defaultValue float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// NewTestConfig creates a Config with default values for testing
func NewTestConfig() *Config {
	return &Config{
		Database: DatabaseConfig{URL: ""},
		Yahoo: YahooConfig{
			BaseURL: "https://query1.finance.yahoo.com",
		},
		AlphaVantage: AlphaVantageConfig{APIKey: ""},
		Alpaca: AlpacaConfig{
			BaseURL: "https://paper-api.alpaca.markets",
		},
		OpenAI: OpenAIConfig{
			Model:     "gpt-4o",
			MaxTokens: 4096,
		},
		Grok: GrokConfig{
			Model:   "grok-3",
			BaseURL: "https://api.x.ai/v1",
		},
		Analysis: AnalysisConfig{
			TimeoutSeconds:     30,
			ConcurrencyLimit:   3,
			LookbackDays:       365,
			CommentaryEnabled:  false,
			PreferredCommentor: "openai",
		},
		Valuation: ValuationConfig{
			RiskFreeRate:       0.04,
			MarketRiskPremium:  0.06,
			TerminalGrowthRate: 0.03,
			ProjectionYears:    5,
			MaxGrowthRate:      0.08,
			IndustryPE:         20.0,
			IndustryPB:         2.0,
			BenchmarkROE:       0.15,
		},
		Scoring: ScoringConfig{
			WeightValuation: 0.5,
			WeightTechnical: 0.3,
			WeightQuality:   0.2,
		},
		HTTP: HTTPConfig{
			Port:               "8080",
			CORSAllowedOrigins: "*",
		},
	}
}
