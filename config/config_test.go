package config

import (
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() with defaults should not fail: %v", err)
	}

	if cfg.Valuation.RiskFreeRate != 0.04 {
		t.Errorf("RiskFreeRate = %v, want 0.04", cfg.Valuation.RiskFreeRate)
	}
	if cfg.Valuation.ProjectionYears != 5 {
		t.Errorf("ProjectionYears = %v, want 5", cfg.Valuation.ProjectionYears)
	}
	if cfg.Scoring.WeightValuation != 0.5 {
		t.Errorf("WeightValuation = %v, want 0.5", cfg.Scoring.WeightValuation)
	}
	if cfg.Analysis.LookbackDays != 365 {
		t.Errorf("LookbackDays = %v, want 365", cfg.Analysis.LookbackDays)
	}
	if cfg.HTTP.Port != "8080" {
		t.Errorf("Port = %v, want 8080", cfg.HTTP.Port)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("VALUATION_RISK_FREE_RATE", "0.05")
	t.Setenv("VALUATION_TERMINAL_GROWTH_RATE", "0.02")
	t.Setenv("ANALYSIS_LOOKBACK_DAYS", "200")
	t.Setenv("GROK_MODEL", "grok-4")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Valuation.RiskFreeRate != 0.05 {
		t.Errorf("RiskFreeRate = %v, want 0.05", cfg.Valuation.RiskFreeRate)
	}
	if cfg.Valuation.TerminalGrowthRate != 0.02 {
		t.Errorf("TerminalGrowthRate = %v, want 0.02", cfg.Valuation.TerminalGrowthRate)
	}
	if cfg.Analysis.LookbackDays != 200 {
		t.Errorf("LookbackDays = %v, want 200", cfg.Analysis.LookbackDays)
	}
	if cfg.Grok.Model != "grok-4" {
		t.Errorf("Grok.Model = %v, want grok-4", cfg.Grok.Model)
	}
}

func TestLoad_InvalidWeights(t *testing.T) {
	t.Setenv("SCORING_WEIGHT_VALUATION", "0.9")
	t.Setenv("SCORING_WEIGHT_TECHNICAL", "0.9")
	t.Setenv("SCORING_WEIGHT_QUALITY", "0.9")

	if _, err := Load(); err == nil {
		t.Error("weights summing to 2.7 should fail validation")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"zero timeout", func(c *Config) { c.Analysis.TimeoutSeconds = 0 }, true},
		{"zero concurrency", func(c *Config) { c.Analysis.ConcurrencyLimit = 0 }, true},
		{"zero projection years", func(c *Config) { c.Valuation.ProjectionYears = 0 }, true},
		{"negative risk-free rate", func(c *Config) { c.Valuation.RiskFreeRate = -0.01 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewTestConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCapabilityFlags(t *testing.T) {
	cfg := NewTestConfig()

	if cfg.HasDatabase() || cfg.HasAlphaVantage() || cfg.HasAlpaca() ||
		cfg.HasOpenAI() || cfg.HasGrok() || cfg.HasBedrock() {
		t.Error("test config should report no optional capabilities")
	}

	cfg.OpenAI.APIKey = "sk-test"
	if !cfg.HasOpenAI() {
		t.Error("HasOpenAI should be true once the key is set")
	}

	cfg.Alpaca.APIKey = "key"
	if cfg.HasAlpaca() {
		t.Error("HasAlpaca requires both key and secret")
	}
	cfg.Alpaca.APISecret = "secret"
	if !cfg.HasAlpaca() {
		t.Error("HasAlpaca should be true with key and secret")
	}

	cfg.Bedrock.Region = "us-east-1"
	if cfg.HasBedrock() {
		t.Error("HasBedrock requires both region and model ID")
	}
	cfg.Bedrock.ModelID = "anthropic.claude-3-5-sonnet"
	if !cfg.HasBedrock() {
		t.Error("HasBedrock should be true with region and model ID")
	}
}
