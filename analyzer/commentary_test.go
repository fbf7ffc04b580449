package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"stock-insight/config"
	"stock-insight/models"
	"stock-insight/services"
)

type mockLLM struct {
	response string
	err      error
	calls    int
}

func (m *mockLLM) InvokeWithPrompt(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockLLM) InvokeStructured(ctx context.Context, systemPrompt, userPrompt string, result interface{}) error {
	m.calls++
	if m.err != nil {
		return m.err
	}
	return json.Unmarshal([]byte(m.response), result)
}

func (m *mockLLM) Chat(ctx context.Context, systemPrompt string, messages []services.ChatMessage) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

const commentaryJSON = `{"report":"Valuations point above the market price.","thesis":"Quality compounder at a discount.","risk_summary":"Multiple compression if growth slows."}`

func commentaryTestAnalyzer(commentors []Commentor) *Analyzer {
	cfg := config.NewTestConfig()
	cfg.Analysis.CommentaryEnabled = true

	provider := &mockMarketProvider{fundamentals: testFundamentals("AAPL")}
	return New(cfg, []NamedProvider{{Name: "yahoo", Provider: provider}}, nil, commentors, nil)
}

func TestGenerateCommentary_Success(t *testing.T) {
	llm := &mockLLM{response: commentaryJSON}
	a := commentaryTestAnalyzer([]Commentor{{Name: "openai", Service: llm}})

	result, err := a.Analyze(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if len(result.Commentary) != 1 {
		t.Fatalf("expected 1 commentary entry, got %d", len(result.Commentary))
	}
	c := result.Commentary[0]
	if c.Provider != "openai" {
		t.Errorf("expected provider openai, got %s", c.Provider)
	}
	if c.Report == "" || c.Thesis == "" || c.RiskSummary == "" {
		t.Errorf("expected populated commentary, got %+v", c)
	}
	if c.Err != "" {
		t.Errorf("unexpected commentary error: %s", c.Err)
	}
}

func TestGenerateCommentary_FallsBackOnFailure(t *testing.T) {
	failing := &mockLLM{err: errors.New("rate limited")}
	working := &mockLLM{response: commentaryJSON}

	a := commentaryTestAnalyzer([]Commentor{
		{Name: "openai", Service: failing},
		{Name: "bedrock", Service: working},
	})

	result, err := a.Analyze(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if len(result.Commentary) != 2 {
		t.Fatalf("expected 2 commentary entries (failed + succeeded), got %d", len(result.Commentary))
	}
	if result.Commentary[0].Provider != "openai" || result.Commentary[0].Err == "" {
		t.Errorf("first entry should be the failed openai attempt: %+v", result.Commentary[0])
	}
	if result.Commentary[1].Provider != "bedrock" || result.Commentary[1].Report == "" {
		t.Errorf("second entry should be the bedrock result: %+v", result.Commentary[1])
	}
	if failing.calls != 1 || working.calls != 1 {
		t.Errorf("expected each provider called once, got %d and %d", failing.calls, working.calls)
	}
}

func TestGenerateCommentary_AllProvidersFail(t *testing.T) {
	a := commentaryTestAnalyzer([]Commentor{
		{Name: "openai", Service: &mockLLM{err: errors.New("auth error")}},
		{Name: "grok", Service: &mockLLM{err: errors.New("timeout")}},
	})

	result, err := a.Analyze(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("commentary failures must not fail the analysis: %v", err)
	}

	if len(result.Commentary) != 2 {
		t.Fatalf("expected 2 failed entries, got %d", len(result.Commentary))
	}
	for _, c := range result.Commentary {
		if c.Err == "" {
			t.Errorf("expected error recorded for provider %s", c.Provider)
		}
	}
	if result.Recommendation == nil {
		t.Error("numeric results must survive commentary failure")
	}
}

func TestGenerateCommentary_Disabled(t *testing.T) {
	llm := &mockLLM{response: commentaryJSON}
	cfg := config.NewTestConfig()
	cfg.Analysis.CommentaryEnabled = false

	provider := &mockMarketProvider{fundamentals: testFundamentals("AAPL")}
	a := New(cfg, []NamedProvider{{Name: "yahoo", Provider: provider}}, nil,
		[]Commentor{{Name: "openai", Service: llm}}, nil)

	result, err := a.Analyze(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(result.Commentary) != 0 {
		t.Errorf("expected no commentary when disabled, got %d entries", len(result.Commentary))
	}
	if llm.calls != 0 {
		t.Errorf("LLM should not be called when commentary disabled, got %d calls", llm.calls)
	}
}

func TestOrderCommentors(t *testing.T) {
	commentors := []Commentor{
		{Name: "openai"},
		{Name: "grok"},
		{Name: "bedrock"},
	}

	ordered := OrderCommentors("bedrock", commentors)
	if len(ordered) != 3 {
		t.Fatalf("expected 3 commentors, got %d", len(ordered))
	}
	if ordered[0].Name != "bedrock" {
		t.Errorf("expected preferred provider first, got %s", ordered[0].Name)
	}
	if ordered[1].Name != "openai" || ordered[2].Name != "grok" {
		t.Errorf("expected remaining order preserved, got %s, %s", ordered[1].Name, ordered[2].Name)
	}

	// Unknown preference keeps the original order
	ordered = OrderCommentors("missing", commentors)
	if ordered[0].Name != "openai" {
		t.Errorf("expected original order for unknown preference, got %s", ordered[0].Name)
	}
}

func TestBuildCommentaryPrompt(t *testing.T) {
	f := testFundamentals("AAPL")
	rec := models.NewRecommendation("AAPL", models.CategoryBuy, 30)
	rec.Confidence = 70
	rec.Factors = []models.Factor{
		{Description: "moderate upside potential: 15.0%", Sign: 1, Weight: 0.5},
	}

	result := &models.AnalysisResult{
		Symbol:       "AAPL",
		Info:         models.StockInfo{Symbol: "AAPL", Name: "Apple Inc.", Sector: "Technology"},
		Fundamentals: *f,
		Estimates: []models.ValuationEstimate{
			{Model: models.ValuationModelPE, FairValue: 126, Applicable: true},
			{Model: models.ValuationModelDDM, Reason: "no dividend paid"},
		},
		Blended: models.BlendedValuation{FairValue: 126, ModelCount: 1},
		Technicals: &models.TechnicalIndicators{
			Symbol:        "AAPL",
			RSI:           55,
			PriceVsSMA50:  2.5,
			PriceVsSMA200: -1.2,
			Volatility:    0.30,
		},
		Recommendation: rec,
	}

	prompt := buildCommentaryPrompt(result)

	for _, want := range []string{
		"Symbol: AAPL (Apple Inc.)",
		"Sector: Technology",
		"pe: fair value 126.00",
		"ddm: not applicable (no dividend paid)",
		"Blended fair value: 126.00",
		// Indicators carry percent figures already; volatility is a fraction.
		"Technicals: RSI 55.0, price vs 50-day 2.5%, price vs 200-day -1.2%, annualized volatility 30.0%",
		"Recommendation: buy",
		"moderate upside potential",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}
