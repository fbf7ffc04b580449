package analyzer

import (
	"context"
	"errors"
	"testing"
	"time"

	"stock-insight/config"
	"stock-insight/models"

	"github.com/shopspring/decimal"
)

type mockMarketProvider struct {
	fundamentals *models.StockFundamentals
	info         *models.StockInfo
	err          error
	calls        int
}

func (m *mockMarketProvider) GetFundamentals(ctx context.Context, symbol string) (*models.StockFundamentals, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.fundamentals, nil
}

func (m *mockMarketProvider) GetInfo(ctx context.Context, symbol string) (*models.StockInfo, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.info == nil {
		return &models.StockInfo{Symbol: symbol}, nil
	}
	return m.info, nil
}

func (m *mockMarketProvider) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	return nil, errors.New("not implemented")
}

type mockHistoryProvider struct {
	bars  []models.Bar
	err   error
	calls int
}

func (m *mockHistoryProvider) GetDailyHistory(ctx context.Context, symbol string, days int) ([]models.Bar, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.bars, nil
}

type mockRepo struct {
	analyses        []*models.AnalysisResult
	recommendations []*models.Recommendation
	runs            map[string]*models.AnalysisRun
	saveErr         error
}

func newMockRepo() *mockRepo {
	return &mockRepo{runs: make(map[string]*models.AnalysisRun)}
}

func (m *mockRepo) SaveAnalysis(ctx context.Context, result *models.AnalysisResult) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.analyses = append(m.analyses, result)
	return nil
}

func (m *mockRepo) CreateRecommendation(ctx context.Context, rec *models.Recommendation) error {
	m.recommendations = append(m.recommendations, rec)
	return nil
}

func (m *mockRepo) CreateAnalysisRun(ctx context.Context, run *models.AnalysisRun) error {
	m.runs[run.ID.String()] = run
	return nil
}

func (m *mockRepo) UpdateAnalysisRun(ctx context.Context, run *models.AnalysisRun) error {
	m.runs[run.ID.String()] = run
	return nil
}

func testFundamentals(symbol string) *models.StockFundamentals {
	return &models.StockFundamentals{
		Symbol:            symbol,
		Price:             100,
		SharesOutstanding: 1e9,
		EPS:               6,
		BookValuePerShare: 25,
		DividendPerShare:  2,
		FCFPerShare:       5,
		GrowthRate:        0.05,
		ReturnOnEquity:    0.20,
		DebtToEquity:      0.4,
		Beta:              1.1,
		PERatio:           16.7,
		DividendYield:     0.02,
		Sector:            "Technology",
		AsOf:              time.Now(),
	}
}

// testBars builds a gently rising daily close series
func testBars(symbol string, n int) []models.Bar {
	bars := make([]models.Bar, n)
	price := 80.0
	for i := range bars {
		price += 0.1
		bars[i] = models.Bar{
			Symbol:    symbol,
			Timestamp: time.Now().AddDate(0, 0, i-n),
			Close:     decimal.NewFromFloat(price),
			Volume:    1000000,
		}
	}
	return bars
}

func newTestAnalyzer(market []NamedProvider, history []NamedHistoryProvider, commentors []Commentor, repo Repository) *Analyzer {
	cfg := config.NewTestConfig()
	return New(cfg, market, history, commentors, repo)
}

func TestAnalyze_Success(t *testing.T) {
	provider := &mockMarketProvider{
		fundamentals: testFundamentals("AAPL"),
		info:         &models.StockInfo{Symbol: "AAPL", Name: "Apple Inc.", Sector: "Technology"},
	}
	histProvider := &mockHistoryProvider{bars: testBars("AAPL", 250)}
	repo := newMockRepo()

	a := newTestAnalyzer(
		[]NamedProvider{{Name: "yahoo", Provider: provider}},
		[]NamedHistoryProvider{{Name: "yahoo", Provider: histProvider}},
		nil, repo)

	result, err := a.Analyze(context.Background(), "aapl")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if result.Symbol != "AAPL" {
		t.Errorf("expected normalized symbol AAPL, got %s", result.Symbol)
	}
	if len(result.Estimates) != 5 {
		t.Errorf("expected 5 estimates, got %d", len(result.Estimates))
	}
	if result.Blended.ModelCount == 0 {
		t.Error("expected at least one applicable valuation model")
	}
	if result.Recommendation == nil {
		t.Fatal("expected a recommendation")
	}
	if result.Technicals == nil {
		t.Error("expected technicals with 250 bars of history")
	}
	if result.Risk == nil {
		t.Error("expected risk metrics with history")
	}
	if result.Info.Name != "Apple Inc." {
		t.Errorf("expected info to round through, got %+v", result.Info)
	}

	if len(repo.analyses) != 1 {
		t.Errorf("expected 1 persisted analysis, got %d", len(repo.analyses))
	}
	if len(repo.recommendations) != 1 {
		t.Errorf("expected 1 persisted recommendation, got %d", len(repo.recommendations))
	}

	completed := 0
	for _, run := range repo.runs {
		if run.Status == models.AnalysisRunStatusCompleted {
			completed++
		}
	}
	if completed != 1 {
		t.Errorf("expected 1 completed run, got %d", completed)
	}
}

func TestAnalyze_InvalidSymbol(t *testing.T) {
	a := newTestAnalyzer(nil, nil, nil, nil)

	_, err := a.Analyze(context.Background(), "   ")
	if !errors.Is(err, ErrInvalidSymbol) {
		t.Errorf("expected ErrInvalidSymbol, got %v", err)
	}
}

func TestAnalyze_ProviderFallback(t *testing.T) {
	primary := &mockMarketProvider{err: errors.New("rate limited")}
	secondary := &mockMarketProvider{fundamentals: testFundamentals("KO")}

	a := newTestAnalyzer(
		[]NamedProvider{
			{Name: "yahoo", Provider: primary},
			{Name: "alphavantage", Provider: secondary},
		},
		nil, nil, nil)

	result, err := a.Analyze(context.Background(), "KO")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if primary.calls != 1 {
		t.Errorf("expected primary to be tried once, got %d", primary.calls)
	}
	if secondary.calls != 1 {
		t.Errorf("expected fallback to secondary, got %d calls", secondary.calls)
	}
	if result.Recommendation == nil {
		t.Error("expected recommendation from fallback data")
	}
}

func TestAnalyze_AllProvidersFail(t *testing.T) {
	provider := &mockMarketProvider{err: errors.New("connection refused")}
	repo := newMockRepo()

	a := newTestAnalyzer(
		[]NamedProvider{{Name: "yahoo", Provider: provider}},
		nil, nil, repo)

	_, err := a.Analyze(context.Background(), "MSFT")
	if !errors.Is(err, ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}

	failed := 0
	for _, run := range repo.runs {
		if run.Status == models.AnalysisRunStatusFailed {
			failed++
			if run.Error == "" {
				t.Error("failed run should record the error")
			}
		}
	}
	if failed != 1 {
		t.Errorf("expected 1 failed run, got %d", failed)
	}
}

func TestAnalyze_NoHistoryDegradesGracefully(t *testing.T) {
	provider := &mockMarketProvider{fundamentals: testFundamentals("NVDA")}
	histProvider := &mockHistoryProvider{err: errors.New("history unavailable")}

	a := newTestAnalyzer(
		[]NamedProvider{{Name: "yahoo", Provider: provider}},
		[]NamedHistoryProvider{{Name: "yahoo", Provider: histProvider}},
		nil, nil)

	result, err := a.Analyze(context.Background(), "NVDA")
	if err != nil {
		t.Fatalf("Analyze should succeed without history: %v", err)
	}

	if result.Technicals != nil {
		t.Error("expected nil technicals without history")
	}
	if result.Risk != nil {
		t.Error("expected nil risk metrics without history")
	}
	if result.Recommendation == nil {
		t.Error("expected recommendation even without history")
	}
}

func TestAnalyze_InsufficientHistory(t *testing.T) {
	provider := &mockMarketProvider{fundamentals: testFundamentals("IPO")}
	histProvider := &mockHistoryProvider{bars: testBars("IPO", 5)}

	a := newTestAnalyzer(
		[]NamedProvider{{Name: "yahoo", Provider: provider}},
		[]NamedHistoryProvider{{Name: "yahoo", Provider: histProvider}},
		nil, nil)

	result, err := a.Analyze(context.Background(), "IPO")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if result.Technicals != nil {
		t.Error("expected nil technicals with only 5 bars")
	}
}

func TestAnalyze_HistoryProviderFallback(t *testing.T) {
	provider := &mockMarketProvider{fundamentals: testFundamentals("JNJ")}
	primary := &mockHistoryProvider{err: errors.New("timeout")}
	secondary := &mockHistoryProvider{bars: testBars("JNJ", 250)}

	a := newTestAnalyzer(
		[]NamedProvider{{Name: "yahoo", Provider: provider}},
		[]NamedHistoryProvider{
			{Name: "yahoo", Provider: primary},
			{Name: "alpaca", Provider: secondary},
		},
		nil, nil)

	result, err := a.Analyze(context.Background(), "JNJ")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if primary.calls != 1 || secondary.calls != 1 {
		t.Errorf("expected both history providers tried, got %d and %d", primary.calls, secondary.calls)
	}
	if result.Technicals == nil {
		t.Error("expected technicals from fallback history")
	}
}

func TestAnalyze_PersistFailureDoesNotFailAnalysis(t *testing.T) {
	provider := &mockMarketProvider{fundamentals: testFundamentals("PG")}
	repo := newMockRepo()
	repo.saveErr = errors.New("disk full")

	a := newTestAnalyzer(
		[]NamedProvider{{Name: "yahoo", Provider: provider}},
		nil, nil, repo)

	result, err := a.Analyze(context.Background(), "PG")
	if err != nil {
		t.Fatalf("Analyze should not fail on persistence error: %v", err)
	}
	if result.Recommendation == nil {
		t.Error("expected recommendation despite persistence failure")
	}
}

func TestAnalyze_NilRepo(t *testing.T) {
	provider := &mockMarketProvider{fundamentals: testFundamentals("V")}

	a := newTestAnalyzer(
		[]NamedProvider{{Name: "yahoo", Provider: provider}},
		nil, nil, nil)

	result, err := a.Analyze(context.Background(), "V")
	if err != nil {
		t.Fatalf("Analyze without repo failed: %v", err)
	}
	if result == nil {
		t.Fatal("expected result without repo")
	}
}

type mockCache struct {
	data     map[string]map[string]interface{}
	getCalls int
	setCalls int
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string]map[string]interface{})}
}

func (m *mockCache) GetCachedData(ctx context.Context, symbol, dataType string) (map[string]interface{}, error) {
	m.getCalls++
	return m.data[symbol+"/"+dataType], nil
}

func (m *mockCache) SetCachedData(ctx context.Context, symbol, dataType string, data map[string]interface{}, ttl time.Duration) error {
	m.setCalls++
	m.data[symbol+"/"+dataType] = data
	return nil
}

func TestAnalyze_CachesFundamentals(t *testing.T) {
	provider := &mockMarketProvider{fundamentals: testFundamentals("AAPL")}
	cache := newMockCache()

	a := newTestAnalyzer(
		[]NamedProvider{{Name: "yahoo", Provider: provider}},
		nil, nil, nil)
	a.SetCache(cache)

	if _, err := a.Analyze(context.Background(), "AAPL"); err != nil {
		t.Fatalf("first analysis failed: %v", err)
	}
	if provider.calls != 1 {
		t.Fatalf("expected 1 provider call, got %d", provider.calls)
	}
	if cache.setCalls != 1 {
		t.Errorf("expected fundamentals to be cached, got %d writes", cache.setCalls)
	}

	result, err := a.Analyze(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("second analysis failed: %v", err)
	}
	if provider.calls != 1 {
		t.Errorf("expected cache hit to skip the provider, got %d calls", provider.calls)
	}
	if result.Fundamentals.Price != 100 {
		t.Errorf("expected cached price 100, got %v", result.Fundamentals.Price)
	}
}

func TestAnalyze_CacheMissFallsThrough(t *testing.T) {
	provider := &mockMarketProvider{fundamentals: testFundamentals("MSFT")}
	cache := newMockCache()

	a := newTestAnalyzer(
		[]NamedProvider{{Name: "yahoo", Provider: provider}},
		nil, nil, nil)
	a.SetCache(cache)

	if _, err := a.Analyze(context.Background(), "MSFT"); err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if provider.calls != 1 {
		t.Errorf("expected provider to be called on cache miss, got %d", provider.calls)
	}
	if cache.getCalls != 1 {
		t.Errorf("expected one cache lookup, got %d", cache.getCalls)
	}
}
