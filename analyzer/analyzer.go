package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"stock-insight/config"
	"stock-insight/models"
	"stock-insight/observability"
	"stock-insight/risk"
	"stock-insight/scoring"
	"stock-insight/services"
	"stock-insight/technical"
	"stock-insight/valuation"

	"github.com/google/uuid"
)

// ErrInvalidSymbol is returned for empty or malformed ticker symbols
var ErrInvalidSymbol = errors.New("invalid symbol")

// ErrDataUnavailable is returned when every market data provider
// failed to produce fundamentals. No partial result is produced.
var ErrDataUnavailable = errors.New("market data unavailable")

// Repository is the persistence surface the analyzer needs. May be
// backed by the full repository or left nil for stateless operation.
type Repository interface {
	SaveAnalysis(ctx context.Context, result *models.AnalysisResult) error
	CreateRecommendation(ctx context.Context, rec *models.Recommendation) error
	CreateAnalysisRun(ctx context.Context, run *models.AnalysisRun) error
	UpdateAnalysisRun(ctx context.Context, run *models.AnalysisRun) error
}

// Cache is an optional market data cache keyed by symbol and data
// type. Backed by the repository's cache table when persistence is
// configured.
type Cache interface {
	GetCachedData(ctx context.Context, symbol, dataType string) (map[string]interface{}, error)
	SetCachedData(ctx context.Context, symbol, dataType string, data map[string]interface{}, ttl time.Duration) error
}

// fundamentalsCacheTTL bounds staleness of cached fundamentals.
const fundamentalsCacheTTL = 15 * time.Minute

// NamedProvider pairs a market data provider with its service name for
// logging and fallback reporting.
type NamedProvider struct {
	Name     string
	Provider services.MarketDataProvider
}

// NamedHistoryProvider pairs a history provider with its service name
type NamedHistoryProvider struct {
	Name     string
	Provider services.HistoryProvider
}

// Analyzer orchestrates one analysis: fetch, value, score, comment,
// persist. Providers are tried in order; the first success wins.
type Analyzer struct {
	cfg        *config.Config
	engine     *valuation.Engine
	scorer     *scoring.Scorer
	market     []NamedProvider
	history    []NamedHistoryProvider
	commentors []Commentor
	repo       Repository
	cache      Cache
}

// SetCache attaches a market data cache. Without one, every analysis
// hits the providers directly.
func (a *Analyzer) SetCache(cache Cache) {
	a.cache = cache
}

// New creates an Analyzer. repo may be nil; results are then returned
// but not persisted.
func New(cfg *config.Config, market []NamedProvider, history []NamedHistoryProvider, commentors []Commentor, repo Repository) *Analyzer {
	engine := valuation.NewEngine(valuation.Config{
		RiskFreeRate:       cfg.Valuation.RiskFreeRate,
		MarketRiskPremium:  cfg.Valuation.MarketRiskPremium,
		TerminalGrowthRate: cfg.Valuation.TerminalGrowthRate,
		ProjectionYears:    cfg.Valuation.ProjectionYears,
		MaxGrowthRate:      cfg.Valuation.MaxGrowthRate,
		IndustryPE:         cfg.Valuation.IndustryPE,
		IndustryPB:         cfg.Valuation.IndustryPB,
		BenchmarkROE:       cfg.Valuation.BenchmarkROE,
	})

	scorerCfg := scoring.DefaultConfig()
	scorerCfg.WeightValuation = cfg.Scoring.WeightValuation
	scorerCfg.WeightTechnical = cfg.Scoring.WeightTechnical
	scorerCfg.WeightQuality = cfg.Scoring.WeightQuality

	return &Analyzer{
		cfg:        cfg,
		engine:     engine,
		scorer:     scoring.NewScorer(scorerCfg),
		market:     market,
		history:    history,
		commentors: commentors,
		repo:       repo,
	}
}

// Analyze runs the full pipeline for one symbol. A missing price
// history degrades the result (no technicals, no risk metrics) rather
// than failing the analysis; missing fundamentals are fatal.
func (a *Analyzer) Analyze(ctx context.Context, symbol string) (*models.AnalysisResult, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, ErrInvalidSymbol
	}

	metrics := observability.GetMetrics()
	metrics.RecordAnalysisRequest(symbol)
	timer := metrics.NewTimer()
	status := "error"
	defer func() {
		timer.ObserveAnalysis(symbol, status)
	}()

	ctx, cancel := context.WithTimeout(ctx, time.Duration(a.cfg.Analysis.TimeoutSeconds)*time.Second)
	defer cancel()

	run := models.NewAnalysisRun(symbol)
	a.createRun(ctx, run)

	observability.Info("starting analysis", "symbol", symbol)

	info, fundamentals, err := a.fetchFundamentals(ctx, symbol)
	if err != nil {
		metrics.RecordAnalysisError(symbol, "market_data")
		err = fmt.Errorf("%w: %s: %v", ErrDataUnavailable, symbol, err)
		a.failRun(ctx, run, err)
		return nil, err
	}

	technicals, riskMetrics := a.computeHistoryMetrics(ctx, symbol)

	estimates := a.engine.Evaluate(*fundamentals)
	for _, est := range estimates {
		metrics.RecordValuationModel(string(est.Model), est.Applicable)
	}
	blended := valuation.Blend(estimates)
	metrics.RecordValuationUpside(symbol, blended.Upside(fundamentals.Price))

	rec := a.scorer.Score(scoring.Input{
		Fundamentals: *fundamentals,
		Blended:      blended,
		Technicals:   technicals,
	})
	metrics.RecordRecommendation(string(rec.Category), rec.Score, rec.Confidence)

	result := &models.AnalysisResult{
		ID:             uuid.New(),
		Symbol:         symbol,
		Info:           *info,
		Fundamentals:   *fundamentals,
		Estimates:      estimates,
		Blended:        blended,
		Technicals:     technicals,
		Risk:           riskMetrics,
		Recommendation: rec,
		CreatedAt:      time.Now().UTC(),
	}

	if a.cfg.Analysis.CommentaryEnabled && len(a.commentors) > 0 {
		result.Commentary = a.generateCommentary(ctx, result)
	}

	a.persist(ctx, result)
	run.Complete()
	a.updateRun(ctx, run)

	status = "success"
	observability.Info("analysis complete",
		"symbol", symbol,
		"category", string(rec.Category),
		"score", rec.Score,
		"confidence", rec.Confidence,
		"models_used", blended.ModelCount)

	return result, nil
}

// cachedFundamentals is the cache document for one symbol
type cachedFundamentals struct {
	Info         models.StockInfo         `json:"info"`
	Fundamentals models.StockFundamentals `json:"fundamentals"`
}

// fetchFundamentals checks the cache, then tries each market data
// provider in order
func (a *Analyzer) fetchFundamentals(ctx context.Context, symbol string) (*models.StockInfo, *models.StockFundamentals, error) {
	if info, fundamentals := a.cachedFundamentals(ctx, symbol); fundamentals != nil {
		return info, fundamentals, nil
	}

	var lastErr error
	for i, p := range a.market {
		fundamentals, err := p.Provider.GetFundamentals(ctx, symbol)
		if err != nil {
			observability.Warn("fundamentals fetch failed",
				"symbol", symbol, "provider", p.Name, "error", err)
			lastErr = err
			if i < len(a.market)-1 {
				observability.Info("falling back to next market data provider",
					"symbol", symbol, "from", p.Name, "to", a.market[i+1].Name)
			}
			continue
		}

		info, err := p.Provider.GetInfo(ctx, symbol)
		if err != nil {
			// Fundamentals are the hard requirement; descriptive info is not
			observability.Warn("info fetch failed, using minimal info",
				"symbol", symbol, "provider", p.Name, "error", err)
			info = &models.StockInfo{Symbol: symbol, Sector: fundamentals.Sector}
		}

		a.storeFundamentals(ctx, symbol, info, fundamentals)
		return info, fundamentals, nil
	}

	if lastErr == nil {
		lastErr = errors.New("no market data providers configured")
	}
	return nil, nil, lastErr
}

// cachedFundamentals returns a cache hit, or nils on miss or decode failure
func (a *Analyzer) cachedFundamentals(ctx context.Context, symbol string) (*models.StockInfo, *models.StockFundamentals) {
	if a.cache == nil {
		return nil, nil
	}

	data, err := a.cache.GetCachedData(ctx, symbol, "fundamentals")
	if err != nil || data == nil {
		return nil, nil
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return nil, nil
	}
	var cached cachedFundamentals
	if err := json.Unmarshal(raw, &cached); err != nil || cached.Fundamentals.Price <= 0 {
		return nil, nil
	}

	observability.Info("using cached fundamentals", "symbol", symbol)
	return &cached.Info, &cached.Fundamentals
}

// storeFundamentals writes a fresh fetch to the cache, best effort
func (a *Analyzer) storeFundamentals(ctx context.Context, symbol string, info *models.StockInfo, fundamentals *models.StockFundamentals) {
	if a.cache == nil {
		return
	}

	raw, err := json.Marshal(cachedFundamentals{Info: *info, Fundamentals: *fundamentals})
	if err != nil {
		return
	}
	var data map[string]interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return
	}

	if err := a.cache.SetCachedData(ctx, symbol, "fundamentals", data, fundamentalsCacheTTL); err != nil {
		observability.Warn("failed to cache fundamentals", "symbol", symbol, "error", err)
	}
}

// computeHistoryMetrics fetches price history and derives technical
// indicators and risk metrics. Any failure degrades to nil values.
func (a *Analyzer) computeHistoryMetrics(ctx context.Context, symbol string) (*models.TechnicalIndicators, *models.RiskMetrics) {
	bars, err := a.fetchHistory(ctx, symbol)
	if err != nil {
		observability.Warn("price history unavailable, skipping technicals",
			"symbol", symbol, "error", err)
		return nil, nil
	}
	if len(bars) < technical.MinBars {
		observability.Warn("insufficient price history for technicals",
			"symbol", symbol, "bars", len(bars), "required", technical.MinBars)
		return nil, nil
	}

	prices := models.ClosePrices(bars)
	technicals := technical.Compute(symbol, prices)
	riskMetrics := risk.Compute(symbol, prices, a.engine.Config().RiskFreeRate)
	return technicals, riskMetrics
}

// fetchHistory tries each history provider in order
func (a *Analyzer) fetchHistory(ctx context.Context, symbol string) ([]models.Bar, error) {
	var lastErr error
	for i, p := range a.history {
		bars, err := p.Provider.GetDailyHistory(ctx, symbol, a.cfg.Analysis.LookbackDays)
		if err != nil {
			observability.Warn("history fetch failed",
				"symbol", symbol, "provider", p.Name, "error", err)
			lastErr = err
			if i < len(a.history)-1 {
				observability.Info("falling back to next history provider",
					"symbol", symbol, "from", p.Name, "to", a.history[i+1].Name)
			}
			continue
		}
		return bars, nil
	}

	if lastErr == nil {
		lastErr = errors.New("no history providers configured")
	}
	return nil, lastErr
}

// persist saves the analysis and its recommendation, logging rather
// than failing when no database is available.
func (a *Analyzer) persist(ctx context.Context, result *models.AnalysisResult) {
	if a.repo == nil {
		return
	}

	if err := a.repo.SaveAnalysis(ctx, result); err != nil {
		observability.Error("failed to persist analysis", "symbol", result.Symbol, "error", err)
		return
	}
	if result.Recommendation != nil {
		if err := a.repo.CreateRecommendation(ctx, result.Recommendation); err != nil {
			observability.Error("failed to persist recommendation", "symbol", result.Symbol, "error", err)
		}
	}
}

func (a *Analyzer) createRun(ctx context.Context, run *models.AnalysisRun) {
	if a.repo == nil {
		return
	}
	if err := a.repo.CreateAnalysisRun(ctx, run); err != nil {
		observability.Warn("failed to record analysis run", "symbol", run.Symbol, "error", err)
	}
}

func (a *Analyzer) failRun(ctx context.Context, run *models.AnalysisRun, cause error) {
	run.Fail(cause)
	a.updateRun(ctx, run)
}

func (a *Analyzer) updateRun(ctx context.Context, run *models.AnalysisRun) {
	if a.repo == nil {
		return
	}
	if err := a.repo.UpdateAnalysisRun(ctx, run); err != nil {
		observability.Warn("failed to update analysis run", "symbol", run.Symbol, "error", err)
	}
}
