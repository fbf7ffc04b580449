package valuation

import (
	"fmt"
	"math"

	"stock-insight/models"
)

// Config holds the rate assumptions shared by all models. It is passed
// in explicitly per analysis; the engine keeps no state of its own.
type Config struct {
	RiskFreeRate       float64
	MarketRiskPremium  float64
	TerminalGrowthRate float64
	ProjectionYears    int
	MaxGrowthRate      float64
	IndustryPE         float64
	IndustryPB         float64
	BenchmarkROE       float64
}

// DefaultConfig returns the standard assumptions: 4% risk-free rate,
// 6% market risk premium, 3% terminal growth, a 5-year projection
// horizon, and industry reference multiples of 20x earnings / 2x book.
func DefaultConfig() Config {
	return Config{
		RiskFreeRate:       0.04,
		MarketRiskPremium:  0.06,
		TerminalGrowthRate: 0.03,
		ProjectionYears:    5,
		MaxGrowthRate:      0.08,
		IndustryPE:         20.0,
		IndustryPB:         2.0,
		BenchmarkROE:       0.15,
	}
}

// Validate checks the configuration is internally consistent.
func (c Config) Validate() error {
	if c.ProjectionYears <= 0 {
		return fmt.Errorf("projection years must be positive, got %d", c.ProjectionYears)
	}
	if c.RiskFreeRate < 0 {
		return fmt.Errorf("risk-free rate must be non-negative, got %.4f", c.RiskFreeRate)
	}
	if c.MarketRiskPremium < 0 {
		return fmt.Errorf("market risk premium must be non-negative, got %.4f", c.MarketRiskPremium)
	}
	return nil
}

// DiscountRate derives the required return via CAPM:
// risk_free + beta x market_risk_premium. A missing or non-positive
// beta falls back to the market beta of 1.0.
func (c Config) DiscountRate(beta float64) float64 {
	if beta <= 0 {
		beta = 1.0
	}
	return c.RiskFreeRate + beta*c.MarketRiskPremium
}

// Engine computes fair-value estimates from a fundamentals snapshot.
// Every method is a pure function of its inputs: identical snapshot
// and config always produce identical output.
type Engine struct {
	cfg Config
}

// NewEngine creates an Engine with the given assumptions.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Config returns the assumptions the engine was built with.
func (e *Engine) Config() Config {
	return e.cfg
}

// Evaluate runs all five models against the snapshot. Models whose
// preconditions fail are returned with Applicable=false and a reason;
// an invalid assumption skips only the affected model.
func (e *Engine) Evaluate(f models.StockFundamentals) []models.ValuationEstimate {
	return []models.ValuationEstimate{
		e.DCF(f),
		e.PE(f),
		e.DDM(f),
		e.PB(f),
		e.Graham(f),
	}
}

// DCF projects free cash flow per share forward, discounts each year
// at the CAPM rate, and adds a Gordon-growth terminal value. The
// terminal growth rate must be strictly below the discount rate.
func (e *Engine) DCF(f models.StockFundamentals) models.ValuationEstimate {
	discountRate := e.cfg.DiscountRate(f.Beta)
	growthRate := math.Min(f.GrowthRate, e.cfg.MaxGrowthRate)
	est := models.ValuationEstimate{
		Model: models.ValuationModelDCF,
		Assumptions: models.Assumptions{
			DiscountRate:       discountRate,
			GrowthRate:         growthRate,
			TerminalGrowthRate: e.cfg.TerminalGrowthRate,
			ProjectionYears:    e.cfg.ProjectionYears,
		},
	}

	if f.FCFPerShare <= 0 {
		est.Reason = "free cash flow per share is not positive"
		return est
	}
	if e.cfg.TerminalGrowthRate >= discountRate {
		est.Reason = (&InvalidAssumptionError{
			Model: models.ValuationModelDCF,
			Detail: fmt.Sprintf("terminal growth rate %.4f must be below discount rate %.4f",
				e.cfg.TerminalGrowthRate, discountRate),
		}).Error()
		return est
	}

	var pvCashFlows float64
	fcf := f.FCFPerShare
	for year := 1; year <= e.cfg.ProjectionYears; year++ {
		fcf *= 1 + growthRate
		pvCashFlows += fcf / math.Pow(1+discountRate, float64(year))
	}

	// fcf now holds the final projected year; grow once more for the perpetuity.
	terminalFCF := fcf * (1 + e.cfg.TerminalGrowthRate)
	terminalValue := terminalFCF / (discountRate - e.cfg.TerminalGrowthRate)
	pvTerminal := terminalValue / math.Pow(1+discountRate, float64(e.cfg.ProjectionYears))

	est.FairValue = pvCashFlows + pvTerminal
	est.Applicable = true
	return est
}

// PE values the stock at EPS times a growth-adjusted industry multiple.
func (e *Engine) PE(f models.StockFundamentals) models.ValuationEstimate {
	growthAdjustedPE := e.cfg.IndustryPE * (1 + math.Min(f.GrowthRate, e.cfg.MaxGrowthRate))
	est := models.ValuationEstimate{
		Model: models.ValuationModelPE,
		Assumptions: models.Assumptions{
			GrowthRate:        f.GrowthRate,
			ReferenceMultiple: growthAdjustedPE,
		},
	}

	if f.EPS <= 0 {
		est.Reason = "earnings per share is not positive"
		return est
	}

	est.FairValue = f.EPS * growthAdjustedPE
	est.Applicable = true
	return est
}

// DDM applies the Gordon growth model to next year's dividend.
// Requires a positive dividend and a discount rate above the dividend
// growth rate.
func (e *Engine) DDM(f models.StockFundamentals) models.ValuationEstimate {
	discountRate := e.cfg.DiscountRate(f.Beta)
	growthRate := math.Min(f.GrowthRate, e.cfg.MaxGrowthRate)
	est := models.ValuationEstimate{
		Model: models.ValuationModelDDM,
		Assumptions: models.Assumptions{
			DiscountRate: discountRate,
			GrowthRate:   growthRate,
		},
	}

	if f.DividendPerShare <= 0 {
		est.Reason = "no dividend paid"
		return est
	}
	if discountRate <= growthRate {
		est.Reason = (&InvalidAssumptionError{
			Model: models.ValuationModelDDM,
			Detail: fmt.Sprintf("discount rate %.4f must exceed dividend growth rate %.4f",
				discountRate, growthRate),
		}).Error()
		return est
	}

	nextDividend := f.DividendPerShare * (1 + growthRate)
	est.FairValue = nextDividend / (discountRate - growthRate)
	est.Applicable = true
	return est
}

// PB values the stock at book value times an ROE-scaled industry
// multiple: companies earning above the benchmark ROE deserve a
// richer book multiple.
func (e *Engine) PB(f models.StockFundamentals) models.ValuationEstimate {
	roe := f.ReturnOnEquity
	if roe <= 0 {
		roe = e.cfg.BenchmarkROE
	}
	multiple := e.cfg.IndustryPB * (roe / e.cfg.BenchmarkROE)
	est := models.ValuationEstimate{
		Model: models.ValuationModelPB,
		Assumptions: models.Assumptions{
			ReferenceMultiple: multiple,
		},
	}

	if f.BookValuePerShare <= 0 {
		est.Reason = "book value per share is not positive"
		return est
	}

	est.FairValue = f.BookValuePerShare * multiple
	est.Applicable = true
	return est
}

// Graham computes the classic Graham number sqrt(22.5 x EPS x BVPS),
// the price ceiling implied by a 15x earnings and 1.5x book screen.
func (e *Engine) Graham(f models.StockFundamentals) models.ValuationEstimate {
	est := models.ValuationEstimate{
		Model: models.ValuationModelGraham,
		Assumptions: models.Assumptions{
			ReferenceMultiple: 22.5,
		},
	}

	if f.EPS <= 0 {
		est.Reason = "earnings per share is not positive"
		return est
	}
	if f.BookValuePerShare <= 0 {
		est.Reason = "book value per share is not positive"
		return est
	}

	est.FairValue = math.Sqrt(22.5 * f.EPS * f.BookValuePerShare)
	est.Applicable = true
	return est
}
