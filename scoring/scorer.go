package scoring

import (
	"fmt"
	"math"

	"stock-insight/models"
)

// Config holds the scoring weights and category thresholds. The
// values are fixed and documented here rather than tuned: valuation
// upside carries half the score, technical signals 30%, and
// fundamental quality the remaining 20%.
type Config struct {
	WeightValuation float64
	WeightTechnical float64
	WeightQuality   float64

	// Category thresholds on the final -100..100 score. Must be
	// strictly decreasing so categories are monotonic in score.
	StrongBuyThreshold  float64
	BuyThreshold        float64
	SellThreshold       float64
	StrongSellThreshold float64

	// Confidence handling when too few valuation models applied.
	LowModelConfidenceCap float64
	FloorConfidence       float64
}

// DefaultConfig returns the documented weights and thresholds.
func DefaultConfig() Config {
	return Config{
		WeightValuation:       0.5,
		WeightTechnical:       0.3,
		WeightQuality:         0.2,
		StrongBuyThreshold:    50,
		BuyThreshold:          20,
		SellThreshold:         -20,
		StrongSellThreshold:   -50,
		LowModelConfidenceCap: 35,
		FloorConfidence:       10,
	}
}

// Validate checks weights sum to 1 and thresholds are ordered.
func (c Config) Validate() error {
	sum := c.WeightValuation + c.WeightTechnical + c.WeightQuality
	if sum < 0.99 || sum > 1.01 {
		return fmt.Errorf("scoring weights must sum to 1.0, got %.2f", sum)
	}
	if !(c.StrongBuyThreshold > c.BuyThreshold &&
		c.BuyThreshold > c.SellThreshold &&
		c.SellThreshold > c.StrongSellThreshold) {
		return fmt.Errorf("category thresholds must be strictly decreasing")
	}
	return nil
}

// Input bundles everything the scorer reads. Technicals may be nil
// when price history was unavailable.
type Input struct {
	Fundamentals models.StockFundamentals
	Blended      models.BlendedValuation
	Technicals   *models.TechnicalIndicators
}

// Scorer turns a blended valuation and indicator set into a
// recommendation. It is stateless; Score is a pure function of its
// input apart from the identity stamp on the result.
type Scorer struct {
	cfg Config
}

// NewScorer creates a Scorer with the given configuration.
func NewScorer(cfg Config) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score produces the final recommendation. A result is always
// produced: when no valuation model was applicable the recommendation
// is emitted at floor confidence with an explicit reason rather than
// withheld.
func (s *Scorer) Score(in Input) *models.Recommendation {
	var factors []models.Factor

	valuationScore := s.valuationScore(in, &factors)
	qualityScore := s.qualityScore(in.Fundamentals, &factors)
	technicalScore, techFactors := s.technicalScore(in, &factors)

	finalScore := valuationScore*s.cfg.WeightValuation +
		technicalScore*s.cfg.WeightTechnical +
		qualityScore*s.cfg.WeightQuality
	finalScore = clamp(finalScore, -100, 100)

	category := s.categorize(finalScore)

	rec := models.NewRecommendation(in.Fundamentals.Symbol, category, finalScore)
	rec.Factors = factors
	rec.Confidence = s.confidence(in, finalScore, techFactors)

	switch {
	case in.Blended.ModelCount == 0:
		rec.Confidence = s.cfg.FloorConfidence
		rec.LowConfidence = true
		rec.Reason = "no valuation models applicable"
	case in.Blended.ModelCount < 2:
		if rec.Confidence > s.cfg.LowModelConfidenceCap {
			rec.Confidence = s.cfg.LowModelConfidenceCap
		}
		rec.LowConfidence = true
		rec.Reason = fmt.Sprintf("only %d valuation model applicable", in.Blended.ModelCount)
	}

	return rec
}

// valuationScore maps fractional upside onto -100..100 with a 4x
// multiplier, so ±25% upside saturates the component.
func (s *Scorer) valuationScore(in Input, factors *[]models.Factor) float64 {
	if in.Blended.ModelCount == 0 {
		return 0
	}

	upsidePct := in.Blended.Upside(in.Fundamentals.Price) * 100
	score := clamp(upsidePct*4, -100, 100)

	switch {
	case upsidePct > 20:
		*factors = append(*factors, models.Factor{
			Description: fmt.Sprintf("strong upside potential: %.1f%%", upsidePct),
			Sign:        1, Weight: s.cfg.WeightValuation,
		})
	case upsidePct > 10:
		*factors = append(*factors, models.Factor{
			Description: fmt.Sprintf("moderate upside potential: %.1f%%", upsidePct),
			Sign:        1, Weight: s.cfg.WeightValuation,
		})
	case upsidePct < -20:
		*factors = append(*factors, models.Factor{
			Description: fmt.Sprintf("significant downside risk: %.1f%%", upsidePct),
			Sign:        -1, Weight: s.cfg.WeightValuation,
		})
	case upsidePct < -10:
		*factors = append(*factors, models.Factor{
			Description: fmt.Sprintf("moderate downside risk: %.1f%%", upsidePct),
			Sign:        -1, Weight: s.cfg.WeightValuation,
		})
	}

	return score
}

// qualityScore rates fundamental health: earnings multiple,
// profitability, and leverage.
func (s *Scorer) qualityScore(f models.StockFundamentals, factors *[]models.Factor) float64 {
	var score float64

	if f.PERatio >= 10 && f.PERatio <= 25 {
		score += 30
		*factors = append(*factors, models.Factor{
			Description: fmt.Sprintf("reasonable P/E ratio: %.1f", f.PERatio),
			Sign:        1, Weight: s.cfg.WeightQuality,
		})
	} else if f.PERatio > 30 {
		score -= 30
		*factors = append(*factors, models.Factor{
			Description: fmt.Sprintf("high P/E ratio: %.1f", f.PERatio),
			Sign:        -1, Weight: s.cfg.WeightQuality,
		})
	}

	if f.ReturnOnEquity > 0.15 {
		score += 30
		*factors = append(*factors, models.Factor{
			Description: fmt.Sprintf("strong return on equity: %.1f%%", f.ReturnOnEquity*100),
			Sign:        1, Weight: s.cfg.WeightQuality,
		})
	} else if f.ReturnOnEquity > 0 && f.ReturnOnEquity < 0.05 {
		score -= 30
		*factors = append(*factors, models.Factor{
			Description: fmt.Sprintf("weak return on equity: %.1f%%", f.ReturnOnEquity*100),
			Sign:        -1, Weight: s.cfg.WeightQuality,
		})
	}

	if f.DebtToEquity > 0 && f.DebtToEquity < 0.5 {
		score += 20
		*factors = append(*factors, models.Factor{
			Description: fmt.Sprintf("low leverage: %.2f debt/equity", f.DebtToEquity),
			Sign:        1, Weight: s.cfg.WeightQuality,
		})
	} else if f.DebtToEquity > 1.0 {
		score -= 20
		*factors = append(*factors, models.Factor{
			Description: fmt.Sprintf("high leverage: %.2f debt/equity", f.DebtToEquity),
			Sign:        -1, Weight: s.cfg.WeightQuality,
		})
	}

	return clamp(score, -100, 100)
}

// technicalScore rates trend and momentum signals. Returns the score
// and the technical factors separately so confidence can measure
// their consistency.
func (s *Scorer) technicalScore(in Input, factors *[]models.Factor) (float64, []models.Factor) {
	if in.Technicals == nil {
		return 0, nil
	}

	var score float64
	var tech []models.Factor
	ind := in.Technicals

	if ind.SMA200 > 0 {
		if ind.PriceVsSMA200 > 0 {
			score += 25
			tech = append(tech, models.Factor{
				Description: "price above 200-day average",
				Sign:        1, Weight: s.cfg.WeightTechnical,
			})
		} else {
			score -= 25
			tech = append(tech, models.Factor{
				Description: "price below 200-day average",
				Sign:        -1, Weight: s.cfg.WeightTechnical,
			})
		}
	}

	if ind.SMA50 > 0 {
		if ind.PriceVsSMA50 > 0 {
			score += 15
			tech = append(tech, models.Factor{
				Description: "price above 50-day average",
				Sign:        1, Weight: s.cfg.WeightTechnical,
			})
		} else {
			score -= 15
			tech = append(tech, models.Factor{
				Description: "price below 50-day average",
				Sign:        -1, Weight: s.cfg.WeightTechnical,
			})
		}
	}

	if ind.RSI < 30 {
		score += 30
		tech = append(tech, models.Factor{
			Description: fmt.Sprintf("oversold: RSI %.0f", ind.RSI),
			Sign:        1, Weight: s.cfg.WeightTechnical,
		})
	} else if ind.RSI > 70 {
		score -= 30
		tech = append(tech, models.Factor{
			Description: fmt.Sprintf("overbought: RSI %.0f", ind.RSI),
			Sign:        -1, Weight: s.cfg.WeightTechnical,
		})
	}

	if ind.Volatility > 0.60 {
		score -= 20
		tech = append(tech, models.Factor{
			Description: fmt.Sprintf("elevated volatility: %.0f%% annualized", ind.Volatility*100),
			Sign:        -1, Weight: s.cfg.WeightTechnical,
		})
	}

	*factors = append(*factors, tech...)
	return clamp(score, -100, 100), tech
}

// confidence combines model agreement (60%) with technical signal
// consistency (40%).
func (s *Scorer) confidence(in Input, finalScore float64, techFactors []models.Factor) float64 {
	agreement := 1 - clamp(in.Blended.SpreadPct, 0, 1)

	consistency := 0.5
	if len(techFactors) > 0 && finalScore != 0 {
		scoreSign := 1
		if finalScore < 0 {
			scoreSign = -1
		}
		agreeing := 0
		for _, f := range techFactors {
			if f.Sign == scoreSign {
				agreeing++
			}
		}
		consistency = float64(agreeing) / float64(len(techFactors))
	}

	return math.Round((0.6*agreement + 0.4*consistency) * 100)
}

// categorize maps the final score onto a discrete category. The
// mapping is monotonic: a higher score never yields a lower category.
func (s *Scorer) categorize(score float64) models.RecommendationCategory {
	switch {
	case score >= s.cfg.StrongBuyThreshold:
		return models.CategoryStrongBuy
	case score >= s.cfg.BuyThreshold:
		return models.CategoryBuy
	case score > s.cfg.SellThreshold:
		return models.CategoryHold
	case score > s.cfg.StrongSellThreshold:
		return models.CategorySell
	default:
		return models.CategoryStrongSell
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
