package risk

import (
	"math"
	"sort"

	"stock-insight/models"
	"stock-insight/technical"
)

const tradingDays = 252

// Compute derives downside risk statistics from daily close prices.
// riskFreeRate is annualized. Returns nil when history is too short
// for the return series to be meaningful.
func Compute(symbol string, prices []float64, riskFreeRate float64) *models.RiskMetrics {
	returns := technical.DailyReturns(prices)
	if len(returns) < 20 {
		return nil
	}

	meanDaily := mean(returns)
	annualizedReturn := meanDaily * tradingDays
	vol := technical.AnnualizedVolatility(prices)
	downside := downsideDeviation(returns)

	m := &models.RiskMetrics{
		Symbol:            symbol,
		MaxDrawdown:       MaxDrawdown(prices),
		VaR95:             ValueAtRisk(returns, 0.95),
		VaR99:             ValueAtRisk(returns, 0.99),
		DownsideDeviation: downside,
		AnnualizedReturn:  annualizedReturn,
	}

	excess := annualizedReturn - riskFreeRate
	if vol > 0 {
		m.SharpeRatio = excess / vol
	}
	if downside > 0 {
		m.SortinoRatio = excess / downside
	}

	return m
}

// MaxDrawdown returns the largest peak-to-trough decline as a
// negative fraction, e.g. -0.35 for a 35% drawdown.
func MaxDrawdown(prices []float64) float64 {
	if len(prices) == 0 {
		return 0
	}

	peak := prices[0]
	maxDD := 0.0
	for _, p := range prices {
		if p > peak {
			peak = p
		}
		if peak > 0 {
			dd := p/peak - 1
			if dd < maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// ValueAtRisk returns the historical one-day VaR at the given
// confidence level as a negative fraction: the daily return that was
// only exceeded on the worst (1-confidence) of days.
func ValueAtRisk(returns []float64, confidence float64) float64 {
	if len(returns) == 0 || confidence <= 0 || confidence >= 1 {
		return 0
	}

	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	idx := int(float64(len(sorted)) * (1 - confidence))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// downsideDeviation is the annualized standard deviation of negative
// daily returns only.
func downsideDeviation(returns []float64) float64 {
	var sumSq float64
	var n int
	for _, r := range returns {
		if r < 0 {
			sumSq += r * r
			n++
		}
	}
	if n < 2 {
		return 0
	}
	return math.Sqrt(sumSq/float64(n)) * math.Sqrt(tradingDays)
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
