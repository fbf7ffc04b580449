package technical

import (
	"math"

	"stock-insight/models"
)

// MinBars is the history needed for the 200-day average; with fewer
// bars the longer averages are reported as zero.
const MinBars = 20

// Compute derives the standard indicator set from daily close prices.
// Returns nil when there is not enough history to say anything useful.
func Compute(symbol string, prices []float64) *models.TechnicalIndicators {
	if len(prices) < MinBars {
		return nil
	}

	current := prices[len(prices)-1]
	ind := &models.TechnicalIndicators{
		Symbol:     symbol,
		RSI:        RSI(prices, 14),
		SMA20:      SMA(prices, 20),
		SMA50:      SMA(prices, 50),
		SMA200:     SMA(prices, 200),
		Volatility: AnnualizedVolatility(prices),
		BarCount:   len(prices),
	}

	mid, upper, lower := BollingerBands(prices, 20, 2)
	ind.BollingerMid = mid
	ind.BollingerUpper = upper
	ind.BollingerLower = lower

	if ind.SMA20 > 0 {
		ind.PriceVsSMA20 = (current/ind.SMA20 - 1) * 100
	}
	if ind.SMA50 > 0 {
		ind.PriceVsSMA50 = (current/ind.SMA50 - 1) * 100
	}
	if ind.SMA200 > 0 {
		ind.PriceVsSMA200 = (current/ind.SMA200 - 1) * 100
	}

	return ind
}

// SMA computes the simple moving average over the trailing period.
// Returns 0 when there is insufficient history.
func SMA(prices []float64, period int) float64 {
	if len(prices) < period || period <= 0 {
		return 0
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period)
}

// RSI computes the Relative Strength Index over the trailing period.
// Returns the neutral 50 when history is too short.
func RSI(prices []float64, period int) float64 {
	if len(prices) < period+1 {
		return 50.0
	}

	var gains, losses float64
	for i := 1; i <= period; i++ {
		change := prices[len(prices)-i] - prices[len(prices)-i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	if avgLoss == 0 {
		return 100.0
	}

	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// BollingerBands computes the middle band (SMA) and the bands at
// stdDevs standard deviations over the trailing period.
func BollingerBands(prices []float64, period int, stdDevs float64) (mid, upper, lower float64) {
	if len(prices) < period || period <= 0 {
		return 0, 0, 0
	}

	mid = SMA(prices, period)

	var variance float64
	for i := len(prices) - period; i < len(prices); i++ {
		diff := prices[i] - mid
		variance += diff * diff
	}
	sd := math.Sqrt(variance / float64(period))

	return mid, mid + stdDevs*sd, mid - stdDevs*sd
}

// AnnualizedVolatility computes the standard deviation of daily
// returns scaled by sqrt(252 trading days).
func AnnualizedVolatility(prices []float64) float64 {
	returns := DailyReturns(prices)
	if len(returns) < 2 {
		return 0
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		diff := r - mean
		variance += diff * diff
	}
	variance /= float64(len(returns) - 1)

	return math.Sqrt(variance) * math.Sqrt(252)
}

// DailyReturns converts a close series into fractional day-over-day returns.
func DailyReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] == 0 {
			continue
		}
		returns = append(returns, prices[i]/prices[i-1]-1)
	}
	return returns
}
