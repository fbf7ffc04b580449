package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote represents the latest quote data for a stock
type Quote struct {
	Symbol    string          `json:"symbol"`
	Bid       decimal.Decimal `json:"bid"`
	Ask       decimal.Decimal `json:"ask"`
	Last      decimal.Decimal `json:"last"`
	Volume    int64           `json:"volume"`
	Timestamp time.Time       `json:"timestamp"`
}

// Bar represents OHLCV price data for one trading day
type Bar struct {
	Symbol    string          `json:"symbol"`
	Timestamp time.Time       `json:"timestamp"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    int64           `json:"volume"`
}

// ClosePrices extracts the close series as float64 for indicator math.
func ClosePrices(bars []Bar) []float64 {
	prices := make([]float64, len(bars))
	for i, bar := range bars {
		prices[i], _ = bar.Close.Float64()
	}
	return prices
}

// TechnicalIndicators holds computed technical analysis indicators
type TechnicalIndicators struct {
	Symbol         string  `json:"symbol"`
	RSI            float64 `json:"rsi"`
	SMA20          float64 `json:"sma_20"`
	SMA50          float64 `json:"sma_50"`
	SMA200         float64 `json:"sma_200"`
	BollingerUpper float64 `json:"bollinger_upper"`
	BollingerMid   float64 `json:"bollinger_mid"`
	BollingerLower float64 `json:"bollinger_lower"`
	Volatility     float64 `json:"volatility"` // annualized
	PriceVsSMA20   float64 `json:"price_vs_sma_20"`
	PriceVsSMA50   float64 `json:"price_vs_sma_50"`
	PriceVsSMA200  float64 `json:"price_vs_sma_200"`
	BarCount       int     `json:"bar_count"`
}

// RiskMetrics holds downside risk statistics computed from price history
type RiskMetrics struct {
	Symbol            string  `json:"symbol"`
	MaxDrawdown       float64 `json:"max_drawdown"`
	VaR95             float64 `json:"var_95"`
	VaR99             float64 `json:"var_99"`
	SharpeRatio       float64 `json:"sharpe_ratio"`
	SortinoRatio      float64 `json:"sortino_ratio"`
	DownsideDeviation float64 `json:"downside_deviation"`
	AnnualizedReturn  float64 `json:"annualized_return"`
}
