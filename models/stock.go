package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockInfo holds descriptive information about a listed company.
type StockInfo struct {
	Symbol    string          `json:"symbol"`
	Name      string          `json:"name"`
	Sector    string          `json:"sector"`
	Industry  string          `json:"industry"`
	Exchange  string          `json:"exchange"`
	Currency  string          `json:"currency"`
	MarketCap decimal.Decimal `json:"market_cap"`
	Price     float64         `json:"price"`
}

// StockFundamentals is a point-in-time snapshot of the figures the
// valuation engine works from. It is created once per analysis request
// and never mutated afterward.
type StockFundamentals struct {
	Symbol            string    `json:"symbol"`
	Price             float64   `json:"price"`
	SharesOutstanding float64   `json:"shares_outstanding"`
	EPS               float64   `json:"eps"`
	BookValuePerShare float64   `json:"book_value_per_share"`
	DividendPerShare  float64   `json:"dividend_per_share"`
	FCFPerShare       float64   `json:"fcf_per_share"`
	GrowthRate        float64   `json:"growth_rate"`
	ReturnOnEquity    float64   `json:"return_on_equity"`
	DebtToEquity      float64   `json:"debt_to_equity"`
	Beta              float64   `json:"beta"`
	PERatio           float64   `json:"pe_ratio"`
	DividendYield     float64   `json:"dividend_yield"`
	Sector            string    `json:"sector"`
	AsOf              time.Time `json:"as_of"`
}
