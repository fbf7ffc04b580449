package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"stock-insight/models"
	"stock-insight/observability"

	"github.com/shopspring/decimal"
)

// AlphaVantageService handles communication with the Alpha Vantage API.
// It serves as a fundamentals fallback when Yahoo data is unavailable.
type AlphaVantageService struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
}

// NewAlphaVantageService creates a new AlphaVantageService instance
func NewAlphaVantageService(apiKey string) *AlphaVantageService {
	return &AlphaVantageService{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    "https://www.alphavantage.co/query",
	}
}

// SetBaseURL overrides the API base URL (used in tests)
func (s *AlphaVantageService) SetBaseURL(baseURL string) {
	s.baseURL = baseURL
}

// OverviewResponse represents the company overview response from Alpha Vantage
type OverviewResponse struct {
	Symbol                  string `json:"Symbol"`
	Name                    string `json:"Name"`
	Description             string `json:"Description"`
	Exchange                string `json:"Exchange"`
	Currency                string `json:"Currency"`
	Country                 string `json:"Country"`
	Sector                  string `json:"Sector"`
	Industry                string `json:"Industry"`
	MarketCap               string `json:"MarketCapitalization"`
	SharesOutstanding       string `json:"SharesOutstanding"`
	PERatio                 string `json:"PERatio"`
	BookValue               string `json:"BookValue"`
	DividendPerShare        string `json:"DividendPerShare"`
	DividendYield           string `json:"DividendYield"`
	EPS                     string `json:"EPS"`
	ReturnOnEquity          string `json:"ReturnOnEquityTTM"`
	QuarterlyEarningsGrowth string `json:"QuarterlyEarningsGrowthYOY"`
	Beta                    string `json:"Beta"`
}

// GetInfo returns descriptive company information for a symbol
func (s *AlphaVantageService) GetInfo(ctx context.Context, symbol string) (*models.StockInfo, error) {
	overview, err := s.fetchOverview(ctx, symbol)
	if err != nil {
		return nil, err
	}

	marketCap, _ := decimal.NewFromString(overview.MarketCap)

	return &models.StockInfo{
		Symbol:    symbol,
		Name:      overview.Name,
		Sector:    overview.Sector,
		Industry:  overview.Industry,
		Exchange:  overview.Exchange,
		Currency:  overview.Currency,
		MarketCap: marketCap,
	}, nil
}

// GetFundamentals returns fundamental data for a symbol. Alpha Vantage does
// not report free cash flow per share, so FCFPerShare is left zero and the
// DCF model is excluded downstream.
func (s *AlphaVantageService) GetFundamentals(ctx context.Context, symbol string) (*models.StockFundamentals, error) {
	overview, err := s.fetchOverview(ctx, symbol)
	if err != nil {
		return nil, err
	}

	return &models.StockFundamentals{
		Symbol:            symbol,
		SharesOutstanding: parseOverviewFloat(overview.SharesOutstanding, "shares outstanding"),
		EPS:               parseOverviewFloat(overview.EPS, "EPS"),
		BookValuePerShare: parseOverviewFloat(overview.BookValue, "book value"),
		DividendPerShare:  parseOverviewFloat(overview.DividendPerShare, "dividend per share"),
		GrowthRate:        parseOverviewFloat(overview.QuarterlyEarningsGrowth, "earnings growth"),
		ReturnOnEquity:    parseOverviewFloat(overview.ReturnOnEquity, "return on equity"),
		Beta:              parseOverviewFloat(overview.Beta, "beta"),
		PERatio:           parseOverviewFloat(overview.PERatio, "P/E ratio"),
		DividendYield:     parseOverviewFloat(overview.DividendYield, "dividend yield"),
		Sector:            overview.Sector,
		AsOf:              time.Now(),
	}, nil
}

func (s *AlphaVantageService) fetchOverview(ctx context.Context, symbol string) (*OverviewResponse, error) {
	metrics := observability.GetMetrics()
	metrics.RecordExternalAPIRequest(BreakerAlphaVantage, "get_overview")
	timer := metrics.NewTimer()

	var overview *OverviewResponse
	err := WithRetry(ctx, DefaultRetryConfig, func() error {
		result, err := WithCircuitBreaker(ctx, BreakerAlphaVantage, func() (*OverviewResponse, error) {
			params := url.Values{}
			params.Set("function", "OVERVIEW")
			params.Set("symbol", symbol)
			params.Set("apikey", s.apiKey)

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
			if err != nil {
				return nil, fmt.Errorf("failed to build request: %w", err)
			}

			resp, err := s.httpClient.Do(req)
			if err != nil {
				return nil, fmt.Errorf("failed to fetch overview: %w", err)
			}
			defer resp.Body.Close()

			var ov OverviewResponse
			if err := json.NewDecoder(resp.Body).Decode(&ov); err != nil {
				return nil, fmt.Errorf("failed to decode overview: %w", err)
			}

			if ov.Symbol == "" {
				return nil, fmt.Errorf("no overview data for %s", symbol)
			}
			return &ov, nil
		})
		if err != nil {
			return err
		}
		overview = result
		return nil
	})

	timer.ObserveExternalAPI(BreakerAlphaVantage, "get_overview")
	if err != nil {
		metrics.RecordExternalAPIError(BreakerAlphaVantage, "get_overview", categorizeAPIError(err))
		return nil, err
	}
	return overview, nil
}

// QuoteResponse represents a quote from Alpha Vantage
type QuoteResponse struct {
	GlobalQuote struct {
		Symbol        string `json:"01. symbol"`
		Open          string `json:"02. open"`
		High          string `json:"03. high"`
		Low           string `json:"04. low"`
		Price         string `json:"05. price"`
		Volume        string `json:"06. volume"`
		LatestDay     string `json:"07. latest trading day"`
		PrevClose     string `json:"08. previous close"`
		Change        string `json:"09. change"`
		ChangePercent string `json:"10. change percent"`
	} `json:"Global Quote"`
}

// GetQuote returns the latest quote for a symbol
func (s *AlphaVantageService) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	params := url.Values{}
	params.Set("function", "GLOBAL_QUOTE")
	params.Set("symbol", symbol)
	params.Set("apikey", s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch quote: %w", err)
	}
	defer resp.Body.Close()

	var quoteResp QuoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&quoteResp); err != nil {
		return nil, fmt.Errorf("failed to decode quote: %w", err)
	}

	price, _ := decimal.NewFromString(quoteResp.GlobalQuote.Price)
	var volume int64
	if quoteResp.GlobalQuote.Volume != "" {
		volume, err = strconv.ParseInt(quoteResp.GlobalQuote.Volume, 10, 64)
		if err != nil {
			observability.Warn("failed to parse volume", "value", quoteResp.GlobalQuote.Volume, "error", err)
		}
	}

	return &models.Quote{
		Symbol:    symbol,
		Last:      price,
		Volume:    volume,
		Timestamp: time.Now(),
	}, nil
}

// parseOverviewFloat parses a numeric overview field, treating "None" and
// empty strings as zero
func parseOverviewFloat(value, field string) float64 {
	if value == "" || value == "None" || value == "-" {
		return 0
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		observability.Warn("failed to parse overview field", "field", field, "value", value, "error", err)
		return 0
	}
	return parsed
}
