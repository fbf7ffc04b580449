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

// YahooService fetches quotes, fundamentals and price history from the
// Yahoo Finance JSON endpoints. It is the primary market data source;
// Alpha Vantage and Alpaca act as fallbacks.
type YahooService struct {
	baseURL    string
	httpClient *http.Client
}

// NewYahooService creates a new YahooService instance
func NewYahooService(baseURL string) *YahooService {
	return &YahooService{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// yahooValue is the raw/fmt pair Yahoo wraps most numeric fields in
type yahooValue struct {
	Raw float64 `json:"raw"`
	Fmt string  `json:"fmt"`
}

// quoteSummaryResponse represents the v10 quoteSummary envelope
type quoteSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			Price struct {
				Symbol             string     `json:"symbol"`
				ShortName          string     `json:"shortName"`
				LongName           string     `json:"longName"`
				Currency           string     `json:"currency"`
				ExchangeName       string     `json:"exchangeName"`
				MarketCap          yahooValue `json:"marketCap"`
				RegularMarketPrice yahooValue `json:"regularMarketPrice"`
			} `json:"price"`
			SummaryProfile struct {
				Sector   string `json:"sector"`
				Industry string `json:"industry"`
			} `json:"summaryProfile"`
			SummaryDetail struct {
				TrailingPE    yahooValue `json:"trailingPE"`
				DividendRate  yahooValue `json:"dividendRate"`
				DividendYield yahooValue `json:"dividendYield"`
				Beta          yahooValue `json:"beta"`
			} `json:"summaryDetail"`
			DefaultKeyStatistics struct {
				TrailingEps       yahooValue `json:"trailingEps"`
				BookValue         yahooValue `json:"bookValue"`
				SharesOutstanding yahooValue `json:"sharesOutstanding"`
			} `json:"defaultKeyStatistics"`
			FinancialData struct {
				FreeCashflow   yahooValue `json:"freeCashflow"`
				EarningsGrowth yahooValue `json:"earningsGrowth"`
				RevenueGrowth  yahooValue `json:"revenueGrowth"`
				ReturnOnEquity yahooValue `json:"returnOnEquity"`
				DebtToEquity   yahooValue `json:"debtToEquity"`
			} `json:"financialData"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

// chartResponse represents the v8 chart envelope
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []float64 `json:"open"`
					High   []float64 `json:"high"`
					Low    []float64 `json:"low"`
					Close  []float64 `json:"close"`
					Volume []int64   `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// GetInfo returns descriptive company information for a symbol
func (s *YahooService) GetInfo(ctx context.Context, symbol string) (*models.StockInfo, error) {
	summary, err := s.fetchQuoteSummary(ctx, symbol)
	if err != nil {
		return nil, err
	}

	result := summary.QuoteSummary.Result[0]
	name := result.Price.LongName
	if name == "" {
		name = result.Price.ShortName
	}

	return &models.StockInfo{
		Symbol:    symbol,
		Name:      name,
		Sector:    result.SummaryProfile.Sector,
		Industry:  result.SummaryProfile.Industry,
		Exchange:  result.Price.ExchangeName,
		Currency:  result.Price.Currency,
		MarketCap: decimal.NewFromFloat(result.Price.MarketCap.Raw),
		Price:     result.Price.RegularMarketPrice.Raw,
	}, nil
}

// GetFundamentals returns a valuation-ready fundamentals snapshot
func (s *YahooService) GetFundamentals(ctx context.Context, symbol string) (*models.StockFundamentals, error) {
	summary, err := s.fetchQuoteSummary(ctx, symbol)
	if err != nil {
		return nil, err
	}

	result := summary.QuoteSummary.Result[0]
	shares := result.DefaultKeyStatistics.SharesOutstanding.Raw

	fcfPerShare := 0.0
	if shares > 0 {
		fcfPerShare = result.FinancialData.FreeCashflow.Raw / shares
	}

	growth := result.FinancialData.EarningsGrowth.Raw
	if growth == 0 {
		growth = result.FinancialData.RevenueGrowth.Raw
	}

	// Yahoo reports debt/equity as a percentage
	debtToEquity := result.FinancialData.DebtToEquity.Raw
	if debtToEquity > 10 {
		debtToEquity /= 100
	}

	return &models.StockFundamentals{
		Symbol:            symbol,
		Price:             result.Price.RegularMarketPrice.Raw,
		SharesOutstanding: shares,
		EPS:               result.DefaultKeyStatistics.TrailingEps.Raw,
		BookValuePerShare: result.DefaultKeyStatistics.BookValue.Raw,
		DividendPerShare:  result.SummaryDetail.DividendRate.Raw,
		FCFPerShare:       fcfPerShare,
		GrowthRate:        growth,
		ReturnOnEquity:    result.FinancialData.ReturnOnEquity.Raw,
		DebtToEquity:      debtToEquity,
		Beta:              result.SummaryDetail.Beta.Raw,
		PERatio:           result.SummaryDetail.TrailingPE.Raw,
		DividendYield:     result.SummaryDetail.DividendYield.Raw,
		Sector:            result.SummaryProfile.Sector,
		AsOf:              time.Now(),
	}, nil
}

// GetQuote returns the latest price for a symbol
func (s *YahooService) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	bars, meta, err := s.fetchChart(ctx, symbol, 5)
	if err != nil {
		return nil, err
	}

	quote := &models.Quote{
		Symbol:    symbol,
		Last:      decimal.NewFromFloat(meta),
		Timestamp: time.Now(),
	}
	if len(bars) > 0 {
		quote.Volume = bars[len(bars)-1].Volume
	}
	return quote, nil
}

// GetDailyHistory returns daily bars for the last N calendar days
func (s *YahooService) GetDailyHistory(ctx context.Context, symbol string, days int) ([]models.Bar, error) {
	bars, _, err := s.fetchChart(ctx, symbol, days)
	return bars, err
}

func (s *YahooService) fetchQuoteSummary(ctx context.Context, symbol string) (*quoteSummaryResponse, error) {
	metrics := observability.GetMetrics()
	metrics.RecordExternalAPIRequest(BreakerYahoo, "quote_summary")
	timer := metrics.NewTimer()

	var summary *quoteSummaryResponse
	err := WithRetry(ctx, DefaultRetryConfig, func() error {
		result, err := WithCircuitBreaker(ctx, BreakerYahoo, func() (*quoteSummaryResponse, error) {
			params := url.Values{}
			params.Set("modules", "price,summaryProfile,summaryDetail,defaultKeyStatistics,financialData")

			endpoint := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?%s",
				s.baseURL, url.PathEscape(symbol), params.Encode())

			var resp quoteSummaryResponse
			if err := s.getJSON(ctx, endpoint, &resp); err != nil {
				return nil, err
			}

			if resp.QuoteSummary.Error != nil {
				return nil, fmt.Errorf("quote summary for %s: %s", symbol, resp.QuoteSummary.Error.Description)
			}
			if len(resp.QuoteSummary.Result) == 0 {
				return nil, fmt.Errorf("no quote summary data for %s", symbol)
			}
			return &resp, nil
		})
		if err != nil {
			return err
		}
		summary = result
		return nil
	})

	timer.ObserveExternalAPI(BreakerYahoo, "quote_summary")
	if err != nil {
		metrics.RecordExternalAPIError(BreakerYahoo, "quote_summary", categorizeAPIError(err))
		return nil, err
	}
	return summary, nil
}

func (s *YahooService) fetchChart(ctx context.Context, symbol string, days int) ([]models.Bar, float64, error) {
	metrics := observability.GetMetrics()
	metrics.RecordExternalAPIRequest(BreakerYahoo, "chart")
	timer := metrics.NewTimer()

	var bars []models.Bar
	var lastPrice float64

	err := WithRetry(ctx, DefaultRetryConfig, func() error {
		result, err := WithCircuitBreaker(ctx, BreakerYahoo, func() (*chartResponse, error) {
			end := time.Now()
			start := end.AddDate(0, 0, -days)

			params := url.Values{}
			params.Set("interval", "1d")
			params.Set("period1", strconv.FormatInt(start.Unix(), 10))
			params.Set("period2", strconv.FormatInt(end.Unix(), 10))

			endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s",
				s.baseURL, url.PathEscape(symbol), params.Encode())

			var resp chartResponse
			if err := s.getJSON(ctx, endpoint, &resp); err != nil {
				return nil, err
			}

			if resp.Chart.Error != nil {
				return nil, fmt.Errorf("chart for %s: %s", symbol, resp.Chart.Error.Description)
			}
			if len(resp.Chart.Result) == 0 {
				return nil, fmt.Errorf("no chart data for %s", symbol)
			}
			return &resp, nil
		})
		if err != nil {
			return err
		}

		chart := result.Chart.Result[0]
		lastPrice = chart.Meta.RegularMarketPrice

		if len(chart.Indicators.Quote) == 0 {
			bars = nil
			return nil
		}

		quote := chart.Indicators.Quote[0]
		bars = make([]models.Bar, 0, len(chart.Timestamp))
		for i, ts := range chart.Timestamp {
			// Yahoo pads missing sessions with zero closes
			if i >= len(quote.Close) || quote.Close[i] == 0 {
				continue
			}
			bar := models.Bar{
				Symbol:    symbol,
				Timestamp: time.Unix(ts, 0).UTC(),
				Close:     decimal.NewFromFloat(quote.Close[i]),
			}
			if i < len(quote.Open) {
				bar.Open = decimal.NewFromFloat(quote.Open[i])
			}
			if i < len(quote.High) {
				bar.High = decimal.NewFromFloat(quote.High[i])
			}
			if i < len(quote.Low) {
				bar.Low = decimal.NewFromFloat(quote.Low[i])
			}
			if i < len(quote.Volume) {
				bar.Volume = quote.Volume[i]
			}
			bars = append(bars, bar)
		}
		return nil
	})

	timer.ObserveExternalAPI(BreakerYahoo, "chart")
	if err != nil {
		metrics.RecordExternalAPIError(BreakerYahoo, "chart", categorizeAPIError(err))
		return nil, 0, err
	}
	return bars, lastPrice, nil
}

func (s *YahooService) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", "stock-insight/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
