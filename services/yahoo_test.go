package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const quoteSummaryFixture = `{
	"quoteSummary": {
		"result": [{
			"price": {
				"symbol": "AAPL",
				"shortName": "Apple Inc.",
				"longName": "Apple Inc.",
				"currency": "USD",
				"exchangeName": "NasdaqGS",
				"marketCap": {"raw": 3000000000000, "fmt": "3T"},
				"regularMarketPrice": {"raw": 190.5, "fmt": "190.50"}
			},
			"summaryProfile": {
				"sector": "Technology",
				"industry": "Consumer Electronics"
			},
			"summaryDetail": {
				"trailingPE": {"raw": 29.5},
				"dividendRate": {"raw": 0.96},
				"dividendYield": {"raw": 0.005},
				"beta": {"raw": 1.25}
			},
			"defaultKeyStatistics": {
				"trailingEps": {"raw": 6.45},
				"bookValue": {"raw": 4.25},
				"sharesOutstanding": {"raw": 15500000000}
			},
			"financialData": {
				"freeCashflow": {"raw": 99000000000},
				"earningsGrowth": {"raw": 0.08},
				"revenueGrowth": {"raw": 0.05},
				"returnOnEquity": {"raw": 1.47},
				"debtToEquity": {"raw": 176.3}
			}
		}],
		"error": null
	}
}`

func newChartFixture(symbol string, closes []float64) string {
	timestamps := make([]string, len(closes))
	closeStrs := make([]string, len(closes))
	volumes := make([]string, len(closes))
	base := time.Date(2025, 1, 2, 14, 30, 0, 0, time.UTC).Unix()
	for i, c := range closes {
		timestamps[i] = fmt.Sprintf("%d", base+int64(i)*86400)
		closeStrs[i] = fmt.Sprintf("%g", c)
		volumes[i] = "1000"
	}
	return fmt.Sprintf(`{
		"chart": {
			"result": [{
				"meta": {"symbol": %q, "regularMarketPrice": %g},
				"timestamp": [%s],
				"indicators": {"quote": [{
					"open": [%s],
					"high": [%s],
					"low": [%s],
					"close": [%s],
					"volume": [%s]
				}]}
			}],
			"error": null
		}
	}`, symbol, closes[len(closes)-1],
		strings.Join(timestamps, ","),
		strings.Join(closeStrs, ","),
		strings.Join(closeStrs, ","),
		strings.Join(closeStrs, ","),
		strings.Join(closeStrs, ","),
		strings.Join(volumes, ","))
}

func newYahooTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *YahooService) {
	t.Helper()
	SetGlobalRegistry(NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig))
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server, NewYahooService(server.URL)
}

func TestYahooGetFundamentals(t *testing.T) {
	_, service := newYahooTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/v10/finance/quoteSummary/AAPL") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		fmt.Fprint(w, quoteSummaryFixture)
	})

	fundamentals, err := service.GetFundamentals(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if fundamentals.Symbol != "AAPL" {
		t.Errorf("Symbol = %s, want AAPL", fundamentals.Symbol)
	}
	if fundamentals.Price != 190.5 {
		t.Errorf("Price = %f, want 190.5", fundamentals.Price)
	}
	if fundamentals.EPS != 6.45 {
		t.Errorf("EPS = %f, want 6.45", fundamentals.EPS)
	}
	if fundamentals.BookValuePerShare != 4.25 {
		t.Errorf("BookValuePerShare = %f, want 4.25", fundamentals.BookValuePerShare)
	}
	if fundamentals.DividendPerShare != 0.96 {
		t.Errorf("DividendPerShare = %f, want 0.96", fundamentals.DividendPerShare)
	}
	if fundamentals.GrowthRate != 0.08 {
		t.Errorf("GrowthRate = %f, want 0.08 (earnings growth preferred)", fundamentals.GrowthRate)
	}
	if fundamentals.Beta != 1.25 {
		t.Errorf("Beta = %f, want 1.25", fundamentals.Beta)
	}

	// FCF per share derived from total FCF and shares outstanding
	expectedFCF := 99000000000.0 / 15500000000.0
	if diff := fundamentals.FCFPerShare - expectedFCF; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("FCFPerShare = %f, want %f", fundamentals.FCFPerShare, expectedFCF)
	}

	// Yahoo reports debt/equity as a percentage; it must be normalized
	if diff := fundamentals.DebtToEquity - 1.763; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("DebtToEquity = %f, want 1.763", fundamentals.DebtToEquity)
	}
}

func TestYahooGetInfo(t *testing.T) {
	_, service := newYahooTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, quoteSummaryFixture)
	})

	info, err := service.GetInfo(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if info.Name != "Apple Inc." {
		t.Errorf("Name = %s, want Apple Inc.", info.Name)
	}
	if info.Sector != "Technology" {
		t.Errorf("Sector = %s, want Technology", info.Sector)
	}
	if info.Exchange != "NasdaqGS" {
		t.Errorf("Exchange = %s, want NasdaqGS", info.Exchange)
	}
	if info.Price != 190.5 {
		t.Errorf("Price = %f, want 190.5", info.Price)
	}
}

func TestYahooGetDailyHistory(t *testing.T) {
	closes := []float64{100, 101, 102, 103, 104}
	_, service := newYahooTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/v8/finance/chart/MSFT") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("interval"); got != "1d" {
			t.Errorf("interval = %s, want 1d", got)
		}
		fmt.Fprint(w, newChartFixture("MSFT", closes))
	})

	bars, err := service.GetDailyHistory(context.Background(), "MSFT", 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(bars) != 5 {
		t.Fatalf("expected 5 bars, got %d", len(bars))
	}
	if bars[0].Symbol != "MSFT" {
		t.Errorf("Symbol = %s, want MSFT", bars[0].Symbol)
	}
	last, _ := bars[4].Close.Float64()
	if last != 104 {
		t.Errorf("last close = %f, want 104", last)
	}
	if bars[0].Volume != 1000 {
		t.Errorf("Volume = %d, want 1000", bars[0].Volume)
	}
}

func TestYahooGetDailyHistory_SkipsZeroCloses(t *testing.T) {
	_, service := newYahooTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"chart": {
				"result": [{
					"meta": {"symbol": "IBM", "regularMarketPrice": 150},
					"timestamp": [1735800000, 1735886400, 1735972800],
					"indicators": {"quote": [{
						"open": [149, 0, 150],
						"high": [151, 0, 152],
						"low": [148, 0, 149],
						"close": [150, 0, 151],
						"volume": [500, 0, 600]
					}]}
				}],
				"error": null
			}
		}`)
	})

	bars, err := service.GetDailyHistory(context.Background(), "IBM", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(bars) != 2 {
		t.Fatalf("expected 2 bars after dropping padded session, got %d", len(bars))
	}
}

func TestYahooGetQuote(t *testing.T) {
	closes := []float64{99, 100.25}
	_, service := newYahooTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, newChartFixture("NVDA", closes))
	})

	quote, err := service.GetQuote(context.Background(), "NVDA")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	last, _ := quote.Last.Float64()
	if last != 100.25 {
		t.Errorf("Last = %f, want 100.25", last)
	}
}

func TestYahooGetFundamentals_APIError(t *testing.T) {
	_, service := newYahooTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"quoteSummary": {
				"result": [],
				"error": {"code": "Not Found", "description": "No data found"}
			}
		}`)
	})

	_, err := service.GetFundamentals(context.Background(), "BOGUS")
	if err == nil {
		t.Fatal("expected error for unknown symbol")
	}
	if !strings.Contains(err.Error(), "No data found") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestYahooGetFundamentals_ServerError(t *testing.T) {
	calls := 0
	_, service := newYahooTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := service.GetFundamentals(context.Background(), "AAPL")
	if err == nil {
		t.Fatal("expected error for server failure")
	}
	if calls < 2 {
		t.Errorf("expected retries, got %d calls", calls)
	}
}
