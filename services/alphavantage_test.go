package services

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newAlphaVantageTestServer(t *testing.T, handler http.HandlerFunc) *AlphaVantageService {
	t.Helper()
	SetGlobalRegistry(NewCircuitBreakerRegistry(DefaultCircuitBreakerConfig))
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	service := NewAlphaVantageService("test-key")
	service.SetBaseURL(server.URL)
	return service
}

func TestNewAlphaVantageService(t *testing.T) {
	service := NewAlphaVantageService("my-key")

	if service == nil {
		t.Fatal("expected service to be created")
	}
	if service.apiKey != "my-key" {
		t.Errorf("apiKey = %s, want my-key", service.apiKey)
	}
	if service.baseURL != "https://www.alphavantage.co/query" {
		t.Errorf("unexpected baseURL: %s", service.baseURL)
	}
}

func TestAlphaVantageGetFundamentals(t *testing.T) {
	service := newAlphaVantageTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("function"); got != "OVERVIEW" {
			t.Errorf("function = %s, want OVERVIEW", got)
		}
		if got := r.URL.Query().Get("symbol"); got != "KO" {
			t.Errorf("symbol = %s, want KO", got)
		}
		fmt.Fprint(w, `{
			"Symbol": "KO",
			"Name": "Coca-Cola Company",
			"Exchange": "NYSE",
			"Currency": "USD",
			"Sector": "Consumer Defensive",
			"Industry": "Beverages",
			"MarketCapitalization": "260000000000",
			"SharesOutstanding": "4310000000",
			"PERatio": "24.5",
			"BookValue": "6.1",
			"DividendPerShare": "1.94",
			"DividendYield": "0.031",
			"EPS": "2.47",
			"ReturnOnEquityTTM": "0.42",
			"QuarterlyEarningsGrowthYOY": "0.03",
			"Beta": "0.58"
		}`)
	})

	fundamentals, err := service.GetFundamentals(context.Background(), "KO")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if fundamentals.EPS != 2.47 {
		t.Errorf("EPS = %f, want 2.47", fundamentals.EPS)
	}
	if fundamentals.BookValuePerShare != 6.1 {
		t.Errorf("BookValuePerShare = %f, want 6.1", fundamentals.BookValuePerShare)
	}
	if fundamentals.DividendPerShare != 1.94 {
		t.Errorf("DividendPerShare = %f, want 1.94", fundamentals.DividendPerShare)
	}
	if fundamentals.ReturnOnEquity != 0.42 {
		t.Errorf("ReturnOnEquity = %f, want 0.42", fundamentals.ReturnOnEquity)
	}
	if fundamentals.Beta != 0.58 {
		t.Errorf("Beta = %f, want 0.58", fundamentals.Beta)
	}
	// Alpha Vantage has no free cash flow data
	if fundamentals.FCFPerShare != 0 {
		t.Errorf("FCFPerShare = %f, want 0", fundamentals.FCFPerShare)
	}
}

func TestAlphaVantageGetFundamentals_NoneValues(t *testing.T) {
	service := newAlphaVantageTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"Symbol": "XYZ",
			"Name": "XYZ Corp",
			"PERatio": "None",
			"BookValue": "-",
			"DividendPerShare": "",
			"EPS": "1.10"
		}`)
	})

	fundamentals, err := service.GetFundamentals(context.Background(), "XYZ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if fundamentals.PERatio != 0 {
		t.Errorf("PERatio = %f, want 0 for None value", fundamentals.PERatio)
	}
	if fundamentals.BookValuePerShare != 0 {
		t.Errorf("BookValuePerShare = %f, want 0 for dash value", fundamentals.BookValuePerShare)
	}
	if fundamentals.DividendPerShare != 0 {
		t.Errorf("DividendPerShare = %f, want 0 for empty value", fundamentals.DividendPerShare)
	}
	if fundamentals.EPS != 1.10 {
		t.Errorf("EPS = %f, want 1.10", fundamentals.EPS)
	}
}

func TestAlphaVantageGetFundamentals_EmptyResponse(t *testing.T) {
	service := newAlphaVantageTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	})

	_, err := service.GetFundamentals(context.Background(), "BOGUS")
	if err == nil {
		t.Fatal("expected error for empty overview")
	}
}

func TestAlphaVantageGetInfo(t *testing.T) {
	service := newAlphaVantageTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"Symbol": "KO",
			"Name": "Coca-Cola Company",
			"Exchange": "NYSE",
			"Currency": "USD",
			"Sector": "Consumer Defensive",
			"Industry": "Beverages",
			"MarketCapitalization": "260000000000"
		}`)
	})

	info, err := service.GetInfo(context.Background(), "KO")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if info.Name != "Coca-Cola Company" {
		t.Errorf("Name = %s, want Coca-Cola Company", info.Name)
	}
	if info.Sector != "Consumer Defensive" {
		t.Errorf("Sector = %s, want Consumer Defensive", info.Sector)
	}
}

func TestAlphaVantageGetQuote(t *testing.T) {
	service := newAlphaVantageTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("function"); got != "GLOBAL_QUOTE" {
			t.Errorf("function = %s, want GLOBAL_QUOTE", got)
		}
		fmt.Fprint(w, `{
			"Global Quote": {
				"01. symbol": "KO",
				"05. price": "62.45",
				"06. volume": "12345678"
			}
		}`)
	})

	quote, err := service.GetQuote(context.Background(), "KO")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	price, _ := quote.Last.Float64()
	if price != 62.45 {
		t.Errorf("Last = %f, want 62.45", price)
	}
	if quote.Volume != 12345678 {
		t.Errorf("Volume = %d, want 12345678", quote.Volume)
	}
}

func TestParseOverviewFloat(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  float64
	}{
		{"valid number", "1.5", 1.5},
		{"none sentinel", "None", 0},
		{"dash sentinel", "-", 0},
		{"empty string", "", 0},
		{"garbage", "abc", 0},
		{"negative", "-0.25", -0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseOverviewFloat(tt.value, "test"); got != tt.want {
				t.Errorf("parseOverviewFloat(%q) = %f, want %f", tt.value, got, tt.want)
			}
		})
	}
}
