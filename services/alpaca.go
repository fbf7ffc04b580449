package services

import (
	"context"
	"fmt"
	"time"

	"stock-insight/models"
	"stock-insight/observability"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"
)

// AlpacaService provides market data through Alpaca. It is the price
// history fallback when the Yahoo chart endpoint is unavailable.
type AlpacaService struct {
	dataClient *marketdata.Client
}

// NewAlpacaService creates a new AlpacaService instance
func NewAlpacaService(apiKey, apiSecret string) *AlpacaService {
	dataClient := marketdata.NewClient(marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	})

	return &AlpacaService{
		dataClient: dataClient,
	}
}

// GetQuote returns the latest quote for a symbol
func (s *AlpacaService) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	metrics := observability.GetMetrics()
	metrics.RecordExternalAPIRequest(BreakerAlpaca, "get_quote")
	timer := metrics.NewTimer()

	result, err := WithCircuitBreaker(ctx, BreakerAlpaca, func() (*models.Quote, error) {
		quote, err := s.dataClient.GetLatestQuote(symbol, marketdata.GetLatestQuoteRequest{})
		if err != nil {
			return nil, fmt.Errorf("failed to get quote for %s: %w", symbol, err)
		}

		return &models.Quote{
			Symbol:    symbol,
			Bid:       decimal.NewFromFloat(quote.BidPrice),
			Ask:       decimal.NewFromFloat(quote.AskPrice),
			Timestamp: quote.Timestamp,
		}, nil
	})

	timer.ObserveExternalAPI(BreakerAlpaca, "get_quote")
	if err != nil {
		metrics.RecordExternalAPIError(BreakerAlpaca, "get_quote", categorizeAPIError(err))
	}
	return result, err
}

// GetLatestTrade returns the latest trade for a symbol
func (s *AlpacaService) GetLatestTrade(ctx context.Context, symbol string) (*models.Quote, error) {
	trade, err := s.dataClient.GetLatestTrade(symbol, marketdata.GetLatestTradeRequest{})
	if err != nil {
		return nil, fmt.Errorf("failed to get trade for %s: %w", symbol, err)
	}

	return &models.Quote{
		Symbol:    symbol,
		Last:      decimal.NewFromFloat(trade.Price),
		Volume:    int64(trade.Size),
		Timestamp: trade.Timestamp,
	}, nil
}

// GetBars returns historical bars for a symbol
func (s *AlpacaService) GetBars(ctx context.Context, symbol string, start, end time.Time, timeframe marketdata.TimeFrame) ([]models.Bar, error) {
	metrics := observability.GetMetrics()
	metrics.RecordExternalAPIRequest(BreakerAlpaca, "get_bars")
	timer := metrics.NewTimer()

	result, err := WithCircuitBreaker(ctx, BreakerAlpaca, func() ([]models.Bar, error) {
		bars, err := s.dataClient.GetBars(symbol, marketdata.GetBarsRequest{
			TimeFrame: timeframe,
			Start:     start,
			End:       end,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to get bars for %s: %w", symbol, err)
		}

		result := make([]models.Bar, 0, len(bars))
		for _, bar := range bars {
			result = append(result, models.Bar{
				Symbol:    symbol,
				Timestamp: bar.Timestamp,
				Open:      decimal.NewFromFloat(bar.Open),
				High:      decimal.NewFromFloat(bar.High),
				Low:       decimal.NewFromFloat(bar.Low),
				Close:     decimal.NewFromFloat(bar.Close),
				Volume:    int64(bar.Volume),
			})
		}

		return result, nil
	})

	timer.ObserveExternalAPI(BreakerAlpaca, "get_bars")
	if err != nil {
		metrics.RecordExternalAPIError(BreakerAlpaca, "get_bars", categorizeAPIError(err))
	}
	return result, err
}

// GetDailyHistory returns daily bars for the last N calendar days
func (s *AlpacaService) GetDailyHistory(ctx context.Context, symbol string, days int) ([]models.Bar, error) {
	end := time.Now()
	start := end.AddDate(0, 0, -days)

	return s.GetBars(ctx, symbol, start, end, marketdata.OneDay)
}
