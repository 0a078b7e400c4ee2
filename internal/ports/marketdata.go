package ports

import (
	"context"
	"time"

	"equityDayBot/internal/domain"
)

// MarketDataProvider fetches OHLCV bars from an external data source.
type MarketDataProvider interface {
	// FetchBars returns the bars for symbol whose timestamps fall in [start, end].
	// Order is provider-defined; an empty slice with a nil error means no data.
	FetchBars(ctx context.Context, symbol string, start, end time.Time, timeframe domain.Timeframe) ([]domain.Candle, error)
}

// MarketData is the read-side view of market data used by strategies.
type MarketData interface {
	// GetHistoricalBars returns up to days daily bars, oldest first.
	GetHistoricalBars(ctx context.Context, symbol string, days int) ([]domain.Candle, error)
	// AverageCandleRange returns the mean high-low range over the last lookbackDays bars.
	// Returns ErrInsufficientData when fewer bars are available.
	AverageCandleRange(ctx context.Context, symbol string, lookbackDays int) (float64, error)
	// GapInfo compares the latest open with the previous close.
	// Returns ErrInsufficientData when fewer than two bars are available.
	GapInfo(ctx context.Context, symbol string) (domain.GapInfo, error)
}
