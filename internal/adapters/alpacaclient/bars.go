package alpacaclient

import (
	"context"
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"equityDayBot/internal/domain"
	"equityDayBot/internal/ports"
)

// FetchBars retrieves daily bars for symbol between start and end.
func (c *Client) FetchBars(ctx context.Context, symbol string, start, end time.Time, timeframe domain.Timeframe) ([]domain.Candle, error) {
	op := "FetchBars"
	if timeframe != domain.Daily {
		return nil, fmt.Errorf("%s: unsupported timeframe %q: %w", op, timeframe, ports.ErrInvalidRequest)
	}
	if err := ctx.Err(); err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	bars, err := c.data.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame: marketdata.OneDay,
		Start:     start,
		End:       end,
		Feed:      c.feed,
	})
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	candles := make([]domain.Candle, 0, len(bars))
	for _, b := range bars {
		candles = append(candles, domain.Candle{
			Timestamp: b.Timestamp,
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    float64(b.Volume),
		})
	}
	c.logger.Debug(ctx, op+" successful", map[string]interface{}{"symbol": symbol, "count": len(candles)})
	return candles, nil
}
