package binanceclient

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2/futures"

	"equityDayBot/internal/domain"
	"equityDayBot/internal/ports"
)

// intervals maps supported timeframes onto Binance kline intervals.
var intervals = map[domain.Timeframe]string{
	domain.Daily: "1d",
}

// FetchBars fetches all klines for symbol between start and end, paging forward
// by close time until the window is exhausted.
func (c *Client) FetchBars(ctx context.Context, symbol string, start, end time.Time, timeframe domain.Timeframe) ([]domain.Candle, error) {
	op := "FetchBars"
	interval, ok := intervals[timeframe]
	if !ok {
		return nil, fmt.Errorf("%s: unsupported timeframe %q: %w", op, timeframe, ports.ErrInvalidRequest)
	}

	var candles []domain.Candle
	cursor := start.UnixMilli()
	endMs := end.UnixMilli()
	for cursor < endMs {
		klines, err := c.api.Klines(ctx, symbol, interval, cursor, endMs, maxKlinesPerRequest)
		if err != nil {
			return nil, c.handleError(ctx, err, op)
		}
		if len(klines) == 0 {
			break
		}
		for _, bk := range klines {
			candle, err := translateBinanceKline(bk)
			if err != nil {
				return nil, c.handleError(ctx, err, op)
			}
			candles = append(candles, candle)
		}
		last := klines[len(klines)-1]
		if len(klines) < maxKlinesPerRequest || last.CloseTime <= cursor {
			break
		}
		cursor = last.CloseTime + 1
	}

	c.logger.Debug(ctx, op+" successful", map[string]interface{}{"symbol": symbol, "interval": interval, "count": len(candles)})
	return candles, nil
}

func translateBinanceKline(bk *futures.Kline) (domain.Candle, error) {
	if bk == nil {
		return domain.Candle{}, errors.New("received nil historical kline")
	}
	open, err := strconv.ParseFloat(bk.Open, 64)
	if err != nil {
		return domain.Candle{}, fmt.Errorf("parsing open price '%s': %w", bk.Open, err)
	}
	high, err := strconv.ParseFloat(bk.High, 64)
	if err != nil {
		return domain.Candle{}, fmt.Errorf("parsing high price '%s': %w", bk.High, err)
	}
	low, err := strconv.ParseFloat(bk.Low, 64)
	if err != nil {
		return domain.Candle{}, fmt.Errorf("parsing low price '%s': %w", bk.Low, err)
	}
	cls, err := strconv.ParseFloat(bk.Close, 64)
	if err != nil {
		return domain.Candle{}, fmt.Errorf("parsing close price '%s': %w", bk.Close, err)
	}
	vol, err := strconv.ParseFloat(bk.Volume, 64)
	if err != nil {
		return domain.Candle{}, fmt.Errorf("parsing volume '%s': %w", bk.Volume, err)
	}

	return domain.Candle{
		Timestamp: time.UnixMilli(bk.OpenTime).UTC(),
		Open:      open,
		High:      high,
		Low:       low,
		Close:     cls,
		Volume:    vol,
	}, nil
}
