package binanceclient

import (
	"context"
	"errors"
	"io"
	"strconv"
	"testing"
	"time"

	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equityDayBot/internal/adapters/logger"
	"equityDayBot/internal/domain"
	"equityDayBot/internal/ports"
)

type call struct {
	start, end int64
}

type fakeKlines struct {
	pages [][]*futures.Kline
	err   error
	calls []call
}

func (f *fakeKlines) Klines(ctx context.Context, symbol, interval string, startMs, endMs int64, limit int) ([]*futures.Kline, error) {
	f.calls = append(f.calls, call{start: startMs, end: endMs})
	if f.err != nil {
		return nil, f.err
	}
	if len(f.calls) > len(f.pages) {
		return nil, nil
	}
	return f.pages[len(f.calls)-1], nil
}

func newTestClient(api klinesAPI) *Client {
	return &Client{api: api, logger: logger.NewStdLoggerWithWriter(io.Discard, logger.LevelError)}
}

func dailyKline(day time.Time, open, cls float64) *futures.Kline {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }
	return &futures.Kline{
		OpenTime:  day.UnixMilli(),
		CloseTime: day.Add(24*time.Hour).UnixMilli() - 1,
		Open:      f(open),
		High:      f(open + 5),
		Low:       f(cls - 5),
		Close:     f(cls),
		Volume:    "1234.5",
	}
}

func TestTranslateBinanceKline(t *testing.T) {
	day := time.Date(2025, 3, 6, 0, 0, 0, 0, time.UTC)
	c, err := translateBinanceKline(dailyKline(day, 100, 98))
	require.NoError(t, err)
	assert.Equal(t, day, c.Timestamp)
	assert.Equal(t, 100.0, c.Open)
	assert.Equal(t, 105.0, c.High)
	assert.Equal(t, 93.0, c.Low)
	assert.Equal(t, 98.0, c.Close)
	assert.Equal(t, 1234.5, c.Volume)

	_, err = translateBinanceKline(nil)
	assert.Error(t, err)

	bad := dailyKline(day, 100, 98)
	bad.Close = "n/a"
	_, err = translateBinanceKline(bad)
	assert.Error(t, err)
}

func TestFetchBars(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 5)

	t.Run("single short page", func(t *testing.T) {
		api := &fakeKlines{pages: [][]*futures.Kline{{
			dailyKline(start, 100, 101),
			dailyKline(start.AddDate(0, 0, 1), 101, 99),
		}}}
		candles, err := newTestClient(api).FetchBars(ctx, "BTCUSDT", start, end, domain.Daily)
		require.NoError(t, err)
		assert.Len(t, candles, 2)
		require.Len(t, api.calls, 1)
		assert.Equal(t, start.UnixMilli(), api.calls[0].start)
		assert.Equal(t, end.UnixMilli(), api.calls[0].end)
	})

	t.Run("pages by close time", func(t *testing.T) {
		first := make([]*futures.Kline, 0, maxKlinesPerRequest)
		for i := 0; i < maxKlinesPerRequest; i++ {
			first = append(first, dailyKline(start.AddDate(0, 0, i), 100, 101))
		}
		lastDay := start.AddDate(0, 0, maxKlinesPerRequest)
		api := &fakeKlines{pages: [][]*futures.Kline{first, {dailyKline(lastDay, 101, 102)}}}

		candles, err := newTestClient(api).FetchBars(ctx, "BTCUSDT", start, lastDay.AddDate(0, 0, 1), domain.Daily)
		require.NoError(t, err)
		assert.Len(t, candles, maxKlinesPerRequest+1)
		require.Len(t, api.calls, 2)
		assert.Equal(t, first[len(first)-1].CloseTime+1, api.calls[1].start)
	})

	t.Run("empty window", func(t *testing.T) {
		api := &fakeKlines{}
		candles, err := newTestClient(api).FetchBars(ctx, "BTCUSDT", start, end, domain.Daily)
		require.NoError(t, err)
		assert.Empty(t, candles)
	})

	t.Run("unsupported timeframe", func(t *testing.T) {
		api := &fakeKlines{}
		_, err := newTestClient(api).FetchBars(ctx, "BTCUSDT", start, end, domain.Timeframe("1m"))
		assert.ErrorIs(t, err, ports.ErrInvalidRequest)
		assert.Empty(t, api.calls)
	})

	t.Run("bad payload", func(t *testing.T) {
		k := dailyKline(start, 100, 101)
		k.Open = "x"
		api := &fakeKlines{pages: [][]*futures.Kline{{k}}}
		_, err := newTestClient(api).FetchBars(ctx, "BTCUSDT", start, end, domain.Daily)
		assert.ErrorIs(t, err, ports.ErrUnknown)
	})
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"rate limited", &common.APIError{Code: -1003, Message: "too many requests"}, ports.ErrRateLimited},
		{"bad symbol", &common.APIError{Code: -1121, Message: "Invalid symbol."}, ports.ErrInvalidRequest},
		{"signature", &common.APIError{Code: -1022, Message: "bad signature"}, ports.ErrAuthenticationFailed},
		{"unmapped", &common.APIError{Code: -9999, Message: "?"}, ports.ErrUnknown},
		{"deadline", context.DeadlineExceeded, ports.ErrTimeout},
		{"canceled", context.Canceled, ports.ErrContextCanceled},
		{"network", errors.New("read tcp: connection reset by peer"), ports.ErrConnectionFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeKlines{err: tt.err}
			_, err := newTestClient(api).FetchBars(context.Background(), "BTCUSDT",
				time.Unix(0, 0), time.Unix(86400*3, 0), domain.Daily)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
