package marketdata

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jpillora/backoff"

	"equityDayBot/internal/domain"
	"equityDayBot/internal/ports"
	"equityDayBot/internal/strategy/indicators"
)

const (
	gapLookbackDays = 4 // Enough calendar slack to span a weekend
	defaultMaxDelay = 10 * time.Second
)

// Config holds retry settings for the fetcher.
type Config struct {
	MaxRetries int           // Retries after the first attempt for transient errors
	RetryDelay time.Duration // Initial backoff delay
	MaxDelay   time.Duration // Backoff ceiling; defaults to 10s
	Now        func() time.Time
}

// cachedBars is the sorted, untrimmed provider window fetched by Prefetch.
type cachedBars struct {
	depth int
	start time.Time
	bars  []domain.Candle
}

// Fetcher serves daily bars and derived gap/range figures to strategies.
// It implements ports.MarketData.
type Fetcher struct {
	provider ports.MarketDataProvider
	logger   ports.Logger
	cfg      Config

	mu    sync.RWMutex
	cache map[string]cachedBars
}

// NewFetcher creates a fetcher over provider.
func NewFetcher(provider ports.MarketDataProvider, logger ports.Logger, cfg Config) (*Fetcher, error) {
	if provider == nil {
		return nil, errors.New("market data provider is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required for market data fetcher")
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 500 * time.Millisecond
	}
	if cfg.MaxDelay < cfg.RetryDelay {
		cfg.MaxDelay = defaultMaxDelay
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Fetcher{
		provider: provider,
		logger:   logger,
		cfg:      cfg,
		cache:    make(map[string]cachedBars),
	}, nil
}

// GetHistoricalBars returns up to days daily bars for symbol, oldest first.
// The provider is asked for a window of 2*days calendar days to cover weekends
// and holidays; the result is trimmed to the most recent days bars and never
// padded. An empty slice with a nil error means the provider had no data.
func (f *Fetcher) GetHistoricalBars(ctx context.Context, symbol string, days int) ([]domain.Candle, error) {
	if days <= 0 {
		return nil, fmt.Errorf("GetHistoricalBars %s: days must be positive, got %d: %w", symbol, days, ports.ErrInvalidRequest)
	}

	if bars, ok := f.cached(symbol, days); ok {
		f.logger.Debug(ctx, "Serving bars from prefetch cache", map[string]interface{}{"symbol": symbol, "count": len(bars), "requested": days})
		return bars, nil
	}

	sorted, _, err := f.window(ctx, symbol, days)
	if err != nil {
		return nil, err
	}
	if len(sorted) == 0 {
		return []domain.Candle{}, nil
	}
	sorted = trim(sorted, days)

	f.logger.Info(ctx, "Fetched bars", map[string]interface{}{"symbol": symbol, "count": len(sorted), "requested": days})
	return sorted, nil
}

// window fetches the 2*days calendar window for symbol and returns it sorted
// oldest first together with the window start.
func (f *Fetcher) window(ctx context.Context, symbol string, days int) ([]domain.Candle, time.Time, error) {
	end := f.cfg.Now()
	start := end.AddDate(0, 0, -2*days)

	candles, err := f.fetchWithRetry(ctx, symbol, start, end)
	if err != nil {
		f.logger.Error(ctx, err, "Failed to fetch bars", map[string]interface{}{"symbol": symbol, "days": days})
		return nil, start, fmt.Errorf("fetch bars for %s: %w: %w", symbol, ports.ErrDataUnavailable, err)
	}

	if len(candles) == 0 {
		f.logger.Warn(ctx, "No bar data found", map[string]interface{}{"symbol": symbol})
		return nil, start, nil
	}

	sorted := make([]domain.Candle, len(candles))
	copy(sorted, candles)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return sorted, start, nil
}

// AverageCandleRange returns the mean of high-low over the most recent
// lookbackDays bars. It never averages over fewer bars than requested.
func (f *Fetcher) AverageCandleRange(ctx context.Context, symbol string, lookbackDays int) (float64, error) {
	candles, err := f.GetHistoricalBars(ctx, symbol, lookbackDays)
	if err != nil {
		return 0, err
	}
	avg, err := indicators.NewAverageRange(lookbackDays).Calculate(ctx, candles)
	if err != nil {
		f.logger.Warn(ctx, "Insufficient data for average candle range", map[string]interface{}{
			"symbol": symbol, "got": len(candles), "needed": lookbackDays,
		})
		return 0, fmt.Errorf("average candle range for %s: %w", symbol, err)
	}
	f.logger.Info(ctx, "Average candle range", map[string]interface{}{"symbol": symbol, "lookback": lookbackDays, "avgRange": fmt.Sprintf("%.2f", avg)})
	return avg, nil
}

// GapInfo compares the latest session's open with the previous close.
func (f *Fetcher) GapInfo(ctx context.Context, symbol string) (domain.GapInfo, error) {
	candles, err := f.GetHistoricalBars(ctx, symbol, gapLookbackDays)
	if err != nil {
		return domain.GapInfo{}, err
	}
	if len(candles) < 2 {
		return domain.GapInfo{}, fmt.Errorf("gap info for %s: need 2 bars, got %d: %w", symbol, len(candles), ports.ErrInsufficientData)
	}

	prev := candles[len(candles)-2]
	last := candles[len(candles)-1]
	if prev.Close <= 0 {
		return domain.GapInfo{}, fmt.Errorf("gap info for %s: non-positive previous close %.4f: %w", symbol, prev.Close, ports.ErrDataUnavailable)
	}

	info := domain.GapInfo{
		PreviousClose: prev.Close,
		CurrentOpen:   last.Open,
		GapPercent:    (last.Open - prev.Close) / prev.Close * 100,
	}
	f.logger.Info(ctx, "Gap info", map[string]interface{}{
		"symbol":        symbol,
		"previousClose": fmt.Sprintf("%.2f", info.PreviousClose),
		"currentOpen":   fmt.Sprintf("%.2f", info.CurrentOpen),
		"gapPercent":    fmt.Sprintf("%.2f", info.GapPercent),
	})
	return info, nil
}

// PreviousClose returns the close of the second most recent bar.
func (f *Fetcher) PreviousClose(ctx context.Context, symbol string) (float64, error) {
	candles, err := f.GetHistoricalBars(ctx, symbol, 2)
	if err != nil {
		return 0, err
	}
	if len(candles) < 2 {
		return 0, fmt.Errorf("previous close for %s: %w", symbol, ports.ErrInsufficientData)
	}
	return candles[len(candles)-2].Close, nil
}

// CurrentPrice returns the close of the most recent bar.
func (f *Fetcher) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	candles, err := f.GetHistoricalBars(ctx, symbol, 1)
	if err != nil {
		return 0, err
	}
	if len(candles) == 0 {
		return 0, fmt.Errorf("current price for %s: %w", symbol, ports.ErrInsufficientData)
	}
	return candles[len(candles)-1].Close, nil
}

// fetchWithRetry calls the provider, retrying transient failures with
// exponential backoff.
func (f *Fetcher) fetchWithRetry(ctx context.Context, symbol string, start, end time.Time) ([]domain.Candle, error) {
	b := &backoff.Backoff{
		Min:    f.cfg.RetryDelay,
		Max:    f.cfg.MaxDelay,
		Factor: 2,
		Jitter: true,
	}

	for attempt := 0; ; attempt++ {
		candles, err := f.provider.FetchBars(ctx, symbol, start, end, domain.Daily)
		if err == nil {
			return candles, nil
		}
		if !ports.IsTransient(err) || attempt >= f.cfg.MaxRetries {
			return nil, err
		}

		delay := b.Duration()
		f.logger.Warn(ctx, "Transient market data error, retrying", map[string]interface{}{
			"symbol": symbol, "attempt": attempt + 1, "delay": delay.String(), "error": err.Error(),
		})
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, fmt.Errorf("retry aborted: %w: %w", ports.ErrContextCanceled, ctx.Err())
		}
	}
}

func (f *Fetcher) cached(symbol string, days int) ([]domain.Candle, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	entry, ok := f.cache[symbol]
	if !ok || days > entry.depth {
		return nil, false
	}
	// Serve exactly what a direct fetch of this depth would have returned.
	start := f.cfg.Now().AddDate(0, 0, -2*days)
	if start.Before(entry.start) {
		return nil, false
	}
	in := make([]domain.Candle, 0, len(entry.bars))
	for _, c := range entry.bars {
		if !c.Timestamp.Before(start) {
			in = append(in, c)
		}
	}
	return trim(in, days), true
}

// ClearCache drops prefetched bars. Call between runs.
func (f *Fetcher) ClearCache() {
	f.mu.Lock()
	f.cache = make(map[string]cachedBars)
	f.mu.Unlock()
}

// trim returns a copy of the last n candles.
func trim(candles []domain.Candle, n int) []domain.Candle {
	if len(candles) > n {
		candles = candles[len(candles)-n:]
	}
	out := make([]domain.Candle, len(candles))
	copy(out, candles)
	return out
}
