package marketdata

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Prefetch loads the days-deep bar window for every symbol with at most
// concurrency requests in flight and caches it for the lifetime of the run.
// Shallower requests are cut from the cached window by their own calendar
// range, so a long market closure yields the same bars as a direct fetch.
// Failures are logged and left uncached so the sequential evaluation retries
// them and reports the error per symbol.
func (f *Fetcher) Prefetch(ctx context.Context, symbols []string, days, concurrency int) {
	if concurrency <= 0 || days <= 0 || len(symbols) == 0 {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	seen := make(map[string]bool, len(symbols))
	for _, symbol := range symbols {
		if seen[symbol] {
			continue
		}
		seen[symbol] = true

		symbol := symbol
		g.Go(func() error {
			bars, start, err := f.window(gctx, symbol, days)
			if err != nil {
				f.logger.Warn(gctx, "Prefetch failed", map[string]interface{}{"symbol": symbol, "error": err.Error()})
				return nil
			}
			f.mu.Lock()
			f.cache[symbol] = cachedBars{depth: days, start: start, bars: bars}
			f.mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // Workers never return errors

	f.logger.Info(ctx, "Prefetch complete", map[string]interface{}{"symbols": len(seen), "days": days, "concurrency": concurrency})
}
