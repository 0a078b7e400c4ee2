// Package csvdata serves daily bars from CSV files exported by cmd/fetch_bars,
// and a fixed account for offline dry runs.
package csvdata

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"equityDayBot/internal/domain"
	"equityDayBot/internal/ports"
	"equityDayBot/internal/utils"
)

// Provider implements ports.MarketDataProvider over a directory of CSV files.
type Provider struct {
	dir    string
	logger ports.Logger
}

// NewProvider creates a provider reading <dir>/<SYMBOL>_1d.csv files.
func NewProvider(dir string, logger ports.Logger) (*Provider, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for CSV provider")
	}
	if dir == "" {
		return nil, fmt.Errorf("csv data directory is required: %w", ports.ErrConfigurationError)
	}
	return &Provider{dir: dir, logger: logger}, nil
}

// FetchBars returns the candles whose timestamp falls inside [start, end].
// A missing file yields no bars.
func (p *Provider) FetchBars(ctx context.Context, symbol string, start, end time.Time, timeframe domain.Timeframe) ([]domain.Candle, error) {
	if timeframe != domain.Daily {
		return nil, fmt.Errorf("unsupported timeframe %q: %w", timeframe, ports.ErrInvalidRequest)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("read bars for %s: %w: %w", symbol, ports.ErrContextCanceled, err)
	}

	path := utils.CandleFileName(p.dir, symbol)
	all, err := utils.ReadCandlesFromCSV(path)
	if errors.Is(err, fs.ErrNotExist) {
		p.logger.Debug(ctx, "No CSV file for symbol", map[string]interface{}{"symbol": symbol, "path": path})
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read bars for %s: %w: %w", symbol, ports.ErrInvalidRequest, err)
	}

	out := make([]domain.Candle, 0, len(all))
	for _, c := range all {
		if c.Timestamp.Before(start) || c.Timestamp.After(end) {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// StaticAccount is an AccountProvider with fixed buying power.
type StaticAccount struct {
	BuyingPower float64
}

// GetAccount returns an active account holding BuyingPower in cash.
func (a StaticAccount) GetAccount(ctx context.Context) (*ports.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ports.ErrAccountUnavailable, err)
	}
	return &ports.Account{
		BuyingPower:    a.BuyingPower,
		Cash:           a.BuyingPower,
		Equity:         a.BuyingPower,
		PortfolioValue: a.BuyingPower,
		Status:         "OFFLINE",
	}, nil
}
