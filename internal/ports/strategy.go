package ports

import (
	"context"

	"equityDayBot/internal/domain"
)

// Strategy decides whether to trade a single symbol.
type Strategy interface {
	// Evaluate produces a signal for symbol given the cash still available in
	// the current run. A non-nil error is converted into a skip by the caller.
	Evaluate(ctx context.Context, symbol string, availableCash float64, data MarketData) (domain.TradeSignal, error)

	// Name returns the display name of the strategy.
	Name() string

	// Description returns a short human readable description.
	Description() string
}
