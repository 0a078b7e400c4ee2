package risk

import (
	"fmt"
	"math"
)

// MinNotional is the smallest dollar amount a trade may be sized at.
const MinNotional = 1.0

// SizerConfig holds configuration for position sizing and percentage exits.
type SizerConfig struct {
	AllocationPercent float64 // Fraction of available cash per trade, in (0, 1]
	StopLossPercent   float64 // e.g. 0.05 places the stop 5% below entry
	TakeProfitPercent float64 // e.g. 0.05 places the target 5% above entry
}

// Sizer turns available cash into a trade notional and derives
// percentage-based exit prices for long entries.
type Sizer struct {
	config SizerConfig
}

// NewSizer creates a sizer. AllocationPercent must be in (0, 1].
func NewSizer(config SizerConfig) (*Sizer, error) {
	if math.IsNaN(config.AllocationPercent) || config.AllocationPercent <= 0 || config.AllocationPercent > 1 {
		return nil, fmt.Errorf("allocation percent must be in (0, 1], got %f", config.AllocationPercent)
	}
	if math.IsNaN(config.StopLossPercent) || config.StopLossPercent < 0 || config.StopLossPercent >= 1 {
		return nil, fmt.Errorf("stop loss percent must be in [0, 1), got %f", config.StopLossPercent)
	}
	if math.IsNaN(config.TakeProfitPercent) || math.IsInf(config.TakeProfitPercent, 0) || config.TakeProfitPercent < 0 {
		return nil, fmt.Errorf("take profit percent must be finite and non-negative, got %f", config.TakeProfitPercent)
	}
	return &Sizer{config: config}, nil
}

// Notional returns availableCash * AllocationPercent. The second result is
// false when the amount is below MinNotional, including when cash is negative.
func (s *Sizer) Notional(availableCash float64) (float64, bool) {
	notional := availableCash * s.config.AllocationPercent
	if math.IsNaN(notional) || notional < MinNotional {
		return notional, false
	}
	return notional, true
}

// StopLoss returns the stop price for a long entry.
func (s *Sizer) StopLoss(entryPrice float64) float64 {
	return entryPrice * (1 - s.config.StopLossPercent)
}

// TakeProfit returns the target price for a long entry.
func (s *Sizer) TakeProfit(entryPrice float64) float64 {
	return entryPrice * (1 + s.config.TakeProfitPercent)
}

// AllocationPercent returns the configured allocation.
func (s *Sizer) AllocationPercent() float64 {
	return s.config.AllocationPercent
}
