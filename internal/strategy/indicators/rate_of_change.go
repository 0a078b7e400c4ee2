package indicators

import (
	"context"
	"fmt"

	"equityDayBot/internal/domain"
)

// RateOfChange is the percentage change of the close over Period candles.
// It needs Period+1 candles.
type RateOfChange struct {
	BaseIndicator
}

// NewRateOfChange creates a rate of change indicator.
func NewRateOfChange(period int) *RateOfChange {
	return &RateOfChange{BaseIndicator{Config: IndicatorConfig{Period: period}}}
}

// Name returns the indicator name.
func (r *RateOfChange) Name() string {
	return fmt.Sprintf("ROC(%d)", r.Config.Period)
}

// RequiredDataPoints returns Period+1.
func (r *RateOfChange) RequiredDataPoints() int {
	return r.Config.Period + 1
}

// Calculate computes (last close - first close) / first close * 100.
func (r *RateOfChange) Calculate(ctx context.Context, candles []domain.Candle) (float64, error) {
	if r.Config.Period <= 0 {
		return 0, fmt.Errorf("%s: period must be positive", r.Name())
	}
	window, err := lastN(r.Name(), candles, r.RequiredDataPoints())
	if err != nil {
		return 0, err
	}
	first := window[0].Close
	if first <= 0 {
		return 0, fmt.Errorf("%s: non-positive base close %.4f", r.Name(), first)
	}
	last := window[len(window)-1].Close
	return (last - first) / first * 100, nil
}
