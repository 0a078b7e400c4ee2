package indicators

import (
	"context"
	"fmt"

	"equityDayBot/internal/domain"
	"equityDayBot/internal/ports"
)

// Indicator represents a technical indicator that can be calculated from price data
type Indicator interface {
	// Calculate computes the indicator value over the most recent candles.
	// Candles must be ordered oldest first.
	Calculate(ctx context.Context, candles []domain.Candle) (float64, error)

	// RequiredDataPoints returns the minimum number of candles needed for calculation
	RequiredDataPoints() int

	// Name returns the name of the indicator
	Name() string
}

// IndicatorConfig holds common configuration for indicators
type IndicatorConfig struct {
	Period int
}

// BaseIndicator provides common functionality for indicators
type BaseIndicator struct {
	Config IndicatorConfig
}

// RequiredDataPoints returns the minimum number of candles needed for calculation
func (b *BaseIndicator) RequiredDataPoints() int {
	return b.Config.Period
}

// lastN returns the trailing n candles or an ErrInsufficientData error.
func lastN(name string, candles []domain.Candle, n int) ([]domain.Candle, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%s: period must be positive, got %d", name, n)
	}
	if len(candles) < n {
		return nil, fmt.Errorf("not enough data points for %s calculation: need %d, got %d: %w",
			name, n, len(candles), ports.ErrInsufficientData)
	}
	return candles[len(candles)-n:], nil
}
