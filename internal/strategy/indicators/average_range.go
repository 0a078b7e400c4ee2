package indicators

import (
	"context"
	"fmt"

	"equityDayBot/internal/domain"
)

// AverageRange is the arithmetic mean of high-low over the last Period candles.
// Unlike ATR it ignores gaps between sessions.
type AverageRange struct {
	BaseIndicator
}

// NewAverageRange creates an average range indicator.
func NewAverageRange(period int) *AverageRange {
	return &AverageRange{BaseIndicator{Config: IndicatorConfig{Period: period}}}
}

// Name returns the indicator name.
func (a *AverageRange) Name() string {
	return fmt.Sprintf("AvgRange(%d)", a.Config.Period)
}

// Calculate computes the mean range.
func (a *AverageRange) Calculate(ctx context.Context, candles []domain.Candle) (float64, error) {
	window, err := lastN(a.Name(), candles, a.Config.Period)
	if err != nil {
		return 0, err
	}
	sum := 0.0
	for _, c := range window {
		sum += c.Range()
	}
	return sum / float64(len(window)), nil
}

// RangePercent is the mean of (high-low)/close*100 over the last Period
// candles, a simple daily volatility measure.
type RangePercent struct {
	BaseIndicator
}

// NewRangePercent creates a range percent indicator.
func NewRangePercent(period int) *RangePercent {
	return &RangePercent{BaseIndicator{Config: IndicatorConfig{Period: period}}}
}

// Name returns the indicator name.
func (r *RangePercent) Name() string {
	return fmt.Sprintf("RangePct(%d)", r.Config.Period)
}

// Calculate computes the mean range percentage.
func (r *RangePercent) Calculate(ctx context.Context, candles []domain.Candle) (float64, error) {
	window, err := lastN(r.Name(), candles, r.Config.Period)
	if err != nil {
		return 0, err
	}
	sum := 0.0
	for _, c := range window {
		if c.Close <= 0 {
			return 0, fmt.Errorf("%s: non-positive close %.4f at %s", r.Name(), c.Close, c.Timestamp.Format("2006-01-02"))
		}
		sum += c.Range() / c.Close * 100
	}
	return sum / float64(len(window)), nil
}
