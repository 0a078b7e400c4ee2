package domain

import "time"

// Candle represents a single OHLCV bar. Candles are values and are never
// modified after a provider returns them.
type Candle struct {
	Timestamp time.Time // Start of the bar interval
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// Range returns the size of the candle (high - low).
func (c Candle) Range() float64 {
	return c.High - c.Low
}

// GapInfo describes the move between the previous session's close and the
// latest session's open.
type GapInfo struct {
	PreviousClose float64
	CurrentOpen   float64
	GapPercent    float64
}

// IsGapDown reports whether the latest open is strictly below the previous close.
func (g GapInfo) IsGapDown() bool {
	return g.CurrentOpen < g.PreviousClose
}
