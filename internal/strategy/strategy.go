package strategy

import (
	"fmt"
	"strings"

	"equityDayBot/internal/ports"
)

// Registered strategy names.
const (
	NameGapDown       = "gap_down"
	NameMomentum      = "momentum"
	NameLowVolatility = "low_volatility"
)

// Config holds parameters for the selectable strategies.
type Config struct {
	CashAllocationPercent   float64 // Gap-down allocation, e.g. 0.05
	LookbackDays            int     // Gap-down average range window
	MomentumLookbackDays    int     // e.g. 5
	MomentumMinGainPercent  float64 // e.g. 2.0
	LowVolatilityMaxPercent float64 // e.g. 2.0
}

// DataDepth is implemented by strategies that know how many daily bars they
// read per symbol. It sizes the optional prefetch.
type DataDepth interface {
	RequiredDataPoints() int
}

// New creates the strategy registered under name.
func New(name string, cfg Config, logger ports.Logger) (ports.Strategy, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for strategy")
	}
	switch strings.ToLower(strings.TrimSpace(name)) {
	case NameGapDown, "":
		return NewGapDown(cfg.CashAllocationPercent, cfg.LookbackDays, logger)
	case NameMomentum:
		return NewMomentum(cfg.MomentumLookbackDays, cfg.MomentumMinGainPercent, logger)
	case NameLowVolatility:
		return NewLowVolatility(cfg.LowVolatilityMaxPercent, logger)
	default:
		return nil, fmt.Errorf("unknown strategy %q: %w", name, ports.ErrConfigurationError)
	}
}
