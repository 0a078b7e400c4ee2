package strategy

import (
	"context"
	"errors"
	"fmt"

	"equityDayBot/internal/domain"
	"equityDayBot/internal/ports"
	"equityDayBot/internal/risk"
	"equityDayBot/internal/strategy/indicators"
)

// Momentum buys symbols whose close rose by at least MinGainPercent over the
// lookback window, with symmetric 5% exits.
type Momentum struct {
	roc            *indicators.RateOfChange
	minGainPercent float64
	sizer          *risk.Sizer
	logger         ports.Logger
}

// NewMomentum creates a momentum strategy allocating 5% of available cash.
func NewMomentum(lookbackDays int, minGainPercent float64, logger ports.Logger) (*Momentum, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for strategy")
	}
	if lookbackDays < 1 {
		return nil, fmt.Errorf("momentum lookback must be at least 1, got %d", lookbackDays)
	}
	sizer, err := risk.NewSizer(risk.SizerConfig{AllocationPercent: 0.05, StopLossPercent: 0.05, TakeProfitPercent: 0.05})
	if err != nil {
		return nil, err
	}
	return &Momentum{
		roc:            indicators.NewRateOfChange(lookbackDays),
		minGainPercent: minGainPercent,
		sizer:          sizer,
		logger:         logger,
	}, nil
}

func (s *Momentum) Name() string {
	return "Momentum Strategy"
}

func (s *Momentum) Description() string {
	return fmt.Sprintf("Buys stocks with >%.1f%% gain over last %d days", s.minGainPercent, s.roc.Config.Period)
}

// RequiredDataPoints returns lookback+1.
func (s *Momentum) RequiredDataPoints() int {
	return s.roc.RequiredDataPoints()
}

// Evaluate implements ports.Strategy.
func (s *Momentum) Evaluate(ctx context.Context, symbol string, availableCash float64, data ports.MarketData) (domain.TradeSignal, error) {
	bars, err := data.GetHistoricalBars(ctx, symbol, s.RequiredDataPoints())
	if err != nil {
		return domain.TradeSignal{}, err
	}

	gain, err := s.roc.Calculate(ctx, bars)
	if errors.Is(err, ports.ErrInsufficientData) {
		return domain.Skip(symbol, "Insufficient data"), nil
	}
	if err != nil {
		return domain.TradeSignal{}, err
	}

	if gain < s.minGainPercent {
		return domain.Skip(symbol, fmt.Sprintf("Momentum %.2f%% < %.1f%%", gain, s.minGainPercent)), nil
	}

	notional, ok := s.sizer.Notional(availableCash)
	if !ok {
		return domain.Skip(symbol, "Insufficient cash"), nil
	}

	price := bars[len(bars)-1].Close
	return domain.Trade(symbol, notional, s.sizer.TakeProfit(price), s.sizer.StopLoss(price),
		fmt.Sprintf("Strong momentum: %.2f%% over %d days", gain, s.roc.Config.Period)), nil
}
