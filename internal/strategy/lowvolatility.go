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

const volatilityWindow = 20

// LowVolatility only buys symbols whose average daily range, as a percentage
// of the close, stays at or below a ceiling. Sizing is conservative (3%).
type LowVolatility struct {
	volatility    *indicators.RangePercent
	maxVolatility float64
	sizer         *risk.Sizer
	logger        ports.Logger
}

// NewLowVolatility creates a low-volatility strategy.
func NewLowVolatility(maxVolatilityPercent float64, logger ports.Logger) (*LowVolatility, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for strategy")
	}
	if maxVolatilityPercent <= 0 {
		return nil, fmt.Errorf("max volatility must be positive, got %f", maxVolatilityPercent)
	}
	sizer, err := risk.NewSizer(risk.SizerConfig{AllocationPercent: 0.03, StopLossPercent: 0.02, TakeProfitPercent: 0.03})
	if err != nil {
		return nil, err
	}
	return &LowVolatility{
		volatility:    indicators.NewRangePercent(volatilityWindow),
		maxVolatility: maxVolatilityPercent,
		sizer:         sizer,
		logger:        logger,
	}, nil
}

func (s *LowVolatility) Name() string {
	return "Conservative Low-Volatility Strategy"
}

func (s *LowVolatility) Description() string {
	return fmt.Sprintf("Only trades stocks with volatility < %.1f%%", s.maxVolatility)
}

func (s *LowVolatility) RequiredDataPoints() int {
	return volatilityWindow
}

// Evaluate implements ports.Strategy.
func (s *LowVolatility) Evaluate(ctx context.Context, symbol string, availableCash float64, data ports.MarketData) (domain.TradeSignal, error) {
	bars, err := data.GetHistoricalBars(ctx, symbol, volatilityWindow)
	if err != nil {
		return domain.TradeSignal{}, err
	}

	vol, err := s.volatility.Calculate(ctx, bars)
	if errors.Is(err, ports.ErrInsufficientData) {
		return domain.Skip(symbol, "Insufficient data for volatility calculation"), nil
	}
	if err != nil {
		return domain.TradeSignal{}, err
	}

	if vol > s.maxVolatility {
		return domain.Skip(symbol, fmt.Sprintf("Too volatile: %.2f%% > %.1f%%", vol, s.maxVolatility)), nil
	}

	notional, ok := s.sizer.Notional(availableCash)
	if !ok {
		return domain.Skip(symbol, "Insufficient cash"), nil
	}

	price := bars[len(bars)-1].Close
	return domain.Trade(symbol, notional, s.sizer.TakeProfit(price), s.sizer.StopLoss(price),
		fmt.Sprintf("Low volatility: %.2f%%", vol)), nil
}
