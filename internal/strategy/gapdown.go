package strategy

import (
	"context"
	"errors"
	"fmt"

	"equityDayBot/internal/domain"
	"equityDayBot/internal/ports"
	"equityDayBot/internal/risk"
)

const gapLookbackDays = 4

// GapDown buys symbols whose latest session opened below the previous close.
// Exits are placed one average candle range above and below the open.
type GapDown struct {
	sizer        *risk.Sizer
	lookbackDays int
	logger       ports.Logger
}

// NewGapDown creates a gap-down strategy.
func NewGapDown(cashAllocationPercent float64, lookbackDays int, logger ports.Logger) (*GapDown, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required for strategy")
	}
	if lookbackDays < 1 {
		return nil, fmt.Errorf("lookback days must be at least 1, got %d", lookbackDays)
	}
	sizer, err := risk.NewSizer(risk.SizerConfig{AllocationPercent: cashAllocationPercent})
	if err != nil {
		return nil, fmt.Errorf("gap-down strategy: %w", err)
	}
	return &GapDown{sizer: sizer, lookbackDays: lookbackDays, logger: logger}, nil
}

// Name returns the display name.
func (s *GapDown) Name() string {
	return "Simple Gap-Down Strategy"
}

// Description summarizes the parameters.
func (s *GapDown) Description() string {
	return fmt.Sprintf("Buys stocks gapping down (open < prev close) with %.1f%% cash allocation. TP/SL based on %d-day average candle size.",
		s.sizer.AllocationPercent()*100, s.lookbackDays)
}

// RequiredDataPoints returns the deepest bar request made per symbol.
func (s *GapDown) RequiredDataPoints() int {
	if s.lookbackDays > gapLookbackDays {
		return s.lookbackDays
	}
	return gapLookbackDays
}

// Evaluate implements ports.Strategy.
func (s *GapDown) Evaluate(ctx context.Context, symbol string, availableCash float64, data ports.MarketData) (domain.TradeSignal, error) {
	notional, ok := s.sizer.Notional(availableCash)
	if !ok {
		return domain.Skip(symbol, fmt.Sprintf("Insufficient cash ($%.2f)", availableCash)), nil
	}

	gap, err := data.GapInfo(ctx, symbol)
	if errors.Is(err, ports.ErrInsufficientData) {
		return domain.Skip(symbol, "Insufficient historical data"), nil
	}
	if err != nil {
		return domain.TradeSignal{}, err
	}

	if !gap.IsGapDown() {
		return domain.Skip(symbol, fmt.Sprintf("No gap down (open=$%.2f >= prev_close=$%.2f)", gap.CurrentOpen, gap.PreviousClose)), nil
	}

	avgRange, err := data.AverageCandleRange(ctx, symbol, s.lookbackDays)
	if errors.Is(err, ports.ErrInsufficientData) {
		return domain.Skip(symbol, "Cannot calculate average candle size"), nil
	}
	if err != nil {
		return domain.TradeSignal{}, err
	}

	entry := gap.CurrentOpen
	takeProfit := entry + avgRange
	stopLoss := entry - avgRange
	if stopLoss <= 0 {
		stopLoss = entry * 0.5
	}

	s.logger.Debug(ctx, "Gap-down entry", map[string]interface{}{
		"symbol": symbol, "entry": entry, "avgRange": avgRange, "takeProfit": takeProfit, "stopLoss": stopLoss,
	})

	return domain.Trade(symbol, notional, takeProfit, stopLoss, fmt.Sprintf(
		"Gap down %.2f%% (open=$%.2f, prev_close=$%.2f), avg_candle=$%.2f, TP=$%.2f, SL=$%.2f",
		gap.GapPercent, gap.CurrentOpen, gap.PreviousClose, avgRange, takeProfit, stopLoss,
	)), nil
}
