package strategy

import (
	"context"
	"fmt"

	"equityDayBot/internal/domain"
	"equityDayBot/internal/ports"
)

// EvaluateWatchlist runs strat over symbols in order and returns exactly one
// signal per symbol.
//
// Cash is allocated greedily: each evaluation sees the cash left after every
// earlier trade signal. A strategy returning more than the remaining cash
// drives the figure negative and later symbols see that figure. Errors and
// panics raised while evaluating one symbol become a skip for that symbol.
func EvaluateWatchlist(ctx context.Context, strat ports.Strategy, symbols []string, availableCash float64, data ports.MarketData, logger ports.Logger) []domain.TradeSignal {
	signals := make([]domain.TradeSignal, 0, len(symbols))
	remainingCash := availableCash

	for _, symbol := range symbols {
		logger.Info(ctx, "Evaluating symbol", map[string]interface{}{
			"symbol": symbol, "cash": fmt.Sprintf("%.2f", remainingCash),
		})

		signal, err := evaluateSafely(ctx, strat, symbol, remainingCash, data)
		if err == nil && signal.ShouldTrade && !(signal.Notional > 0) {
			err = fmt.Errorf("trade signal with non-positive notional %.2f", signal.Notional)
		}
		if err != nil {
			logger.Error(ctx, err, "Error evaluating symbol", map[string]interface{}{"symbol": symbol, "strategy": strat.Name()})
			signals = append(signals, domain.Skip(symbol, "Error: "+err.Error()))
			continue
		}
		if signal.Symbol == "" {
			signal.Symbol = symbol
		}
		signals = append(signals, signal)

		if !signal.ShouldTrade {
			logger.Info(ctx, "SKIP", map[string]interface{}{"symbol": symbol, "reason": signal.Reason})
			continue
		}

		remainingCash -= signal.Notional
		logger.Info(ctx, "TRADE", map[string]interface{}{
			"symbol": symbol, "reason": signal.Reason, "notional": fmt.Sprintf("%.2f", signal.Notional),
		})
		if remainingCash < 0 {
			logger.Warn(ctx, "Remaining cash is negative after allocation", map[string]interface{}{
				"symbol": symbol, "remainingCash": fmt.Sprintf("%.2f", remainingCash),
			})
		}
	}

	return signals
}

func evaluateSafely(ctx context.Context, strat ports.Strategy, symbol string, cash float64, data ports.MarketData) (signal domain.TradeSignal, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return strat.Evaluate(ctx, symbol, cash, data)
}
