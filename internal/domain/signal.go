package domain

// TradeSignal is the outcome of evaluating one symbol.
//
// When ShouldTrade is true Notional is positive. TakeProfitPrice and
// StopLossPrice are optional; an order carries exit legs only when both are set.
type TradeSignal struct {
	Symbol          string   `json:"symbol" yaml:"symbol"`
	ShouldTrade     bool     `json:"should_trade" yaml:"should_trade"`
	Notional        float64  `json:"notional" yaml:"notional"`
	TakeProfitPrice *float64 `json:"take_profit_price" yaml:"take_profit_price"`
	StopLossPrice   *float64 `json:"stop_loss_price" yaml:"stop_loss_price"`
	Reason          string   `json:"reason" yaml:"reason"`
}

// Skip builds a non-trading signal.
func Skip(symbol, reason string) TradeSignal {
	return TradeSignal{Symbol: symbol, ShouldTrade: false, Reason: reason}
}

// Trade builds a trading signal with both exit prices set.
func Trade(symbol string, notional, takeProfit, stopLoss float64, reason string) TradeSignal {
	return TradeSignal{
		Symbol:          symbol,
		ShouldTrade:     true,
		Notional:        notional,
		TakeProfitPrice: Price(takeProfit),
		StopLossPrice:   Price(stopLoss),
		Reason:          reason,
	}
}

// HasBracket reports whether both exit prices are present.
func (s TradeSignal) HasBracket() bool {
	return s.TakeProfitPrice != nil && s.StopLossPrice != nil
}

// Price returns a pointer to p, for populating optional price fields.
func Price(p float64) *float64 {
	return &p
}

// CountTrades returns the number of trading signals in signals.
func CountTrades(signals []TradeSignal) int {
	n := 0
	for _, s := range signals {
		if s.ShouldTrade {
			n++
		}
	}
	return n
}
