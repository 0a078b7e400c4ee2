package domain

import (
	"errors"
	"time"
)

// BracketOrderParams holds the parameters of an entry order with attached
// take-profit and stop-loss legs.
type BracketOrderParams struct {
	Symbol          string
	Notional        float64
	TakeProfitPrice float64
	StopLossPrice   float64
	Side            OrderSide
	TimeInForce     TimeInForce
}

// NewBracketOrderParams builds bracket parameters from a signal. It fails when
// either exit price is missing.
func NewBracketOrderParams(sig TradeSignal) (BracketOrderParams, error) {
	if !sig.HasBracket() {
		return BracketOrderParams{}, errors.New("bracket order requires both take profit and stop loss prices")
	}
	return BracketOrderParams{
		Symbol:          sig.Symbol,
		Notional:        sig.Notional,
		TakeProfitPrice: *sig.TakeProfitPrice,
		StopLossPrice:   *sig.StopLossPrice,
		Side:            Buy,
		TimeInForce:     Day,
	}, nil
}

// OrderRequest is the provider-neutral order specification handed to an
// order execution provider.
type OrderRequest struct {
	ClientOrderID   string
	Symbol          string
	Notional        float64 // Dollar amount; fractional shares allowed
	Side            OrderSide
	Type            OrderType
	TimeInForce     TimeInForce
	Class           OrderClass
	TakeProfitPrice float64 // Limit price of the take-profit leg (bracket only)
	StopLossPrice   float64 // Stop price of the stop-loss leg (bracket only)
}

// BracketRequest converts bracket parameters into an order request.
func (p BracketOrderParams) BracketRequest(clientOrderID string) OrderRequest {
	return OrderRequest{
		ClientOrderID:   clientOrderID,
		Symbol:          p.Symbol,
		Notional:        p.Notional,
		Side:            p.Side,
		Type:            Market,
		TimeInForce:     p.TimeInForce,
		Class:           Bracket,
		TakeProfitPrice: p.TakeProfitPrice,
		StopLossPrice:   p.StopLossPrice,
	}
}

// MarketRequest builds a simple notional market order.
func MarketRequest(clientOrderID, symbol string, notional float64, side OrderSide, tif TimeInForce) OrderRequest {
	return OrderRequest{
		ClientOrderID: clientOrderID,
		Symbol:        symbol,
		Notional:      notional,
		Side:          side,
		Type:          Market,
		TimeInForce:   tif,
		Class:         Simple,
	}
}

// OrderOutcome records what happened when a trading signal was executed.
type OrderOutcome struct {
	Symbol   string     `json:"symbol"`
	Class    OrderClass `json:"order_class"`
	Notional float64    `json:"notional"`
	DryRun   bool       `json:"dry_run"`
	OrderID  string     `json:"order_id,omitempty"`
	Status   string     `json:"status,omitempty"`
	Error    string     `json:"error,omitempty"`
	At       time.Time  `json:"submitted_at"`
}

// Failed reports whether the submission failed.
func (o OrderOutcome) Failed() bool {
	return o.Error != ""
}
