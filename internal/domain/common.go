package domain

// OrderSide represents the side of an order. The bot only opens longs.
type OrderSide string

const Buy OrderSide = "BUY"

// TimeInForce controls how long an order stays working.
type TimeInForce string

const Day TimeInForce = "DAY"

// OrderType is the entry order type.
type OrderType string

const Market OrderType = "MARKET"

// OrderClass distinguishes a plain order from one with attached exit legs.
type OrderClass string

const (
	Simple  OrderClass = "SIMPLE"
	Bracket OrderClass = "BRACKET"
)

// Timeframe is the bar aggregation requested from a market data provider.
type Timeframe string

const (
	Daily Timeframe = "1d"
)
