package ports

import (
	"context"
	"time"

	"equityDayBot/internal/domain"
)

// Account is a snapshot of the brokerage account relevant to a run.
type Account struct {
	BuyingPower    float64
	Cash           float64
	Equity         float64
	PortfolioValue float64
	TradingBlocked bool
	Status         string
}

// Tradeable reports whether the account can accept new orders.
func (a *Account) Tradeable() bool {
	return a != nil && !a.TradingBlocked && a.BuyingPower > 0
}

// OrderResponse represents the essential details returned after submitting an order.
type OrderResponse struct {
	OrderID       string    // Broker's order ID
	ClientOrderID string    // User-defined order ID
	Symbol        string    // Symbol for the order
	Status        string    // Order status (e.g., new, accepted, filled)
	Class         string    // Order class (e.g., simple, bracket)
	Notional      float64   // Dollar amount requested
	SubmittedAt   time.Time // Time the broker accepted the order
}

// AccountProvider reads brokerage account state.
type AccountProvider interface {
	GetAccount(ctx context.Context) (*Account, error)
}

// OrderExecutor submits and inspects orders at the broker.
type OrderExecutor interface {
	// SubmitOrder sends the order and returns the broker's handle.
	SubmitOrder(ctx context.Context, req domain.OrderRequest) (*OrderResponse, error)
	// GetOrderStatus retrieves an order by its broker ID.
	GetOrderStatus(ctx context.Context, orderID string) (*OrderResponse, error)
	// CancelOrder cancels an open order by its broker ID.
	CancelOrder(ctx context.Context, orderID string) error
}
