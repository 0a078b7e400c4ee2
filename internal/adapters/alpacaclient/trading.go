package alpacaclient

import (
	"context"
	"fmt"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/shopspring/decimal"

	"equityDayBot/internal/domain"
	"equityDayBot/internal/ports"
)

// GetAccount retrieves buying power and trading status.
func (c *Client) GetAccount(ctx context.Context) (*ports.Account, error) {
	op := "GetAccount"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ports.ErrAccountUnavailable, c.handleError(ctx, err, op))
	}
	acct, err := c.trading.GetAccount()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ports.ErrAccountUnavailable, c.handleError(ctx, err, op))
	}
	if acct == nil {
		return nil, fmt.Errorf("%s: empty response: %w", op, ports.ErrAccountUnavailable)
	}

	resp := &ports.Account{
		BuyingPower:    acct.BuyingPower.InexactFloat64(),
		Cash:           acct.Cash.InexactFloat64(),
		Equity:         acct.Equity.InexactFloat64(),
		PortfolioValue: acct.PortfolioValue.InexactFloat64(),
		TradingBlocked: acct.TradingBlocked,
		Status:         acct.Status,
	}
	c.logger.Debug(ctx, op+" successful", map[string]interface{}{
		"buyingPower": resp.BuyingPower, "status": resp.Status, "tradingBlocked": resp.TradingBlocked,
	})
	return resp, nil
}

// SubmitOrder places a notional market buy, with exit legs for bracket requests.
func (c *Client) SubmitOrder(ctx context.Context, req domain.OrderRequest) (*ports.OrderResponse, error) {
	op := "SubmitOrder"
	if err := ctx.Err(); err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	placeReq, err := buildPlaceOrderRequest(req)
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w: %w", op, ports.ErrInvalidRequest, err)
	}

	order, err := c.trading.PlaceOrder(placeReq)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}

	resp := translateOrder(order)
	c.logger.Info(ctx, op+" successful", map[string]interface{}{
		"symbol": resp.Symbol, "orderID": resp.OrderID, "status": resp.Status, "class": resp.Class,
	})
	return resp, nil
}

// GetOrderStatus retrieves an order by ID.
func (c *Client) GetOrderStatus(ctx context.Context, orderID string) (*ports.OrderResponse, error) {
	op := "GetOrderStatus"
	if err := ctx.Err(); err != nil {
		return nil, c.handleError(ctx, err, op)
	}
	order, err := c.trading.GetOrder(orderID)
	if err != nil {
		return nil, c.handleError(ctx, err, op)
	}
	return translateOrder(order), nil
}

// CancelOrder cancels an open order by ID.
func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	op := "CancelOrder"
	if err := ctx.Err(); err != nil {
		return c.handleError(ctx, err, op)
	}
	if err := c.trading.CancelOrder(orderID); err != nil {
		return fmt.Errorf("%w: %w", ports.ErrOrderCancelFailed, c.handleError(ctx, err, op))
	}
	c.logger.Debug(ctx, op+" successful", map[string]interface{}{"orderID": orderID})
	return nil
}

// buildPlaceOrderRequest rounds amounts to cents and maps enums onto the SDK.
func buildPlaceOrderRequest(req domain.OrderRequest) (alpaca.PlaceOrderRequest, error) {
	if req.Symbol == "" {
		return alpaca.PlaceOrderRequest{}, fmt.Errorf("symbol is required")
	}
	notional := cents(req.Notional)
	if !notional.IsPositive() {
		return alpaca.PlaceOrderRequest{}, fmt.Errorf("notional must be at least $0.01, got %.4f", req.Notional)
	}

	if req.Side != "" && req.Side != domain.Buy {
		return alpaca.PlaceOrderRequest{}, fmt.Errorf("unsupported order side %s", req.Side)
	}
	if req.TimeInForce != "" && req.TimeInForce != domain.Day {
		return alpaca.PlaceOrderRequest{}, fmt.Errorf("unsupported time in force %s", req.TimeInForce)
	}
	if req.Type != "" && req.Type != domain.Market {
		return alpaca.PlaceOrderRequest{}, fmt.Errorf("unsupported order type %s", req.Type)
	}

	out := alpaca.PlaceOrderRequest{
		Symbol:        req.Symbol,
		Notional:      &notional,
		Side:          alpaca.Buy,
		Type:          alpaca.Market,
		TimeInForce:   alpaca.Day,
		ClientOrderID: req.ClientOrderID,
		OrderClass:    alpaca.Simple,
	}

	if req.Class == domain.Bracket {
		tp := cents(req.TakeProfitPrice)
		sl := cents(req.StopLossPrice)
		if !tp.IsPositive() || !sl.IsPositive() {
			return alpaca.PlaceOrderRequest{}, fmt.Errorf("bracket prices must be positive (tp=%s, sl=%s)", tp, sl)
		}
		if !tp.GreaterThan(sl) {
			return alpaca.PlaceOrderRequest{}, fmt.Errorf("take profit %s must be above stop loss %s", tp, sl)
		}
		out.OrderClass = alpaca.Bracket
		out.TakeProfit = &alpaca.TakeProfit{LimitPrice: &tp}
		out.StopLoss = &alpaca.StopLoss{StopPrice: &sl}
	}
	return out, nil
}

func cents(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

func translateOrder(order *alpaca.Order) *ports.OrderResponse {
	if order == nil {
		return &ports.OrderResponse{}
	}
	resp := &ports.OrderResponse{
		OrderID:       order.ID,
		ClientOrderID: order.ClientOrderID,
		Symbol:        order.Symbol,
		Status:        order.Status,
		Class:         string(order.OrderClass),
		SubmittedAt:   order.SubmittedAt,
	}
	if order.Notional != nil {
		resp.Notional = order.Notional.InexactFloat64()
	}
	return resp
}
