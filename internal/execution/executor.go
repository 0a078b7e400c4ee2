package execution

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"equityDayBot/internal/domain"
	"equityDayBot/internal/ports"
)

// Executor turns trade signals into broker orders. Signals with both exit
// prices become bracket orders; anything else becomes a simple notional
// market buy.
type Executor struct {
	orders ports.OrderExecutor
	logger ports.Logger
	newID  func() string
	now    func() time.Time
}

// NewExecutor creates an executor. orders may be nil for dry-run only
// deployments; live submissions then fail with ErrOrderSubmissionFailed.
func NewExecutor(orders ports.OrderExecutor, logger ports.Logger) (*Executor, error) {
	if logger == nil {
		return nil, errors.New("logger is required for executor")
	}
	return &Executor{
		orders: orders,
		logger: logger,
		newID:  uuid.NewString,
		now:    time.Now,
	}, nil
}

// BuildRequest translates a trade signal into a provider-neutral order.
func BuildRequest(sig domain.TradeSignal, clientOrderID string) domain.OrderRequest {
	if params, err := domain.NewBracketOrderParams(sig); err == nil {
		return params.BracketRequest(clientOrderID)
	}
	return domain.MarketRequest(clientOrderID, sig.Symbol, sig.Notional, domain.Buy, domain.Day)
}

// Execute places the order for sig. In dry-run mode the intended order is
// logged and nil is returned without contacting the broker.
func (e *Executor) Execute(ctx context.Context, sig domain.TradeSignal, dryRun bool) (*ports.OrderResponse, error) {
	if !sig.ShouldTrade {
		return nil, fmt.Errorf("signal for %s is not a trade: %w", sig.Symbol, ports.ErrInvalidRequest)
	}
	if !(sig.Notional > 0) {
		return nil, fmt.Errorf("notional for %s must be positive, got %.2f: %w", sig.Symbol, sig.Notional, ports.ErrInvalidRequest)
	}

	req := BuildRequest(sig, e.newID())
	fields := requestFields(req)

	if dryRun {
		e.logger.Info(ctx, fmt.Sprintf("DRY RUN: would place %s order", req.Class), fields)
		return nil, nil
	}

	if e.orders == nil {
		err := fmt.Errorf("no order executor configured for %s: %w", sig.Symbol, ports.ErrOrderSubmissionFailed)
		e.logger.Error(ctx, err, "Order submission failed", fields)
		return nil, err
	}

	resp, err := e.orders.SubmitOrder(ctx, req)
	if err != nil {
		e.logger.Error(ctx, err, "Order submission failed", fields)
		return nil, fmt.Errorf("submit %s order for %s: %w: %w", req.Class, req.Symbol, ports.ErrOrderSubmissionFailed, err)
	}

	fields["orderID"] = resp.OrderID
	fields["status"] = resp.Status
	e.logger.Info(ctx, fmt.Sprintf("Placed %s order", req.Class), fields)
	return resp, nil
}

// ExecuteAll executes every trade signal in order. A failed submission is
// recorded in its outcome and does not stop later submissions.
func (e *Executor) ExecuteAll(ctx context.Context, signals []domain.TradeSignal, dryRun bool) []domain.OrderOutcome {
	outcomes := make([]domain.OrderOutcome, 0, domain.CountTrades(signals))
	for _, sig := range signals {
		if !sig.ShouldTrade {
			continue
		}
		class := domain.Simple
		if sig.HasBracket() {
			class = domain.Bracket
		}
		outcome := domain.OrderOutcome{
			Symbol:   sig.Symbol,
			Class:    class,
			Notional: sig.Notional,
			DryRun:   dryRun,
			At:       e.now().UTC(),
		}

		resp, err := e.Execute(ctx, sig, dryRun)
		switch {
		case err != nil:
			outcome.Error = err.Error()
		case resp != nil:
			outcome.OrderID = resp.OrderID
			outcome.Status = resp.Status
		default:
			outcome.Status = "dry_run"
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

// GetOrderStatus looks up an order at the broker.
func (e *Executor) GetOrderStatus(ctx context.Context, orderID string) (*ports.OrderResponse, error) {
	if e.orders == nil {
		return nil, fmt.Errorf("no order executor configured: %w", ports.ErrOrderNotFound)
	}
	resp, err := e.orders.GetOrderStatus(ctx, orderID)
	if err != nil {
		e.logger.Error(ctx, err, "Failed to get order status", map[string]interface{}{"orderID": orderID})
		return nil, err
	}
	return resp, nil
}

// CancelOrder cancels an open order at the broker.
func (e *Executor) CancelOrder(ctx context.Context, orderID string) error {
	if e.orders == nil {
		return fmt.Errorf("no order executor configured: %w", ports.ErrOrderCancelFailed)
	}
	if err := e.orders.CancelOrder(ctx, orderID); err != nil {
		e.logger.Error(ctx, err, "Failed to cancel order", map[string]interface{}{"orderID": orderID})
		return err
	}
	e.logger.Info(ctx, "Cancelled order", map[string]interface{}{"orderID": orderID})
	return nil
}

func requestFields(req domain.OrderRequest) map[string]interface{} {
	fields := map[string]interface{}{
		"symbol":        req.Symbol,
		"notional":      fmt.Sprintf("%.2f", req.Notional),
		"side":          req.Side,
		"type":          req.Type,
		"timeInForce":   req.TimeInForce,
		"class":         req.Class,
		"clientOrderID": req.ClientOrderID,
	}
	if req.Class == domain.Bracket {
		fields["takeProfit"] = fmt.Sprintf("%.2f", req.TakeProfitPrice)
		fields["stopLoss"] = fmt.Sprintf("%.2f", req.StopLossPrice)
	}
	return fields
}
