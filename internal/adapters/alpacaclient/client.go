package alpacaclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"equityDayBot/internal/ports"
)

const (
	// Base URLs
	baseURLPaper = "https://paper-api.alpaca.markets"
	baseURLLive  = "https://api.alpaca.markets"
)

// tradingAPI is the subset of *alpaca.Client used by the adapter.
type tradingAPI interface {
	GetAccount() (*alpaca.Account, error)
	PlaceOrder(req alpaca.PlaceOrderRequest) (*alpaca.Order, error)
	GetOrder(orderID string) (*alpaca.Order, error)
	CancelOrder(orderID string) error
}

// barsAPI is the subset of *marketdata.Client used by the adapter.
type barsAPI interface {
	GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error)
}

var (
	_ ports.AccountProvider    = (*Client)(nil)
	_ ports.OrderExecutor      = (*Client)(nil)
	_ ports.MarketDataProvider = (*Client)(nil)
)

// Client implements ports.AccountProvider, ports.OrderExecutor and
// ports.MarketDataProvider on top of the Alpaca SDK.
type Client struct {
	trading tradingAPI
	data    barsAPI
	feed    marketdata.Feed
	logger  ports.Logger
}

// Config holds configuration specific to the Alpaca client adapter.
type Config struct {
	APIKey    string
	APISecret string
	Paper     bool
	Feed      string // iex (free) or sip
	Logger    ports.Logger
}

// New creates a new Alpaca client adapter.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Alpaca client")
	}
	if cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("alpaca API key and secret are required: %w", ports.ErrConfigurationError)
	}

	baseURL := baseURLLive
	if cfg.Paper {
		baseURL = baseURLPaper
	}
	trading := alpaca.NewClient(alpaca.ClientOpts{
		APIKey:    cfg.APIKey,
		APISecret: cfg.APISecret,
		BaseURL:   baseURL,
	})
	data := marketdata.NewClient(marketdata.ClientOpts{
		APIKey:    cfg.APIKey,
		APISecret: cfg.APISecret,
	})

	cfg.Logger.Info(context.Background(), "Alpaca client configured", map[string]interface{}{
		"baseURL": baseURL, "paper": cfg.Paper, "feed": strings.ToLower(cfg.Feed),
	})
	return newClient(trading, data, cfg.Feed, cfg.Logger), nil
}

func newClient(trading tradingAPI, data barsAPI, feed string, logger ports.Logger) *Client {
	return &Client{
		trading: trading,
		data:    data,
		feed:    parseFeed(feed),
		logger:  logger,
	}
}

func parseFeed(feed string) marketdata.Feed {
	if strings.EqualFold(feed, "sip") {
		return marketdata.SIP
	}
	return marketdata.IEX
}

// handleError translates Alpaca API errors into standardized ports errors.
func (c *Client) handleError(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}

	fields := map[string]interface{}{"operation": operation, "originalError": err.Error()}

	var apiErr *alpaca.APIError
	if errors.As(err, &apiErr) {
		fields["statusCode"] = apiErr.StatusCode
		fields["apiErrorCode"] = apiErr.Code
		fields["apiErrorMessage"] = apiErr.Message

		mappedErr := mapStatus(apiErr.StatusCode, apiErr.Message)
		c.logger.Error(ctx, err, fmt.Sprintf("%s failed with API error", operation), fields)
		return fmt.Errorf("%s failed: %w: %w", operation, mappedErr, err)
	}

	// Handle non-API errors (network, context cancellation, etc.)
	var finalErr error
	msg := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		finalErr = fmt.Errorf("%s operation canceled: %w: %w", operation, ports.ErrContextCanceled, err)
	case strings.Contains(msg, "too many requests") || strings.Contains(msg, "429"):
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrRateLimited, err)
	case strings.Contains(msg, "timeout"):
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrTimeout, err)
	case strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset by peer") ||
		strings.Contains(msg, "no such host") ||
		strings.Contains(msg, "eof"):
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrConnectionFailed, err)
	case strings.Contains(msg, "forbidden") || strings.Contains(msg, "unauthorized"):
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrAuthenticationFailed, err)
	default:
		finalErr = fmt.Errorf("%s failed: %w: %w", operation, ports.ErrUnknown, err)
	}

	c.logger.Error(ctx, err, fmt.Sprintf("%s failed", operation), fields)
	return finalErr
}

func mapStatus(status int, message string) error {
	switch {
	case status == http.StatusTooManyRequests:
		return ports.ErrRateLimited
	case status == http.StatusUnauthorized:
		return ports.ErrAuthenticationFailed
	case status == http.StatusForbidden:
		// Alpaca reports insufficient buying power as 403.
		if strings.Contains(strings.ToLower(message), "insufficient") {
			return ports.ErrInsufficientFunds
		}
		return ports.ErrAuthenticationFailed
	case status == http.StatusNotFound:
		return ports.ErrOrderNotFound
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return ports.ErrInvalidRequest
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return ports.ErrTimeout
	case status >= 500:
		return ports.ErrConnectionFailed
	default:
		return ports.ErrUnknown
	}
}
