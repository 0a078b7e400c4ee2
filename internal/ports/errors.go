package ports

import "errors"

// Standard application-level errors.
// Adapters should wrap underlying infrastructure errors with these standard errors.
var (
	// General Errors
	ErrUnknown            = errors.New("unknown error occurred")
	ErrInvalidRequest     = errors.New("invalid request parameters or format")
	ErrNotFound           = errors.New("resource not found")
	ErrTimeout            = errors.New("operation timed out")
	ErrContextCanceled    = errors.New("operation canceled via context")
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Market Data Errors
	ErrDataUnavailable  = errors.New("market data unavailable")
	ErrInsufficientData = errors.New("insufficient historical data")

	// Broker Specific Errors
	ErrAccountUnavailable    = errors.New("account information unavailable")
	ErrConnectionFailed      = errors.New("failed to connect to the provider")
	ErrRateLimited           = errors.New("API rate limit exceeded")
	ErrAuthenticationFailed  = errors.New("provider authentication failed (check API keys)")
	ErrInsufficientFunds     = errors.New("insufficient funds for operation")
	ErrOrderNotFound         = errors.New("order not found")
	ErrOrderSubmissionFailed = errors.New("failed to submit order")
	ErrOrderCancelFailed     = errors.New("failed to cancel order")

	// Database Specific Errors
	ErrDBConnection = errors.New("database connection error")
	ErrQueryFailed  = errors.New("database query failed")
)

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrConnectionFailed) ||
		errors.Is(err, ErrTimeout)
}

// ErrorType names the failure class of a run-level error, as reported in run
// results.
func ErrorType(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfigurationError):
		return "ConfigurationError"
	case errors.Is(err, ErrAccountUnavailable):
		return "AccountUnavailable"
	case errors.Is(err, ErrOrderSubmissionFailed):
		return "OrderSubmissionFailed"
	case errors.Is(err, ErrDataUnavailable), errors.Is(err, ErrInsufficientData):
		return "DataUnavailable"
	default:
		return "Unhandled"
	}
}
