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

	// Broker Specific Errors
	ErrBrokerUnavailable    = errors.New("broker API is unavailable")
	ErrConnectionFailed     = errors.New("failed to connect to the broker")
	ErrAuthenticationFailed = errors.New("broker session authentication failed (check session id)")
	ErrMarketClosed         = errors.New("asset is not currently tradable")
	ErrOrderPlacementFailed = errors.New("failed to place order")
	ErrOrderNotFound        = errors.New("order not found on the broker")

	// Signal Source Errors
	ErrListenerStopped = errors.New("signal listener stopped")

	// Database Specific Errors
	ErrDBConnection = errors.New("database connection error")
	ErrQueryFailed  = errors.New("database query failed")
)
