package ports

import (
	"context"

	"pocketSignalBot/internal/domain"
)

// OrderResult holds the broker's response to a placement request. OrderID is
// empty when the broker accepted the call but issued no identifier, which
// the engine records as a failed placement.
type OrderResult struct {
	OrderID string // Broker-assigned identifier, "" on placement failure
	Raw     string // Raw response payload, kept for diagnostics
}

// Outcome is the broker's settlement verdict for a finished trade.
type Outcome struct {
	Profit float64 // Realized profit (negative on loss)
	Status string  // Broker status string; "" means the outcome could not be determined
}

// BrokerGateway defines the operations the execution engine needs from the
// trading platform. Implementations own transport, session, and protocol
// details.
type BrokerGateway interface {
	// Connect establishes the broker session. Must be called before any
	// other operation.
	Connect(ctx context.Context) error

	// GetBalance retrieves the current account balance.
	GetBalance(ctx context.Context) (float64, error)

	// PlaceOrder opens a binary-options position.
	PlaceOrder(ctx context.Context, stake float64, pair string, direction domain.Direction, expirySeconds int) (*OrderResult, error)

	// CheckOutcome queries the settlement result for an order once its
	// expiry has elapsed.
	CheckOutcome(ctx context.Context, orderID string) (*Outcome, error)
}

// AssetScheduleChecker is an optional gateway capability. Gateways that
// cannot report market hours simply do not implement it, and the engine
// assumes the asset is open.
type AssetScheduleChecker interface {
	// IsAssetOpen reports whether the instrument is currently tradable.
	IsAssetOpen(ctx context.Context, pair string) (bool, error)
}
