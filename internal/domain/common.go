package domain

// Direction is the side of a binary-options trade (broker vocabulary).
type Direction string

const (
	Call Direction = "call"
	Put  Direction = "put"
)

// Position returns the direction the way the session table displays it.
func (d Direction) Position() string {
	if d == Call {
		return "CALL"
	}
	return "PUT"
}

// TradeResult represents the settlement state of a trade record.
type TradeResult string

const (
	ResultWaiting      TradeResult = "WAITING"
	ResultWin          TradeResult = "WIN"
	ResultLoose        TradeResult = "LOOSE"
	ResultDraw         TradeResult = "DRAW"
	ResultUnknown      TradeResult = "UNKNOWN"
	ResultFailed       TradeResult = "FAILED"
	ResultMarketClosed TradeResult = "MARKET CLOSED"
)

// IsTerminal reports whether the result is final for its record.
// A terminal result is written exactly once and never reverted.
func (r TradeResult) IsTerminal() bool {
	switch r {
	case ResultWin, ResultLoose, ResultDraw, ResultUnknown, ResultFailed, ResultMarketClosed:
		return true
	}
	return false
}

// OrderPending is the order ID sentinel used before the broker assigns an identifier.
const OrderPending = "PENDING"
