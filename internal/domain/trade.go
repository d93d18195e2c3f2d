package domain

import (
	"fmt"
	"time"
)

// TradeRecord is one placed-or-attempted trade. Every martingale retry gets
// its own record, chained to the originating signal by ChainID. Records are
// append-only: they are created once and mutated in place by the execution
// engine, never deleted.
type TradeRecord struct {
	ChainID         string      // Identifies the originating signal's chain of attempts
	ChannelID       int64       // Source channel of the originating signal
	Asset           string      // Normalized pair code
	OrderID         string      // OrderPending, a transient countdown string, or the broker-issued identifier
	ExpirationLabel string      // Human-readable expiry, e.g. "30 Sec", "5 Min", "1 Hr"
	Position        string      // Display direction (CALL/PUT)
	Stake           float64     // Amount risked on this attempt
	Profit          float64     // Settlement profit reported by the broker, 0 until settled
	OpenTime        string      // Formatted open timestamp, "" until the order is accepted
	CloseTime       string      // Formatted close timestamp or transient "Pending (M:SS Left)" countdown
	Result          TradeResult // Settlement state, terminal exactly once
	Level           int         // Martingale retry depth, 0 for the initial attempt
	CloseDeadline   time.Time   // Absolute settlement deadline, zero until the order is accepted
}

// ExpirationLabel formats an expiry in seconds the way the session table
// displays it.
func ExpirationLabel(expirySeconds int) string {
	switch {
	case expirySeconds < 60:
		return fmt.Sprintf("%d Sec", expirySeconds)
	case expirySeconds < 3600:
		return fmt.Sprintf("%d Min", expirySeconds/60)
	default:
		return fmt.Sprintf("%d Hr", expirySeconds/3600)
	}
}

// FormatOpenTime renders an open timestamp with millisecond precision.
func FormatOpenTime(t time.Time) string {
	return t.Format("15:04:05.000")
}

// FormatCloseTime renders a close timestamp.
func FormatCloseTime(t time.Time) string {
	return t.Format("15:04:05")
}
