package domain

// TradeSignal is an immutable parsed trade intent extracted from a channel
// message. It is created by the parser and never mutated afterwards.
type TradeSignal struct {
	Pair      string    // Normalized pair code, e.g. "EURUSD_otc"
	Direction Direction // call or put
	Expiry    int       // Expiration in seconds, always > 0
	EntryTime string    // Optional wall-clock "HH:MM" entry time, "" for immediate execution
	ChannelID int64     // Source channel identity
	RawText   string    // Original message text, kept for auditing
}

// HasEntryTime reports whether the signal carries a scheduled entry time.
func (s TradeSignal) HasEntryTime() bool {
	return s.EntryTime != ""
}
