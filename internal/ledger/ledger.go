// Package ledger holds the session's append-only trade registry. It is the
// only state shared across execution tasks, so every read and write goes
// through one mutex; reporting readers take the same lock to avoid tearing
// a snapshot while a countdown field is mid-update.
package ledger

import (
	"math"
	"sync"

	"pocketSignalBot/internal/domain"
)

// SessionStats is derived on demand from the ledger; it is never stored.
type SessionStats struct {
	TotalTrades    int
	Wins           int
	Losses         int
	Draws          int
	OpeningBalance float64
	CurrentBalance float64
	PnL            float64
}

// Ledger is the lock-guarded source of truth for session reporting.
// Records are appended and mutated in place, never deleted or reordered.
type Ledger struct {
	mu             sync.Mutex
	records        []*domain.TradeRecord
	openingBalance float64
	currentBalance float64
	pnl            float64
}

// New creates a ledger seeded with the opening account balance.
func New(openingBalance float64) *Ledger {
	return &Ledger{
		openingBalance: openingBalance,
		currentBalance: openingBalance,
	}
}

// Append adds a record and returns its index. The ledger owns the record
// from this point on; callers mutate it only through Mutate or SetResult.
func (l *Ledger) Append(rec *domain.TradeRecord) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, rec)
	return len(l.records) - 1
}

// Mutate applies fn to the record at idx under the ledger lock. It is meant
// for transient field updates (countdown strings, order IDs, timestamps);
// result transitions go through SetResult so terminal results stay final.
func (l *Ledger) Mutate(idx int, fn func(rec *domain.TradeRecord)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if idx < 0 || idx >= len(l.records) {
		return
	}
	fn(l.records[idx])
}

// SetResult transitions the record's result. A record that already carries a
// terminal result is left untouched and SetResult reports false; a result
// becomes terminal exactly once.
func (l *Ledger) SetResult(idx int, result domain.TradeResult, closeTime string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if idx < 0 || idx >= len(l.records) {
		return false
	}
	rec := l.records[idx]
	if rec.Result.IsTerminal() {
		return false
	}
	rec.Result = result
	if closeTime != "" {
		rec.CloseTime = closeTime
	}
	return true
}

// Get returns a copy of the record at idx.
func (l *Ledger) Get(idx int) (domain.TradeRecord, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if idx < 0 || idx >= len(l.records) {
		return domain.TradeRecord{}, false
	}
	return *l.records[idx], true
}

// Len returns the number of records.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Snapshot returns a consistent copy of all records in append order.
func (l *Ledger) Snapshot() []domain.TradeRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.TradeRecord, len(l.records))
	for i, rec := range l.records {
		out[i] = *rec
	}
	return out
}

// SetOpeningBalance re-seeds the opening capital once the real account
// balance is known. Session PnL resets to zero against the new baseline.
func (l *Ledger) SetOpeningBalance(opening float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.openingBalance = opening
	l.currentBalance = opening
	l.pnl = 0
}

// SetBalance refreshes the running account balance; session PnL is the
// difference against the opening balance, rounded to cents.
func (l *Ledger) SetBalance(current float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.currentBalance = current
	l.pnl = math.Round((current-l.openingBalance)*100) / 100
}

// Stats recomputes the session statistics from the current records.
// TotalTrades counts records whose order made it past the pending sentinel.
func (l *Ledger) Stats() SessionStats {
	l.mu.Lock()
	defer l.mu.Unlock()

	st := SessionStats{
		OpeningBalance: l.openingBalance,
		CurrentBalance: l.currentBalance,
		PnL:            l.pnl,
	}
	for _, rec := range l.records {
		if rec.OrderID != domain.OrderPending {
			st.TotalTrades++
		}
		switch rec.Result {
		case domain.ResultWin:
			st.Wins++
		case domain.ResultLoose:
			st.Losses++
		case domain.ResultDraw:
			st.Draws++
		}
	}
	return st
}
