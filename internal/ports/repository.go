package ports

import (
	"context"

	"pocketSignalBot/internal/domain"
)

// TradeLogRepository persists terminal trade records so the session audit
// trail survives restarts. Only settled records are written; the live
// in-memory ledger remains the source of truth during a run.
type TradeLogRepository interface {
	// CreateTrade saves a settled trade record and returns its assigned ID.
	CreateTrade(ctx context.Context, rec *domain.TradeRecord) (int64, error)
	// FindRecent retrieves the most recent persisted records, up to a limit.
	FindRecent(ctx context.Context, limit int) ([]*domain.TradeRecord, error)
	// TotalProfit sums the recorded profit of all persisted WIN records.
	TotalProfit(ctx context.Context) (float64, error)
}
