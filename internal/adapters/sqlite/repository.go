// Package sqlite persists settled trade records so the session audit trail
// survives restarts.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"pocketSignalBot/internal/domain"
	"pocketSignalBot/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository implements the ports.TradeLogRepository interface using SQLite.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/signal_bot.db" // Default path
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000") // WAL mode for better concurrency
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("failed to ping database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// SQLite handles concurrency internally, but the Go driver benefits
	// from limiting connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cfg.Logger.Info(context.Background(), "SQLite database connection established", map[string]interface{}{"path": dbPath})

	repo := &Repository{db: db, logger: cfg.Logger}

	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	return repo, nil
}

// initializeSchema creates tables if they don't exist.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS trade_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		chain_id TEXT NOT NULL,
		channel_id INTEGER NOT NULL,
		asset TEXT NOT NULL,
		order_id TEXT NOT NULL,
		expiration TEXT NOT NULL,
		position TEXT NOT NULL,
		stake REAL NOT NULL,
		profit REAL NOT NULL,
		open_time TEXT NOT NULL DEFAULT '',
		close_time TEXT NOT NULL DEFAULT '',
		result TEXT NOT NULL,
		mtgl_level INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_trade_log_chain ON trade_log (chain_id);
	CREATE INDEX IF NOT EXISTS idx_trade_log_asset ON trade_log (asset);
	`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// CreateTrade saves a settled trade record and returns its assigned ID.
func (r *Repository) CreateTrade(ctx context.Context, rec *domain.TradeRecord) (int64, error) {
	const query = `
	INSERT INTO trade_log (chain_id, channel_id, asset, order_id, expiration, position, stake, profit, open_time, close_time, result, mtgl_level)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		rec.ChainID, rec.ChannelID, rec.Asset, rec.OrderID, rec.ExpirationLabel,
		rec.Position, rec.Stake, rec.Profit, rec.OpenTime, rec.CloseTime, string(rec.Result), rec.Level)
	if err != nil {
		return 0, fmt.Errorf("failed to insert trade for asset %s: %w", rec.Asset, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for trade %s: %w", rec.Asset, err)
	}
	r.logger.Debug(ctx, "Trade persisted", map[string]interface{}{"tradeID": id, "asset": rec.Asset, "result": rec.Result})
	return id, nil
}

// FindRecent retrieves the most recent persisted records, up to a limit.
func (r *Repository) FindRecent(ctx context.Context, limit int) ([]*domain.TradeRecord, error) {
	const query = `
	SELECT chain_id, channel_id, asset, order_id, expiration, position, stake, profit, open_time, close_time, result, mtgl_level
	FROM trade_log
	ORDER BY id DESC
	LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent trades: %w", err)
	}
	defer rows.Close()

	var records []*domain.TradeRecord
	for rows.Next() {
		rec := &domain.TradeRecord{}
		var result string
		if err := rows.Scan(&rec.ChainID, &rec.ChannelID, &rec.Asset, &rec.OrderID, &rec.ExpirationLabel,
			&rec.Position, &rec.Stake, &rec.Profit, &rec.OpenTime, &rec.CloseTime, &result, &rec.Level); err != nil {
			return nil, fmt.Errorf("failed to scan trade row: %w", err)
		}
		rec.Result = domain.TradeResult(result)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trade rows: %w", err)
	}
	return records, nil
}

// TotalProfit sums the recorded profit of all persisted WIN records.
func (r *Repository) TotalProfit(ctx context.Context) (float64, error) {
	const query = `SELECT COALESCE(SUM(profit), 0) FROM trade_log WHERE result = ?`

	var total float64
	if err := r.db.QueryRowContext(ctx, query, string(domain.ResultWin)).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum trade profit: %w", err)
	}
	return total, nil
}
