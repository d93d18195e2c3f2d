package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pocketSignalBot/internal/domain"
)

type nopLogger struct{}

func (nopLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (nopLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (nopLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (nopLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(Config{
		DBPath: filepath.Join(t.TempDir(), "test.db"),
		Logger: nopLogger{},
	})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func settledRecord(orderID string, result domain.TradeResult, profit float64) *domain.TradeRecord {
	return &domain.TradeRecord{
		ChainID:         "chain-1",
		ChannelID:       -100123,
		Asset:           "EURUSD_otc",
		OrderID:         orderID,
		ExpirationLabel: "5 Min",
		Position:        "CALL",
		Stake:           1.0,
		Profit:          profit,
		OpenTime:        "10:00:00.000",
		CloseTime:       "10:05:00",
		Result:          result,
		Level:           0,
	}
}

func TestNewRepository_RequiresLogger(t *testing.T) {
	_, err := NewRepository(Config{})
	assert.Error(t, err)
}

func TestCreateAndFindRecent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id1, err := repo.CreateTrade(ctx, settledRecord("o1", domain.ResultLoose, -1.0))
	require.NoError(t, err)
	assert.Greater(t, id1, int64(0))

	id2, err := repo.CreateTrade(ctx, settledRecord("o2", domain.ResultWin, 0.9))
	require.NoError(t, err)
	assert.Greater(t, id2, id1)

	records, err := repo.FindRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Most recent first.
	assert.Equal(t, "o2", records[0].OrderID)
	assert.Equal(t, domain.ResultWin, records[0].Result)
	assert.InDelta(t, 0.9, records[0].Profit, 1e-9)
	assert.Equal(t, "o1", records[1].OrderID)
}

func TestFindRecent_Limit(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := repo.CreateTrade(ctx, settledRecord("o", domain.ResultLoose, -1))
		require.NoError(t, err)
	}

	records, err := repo.FindRecent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestTotalProfit(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	total, err := repo.TotalProfit(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)

	_, err = repo.CreateTrade(ctx, settledRecord("o1", domain.ResultWin, 0.9))
	require.NoError(t, err)
	_, err = repo.CreateTrade(ctx, settledRecord("o2", domain.ResultWin, 1.8))
	require.NoError(t, err)
	_, err = repo.CreateTrade(ctx, settledRecord("o3", domain.ResultLoose, -1.0))
	require.NoError(t, err)

	total, err = repo.TotalProfit(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 2.7, total, 1e-9)
}
