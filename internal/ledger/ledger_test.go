package ledger

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pocketSignalBot/internal/domain"
)

func newRecord(asset string) *domain.TradeRecord {
	return &domain.TradeRecord{
		Asset:    asset,
		OrderID:  domain.OrderPending,
		Position: "CALL",
		Result:   domain.ResultWaiting,
	}
}

func TestAppendAndSnapshot(t *testing.T) {
	l := New(100)

	idx1 := l.Append(newRecord("EURUSD_otc"))
	idx2 := l.Append(newRecord("GBPJPY_otc"))
	assert.Equal(t, 0, idx1)
	assert.Equal(t, 1, idx2)
	assert.Equal(t, 2, l.Len())

	snap := l.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "EURUSD_otc", snap[0].Asset)
	assert.Equal(t, "GBPJPY_otc", snap[1].Asset)

	// Snapshot is a copy; mutating it must not leak into the ledger.
	snap[0].Asset = "mutated"
	got, ok := l.Get(0)
	require.True(t, ok)
	assert.Equal(t, "EURUSD_otc", got.Asset)
}

func TestMutateUpdatesInPlace(t *testing.T) {
	l := New(100)
	idx := l.Append(newRecord("EURUSD_otc"))

	l.Mutate(idx, func(rec *domain.TradeRecord) {
		rec.OrderID = "order-1"
		rec.CloseTime = "Pending (0:30 Left)"
	})

	got, ok := l.Get(idx)
	require.True(t, ok)
	assert.Equal(t, "order-1", got.OrderID)
	assert.Equal(t, "Pending (0:30 Left)", got.CloseTime)
}

func TestSetResult_TerminalExactlyOnce(t *testing.T) {
	l := New(100)
	idx := l.Append(newRecord("EURUSD_otc"))

	assert.True(t, l.SetResult(idx, domain.ResultLoose, "10:00:01"))
	assert.False(t, l.SetResult(idx, domain.ResultWin, "10:00:02"))

	got, _ := l.Get(idx)
	assert.Equal(t, domain.ResultLoose, got.Result)
	assert.Equal(t, "10:00:01", got.CloseTime)
}

func TestSetResult_OutOfRange(t *testing.T) {
	l := New(100)
	assert.False(t, l.SetResult(5, domain.ResultWin, ""))
}

func TestSetOpeningBalance_ResetsBaseline(t *testing.T) {
	l := New(0)
	l.SetOpeningBalance(250.0)
	l.SetBalance(251.5)

	st := l.Stats()
	assert.InDelta(t, 250.0, st.OpeningBalance, 1e-9)
	assert.InDelta(t, 251.5, st.CurrentBalance, 1e-9)
	assert.InDelta(t, 1.5, st.PnL, 1e-9)
}

func TestStats(t *testing.T) {
	l := New(100)

	win := newRecord("EURUSD_otc")
	win.OrderID = "o1"
	win.Result = domain.ResultWin
	l.Append(win)

	loss := newRecord("GBPJPY_otc")
	loss.OrderID = "o2"
	loss.Result = domain.ResultLoose
	l.Append(loss)

	draw := newRecord("AUDCAD_otc")
	draw.OrderID = "o3"
	draw.Result = domain.ResultDraw
	l.Append(draw)

	// Still pending: not counted in TotalTrades.
	l.Append(newRecord("CADCHF_otc"))

	l.SetBalance(101.5)

	st := l.Stats()
	assert.Equal(t, 3, st.TotalTrades)
	assert.Equal(t, 1, st.Wins)
	assert.Equal(t, 1, st.Losses)
	assert.Equal(t, 1, st.Draws)
	assert.Equal(t, 100.0, st.OpeningBalance)
	assert.Equal(t, 101.5, st.CurrentBalance)
	assert.Equal(t, 1.5, st.PnL)
}

// Concurrent appends and mutations from independent chains must never mix
// fields between records.
func TestConcurrentChainsStayIndependent(t *testing.T) {
	l := New(100)
	const chains = 8
	const perChain = 25

	var wg sync.WaitGroup
	for c := 0; c < chains; c++ {
		wg.Add(1)
		go func(c int) {
			defer wg.Done()
			asset := fmt.Sprintf("PAIR%d_otc", c)
			for i := 0; i < perChain; i++ {
				rec := newRecord(asset)
				rec.ChainID = asset
				idx := l.Append(rec)
				l.Mutate(idx, func(r *domain.TradeRecord) {
					r.OrderID = fmt.Sprintf("%s-%d", asset, i)
				})
				l.SetResult(idx, domain.ResultWin, "12:00:00")
			}
		}(c)
	}
	wg.Wait()

	snap := l.Snapshot()
	require.Len(t, snap, chains*perChain)
	for _, rec := range snap {
		assert.Equal(t, rec.ChainID, rec.Asset)
		assert.Contains(t, rec.OrderID, rec.Asset)
		assert.Equal(t, domain.ResultWin, rec.Result)
	}
}
