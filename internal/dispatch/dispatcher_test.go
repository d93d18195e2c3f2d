package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pocketSignalBot/internal/domain"
)

type mockLogger struct{}

func (mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

type executedCall struct {
	signal domain.TradeSignal
	stake  float64
	mtgl   domain.MartingaleConfig
}

type mockExecutor struct {
	mu    sync.Mutex
	calls []executedCall
	block chan struct{} // when set, Execute blocks until closed
}

func (m *mockExecutor) Execute(ctx context.Context, signal domain.TradeSignal, stake float64, mtgl domain.MartingaleConfig) domain.TradeResult {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, executedCall{signal, stake, mtgl})
	return domain.ResultWin
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)

	_, err = New(Config{Executor: &mockExecutor{}, Logger: mockLogger{}, Stake: 0})
	assert.Error(t, err)

	_, err = New(Config{Executor: &mockExecutor{}, Logger: mockLogger{}, Stake: 1})
	assert.NoError(t, err)
}

func TestOnSignal_LaunchesExecution(t *testing.T) {
	exec := &mockExecutor{}
	d, err := New(Config{
		Executor: exec,
		Logger:   mockLogger{},
		Stake:    2.5,
		Channels: map[int64]domain.MartingaleConfig{
			-100123: {Enabled: true, MaxLevel: 2, IncrementPercent: 10},
		},
	})
	require.NoError(t, err)

	h := d.OnSignal(context.Background(), "EUR/USD OTC\n5M\nBUY", -100123)
	require.NotNil(t, h)

	select {
	case <-h.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("execution task did not finish")
	}

	require.Len(t, exec.calls, 1)
	call := exec.calls[0]
	assert.Equal(t, "EURUSD_otc", call.signal.Pair)
	assert.Equal(t, domain.Call, call.signal.Direction)
	assert.Equal(t, 300, call.signal.Expiry)
	assert.Equal(t, int64(-100123), call.signal.ChannelID)
	assert.Equal(t, 2.5, call.stake)
	assert.True(t, call.mtgl.Enabled)
	assert.Equal(t, 2, call.mtgl.MaxLevel)
}

func TestOnSignal_UnparseableMessageIsDropped(t *testing.T) {
	exec := &mockExecutor{}
	d, err := New(Config{Executor: exec, Logger: mockLogger{}, Stake: 1})
	require.NoError(t, err)

	h := d.OnSignal(context.Background(), "no trade here", -100123)
	assert.Nil(t, h)
	d.Wait()
	assert.Empty(t, exec.calls)
}

func TestOnSignal_UnknownChannelGetsDefaults(t *testing.T) {
	exec := &mockExecutor{}
	d, err := New(Config{Executor: exec, Logger: mockLogger{}, Stake: 1})
	require.NoError(t, err)

	h := d.OnSignal(context.Background(), "EUR/USD OTC\n1M\nPUT", -42)
	require.NotNil(t, h)
	<-h.Done()

	require.Len(t, exec.calls, 1)
	assert.Equal(t, domain.DefaultMartingaleConfig(), exec.calls[0].mtgl)
}

// Multiple signals run concurrently, each in its own task.
func TestOnSignal_ConcurrentSignals(t *testing.T) {
	exec := &mockExecutor{block: make(chan struct{})}
	d, err := New(Config{Executor: exec, Logger: mockLogger{}, Stake: 1})
	require.NoError(t, err)

	h1 := d.OnSignal(context.Background(), "EUR/USD OTC\n1M\nBUY", -1)
	h2 := d.OnSignal(context.Background(), "GBP/JPY OTC\n30 seconds\nPUT", -2)
	require.NotNil(t, h1)
	require.NotNil(t, h2)

	// Neither task has finished while both are blocked inside Execute:
	// they must be running in parallel, not queued.
	select {
	case <-h1.Done():
		t.Fatal("task finished while executor was blocked")
	case <-h2.Done():
		t.Fatal("task finished while executor was blocked")
	case <-time.After(50 * time.Millisecond):
	}

	close(exec.block)
	d.Wait()

	require.Len(t, exec.calls, 2)
	pairs := map[string]bool{}
	for _, c := range exec.calls {
		pairs[c.signal.Pair] = true
	}
	assert.True(t, pairs["EURUSD_otc"])
	assert.True(t, pairs["GBPJPY_otc"])
}
