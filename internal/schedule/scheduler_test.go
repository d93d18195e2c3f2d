package schedule

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances virtual time on every Sleep call.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps int
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	c.sleeps++
}

func TestAwaitEntry_WaitsUntilTarget(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, entryZone)}
	s := New(clock, time.Second, nil)

	var statuses []string
	err := s.AwaitEntry(context.Background(), "9:02", func(status string) {
		statuses = append(statuses, status)
	})
	require.NoError(t, err)

	assert.Equal(t, 120, clock.sleeps)
	require.NotEmpty(t, statuses)
	assert.Equal(t, "PENDING EXECUTION in (2:00 left)", statuses[0])
	assert.Equal(t, "PENDING EXECUTION in (0:01 left)", statuses[len(statuses)-1])
}

// An entry time already passed today must roll forward exactly one day,
// never fire immediately or wait longer.
func TestAwaitEntry_RollsOverToNextDay(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 10, 23, 58, 0, 0, entryZone)}
	s := New(clock, time.Second, nil)

	var first string
	err := s.AwaitEntry(context.Background(), "00:05", func(status string) {
		if first == "" {
			first = status
		}
	})
	require.NoError(t, err)

	assert.Equal(t, "PENDING EXECUTION in (7:00 left)", first)
	assert.Equal(t, 7*60, clock.sleeps)
	assert.Equal(t, time.Date(2025, 3, 11, 0, 5, 0, 0, entryZone).Unix(), clock.Now().Unix())
}

func TestAwaitEntry_TargetAlreadyReached(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 10, 14, 30, 0, 0, entryZone)}
	s := New(clock, time.Second, nil)

	err := s.AwaitEntry(context.Background(), "14:30", nil)
	require.NoError(t, err)
	assert.Zero(t, clock.sleeps)
}

func TestAwaitEntry_MalformedEntryTime(t *testing.T) {
	s := New(&fakeClock{now: time.Now()}, time.Second, nil)

	for _, bad := range []string{"", "25:00", "12:61", "noon", "12"} {
		err := s.AwaitEntry(context.Background(), bad, nil)
		assert.Error(t, err, "entry time %q", bad)
	}
}

func TestAwaitEntry_ContextCancel(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, entryZone)}
	s := New(clock, time.Second, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.AwaitEntry(ctx, "10:00", nil)
	assert.Error(t, err)
}
