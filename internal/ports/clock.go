package ports

import (
	"context"
	"time"
)

// Clock abstracts wall-clock reads and sleeps so the polling waits in the
// scheduler and execution engine can run against a virtual clock in tests.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until the context is canceled.
	Sleep(ctx context.Context, d time.Duration)
}

// RealClock is the production Clock backed by the time package.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

func (RealClock) Sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
