// Package schedule delays trade execution until a signal's wall-clock entry
// time. Signal channels quote entry times in the broker's fixed UTC-4
// offset, not a DST-aware zone.
package schedule

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"pocketSignalBot/internal/ports"
)

// entryZone is the broker's fixed offset. Etc/GMT+4 in POSIX sign
// convention, i.e. four hours behind UTC year-round.
var entryZone = time.FixedZone("UTC-4", -4*60*60)

// Scheduler blocks execution tasks until their entry time arrives. The wait
// is a cooperative polling loop rather than an absolute-deadline sleep, so
// it self-corrects against drift introduced by other queued work; the poll
// interval and clock are injectable for deterministic tests.
type Scheduler struct {
	clock    ports.Clock
	interval time.Duration
	logger   ports.Logger
}

// New creates a scheduler. A nil clock falls back to the real clock and a
// non-positive interval to one second.
func New(clock ports.Clock, interval time.Duration, logger ports.Logger) *Scheduler {
	if clock == nil {
		clock = ports.RealClock{}
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Scheduler{clock: clock, interval: interval, logger: logger}
}

// AwaitEntry blocks until the wall clock reaches entryTime ("H:MM" or
// "HH:MM") in the fixed UTC-4 offset. A target already passed today rolls
// forward exactly one day. While waiting, progress receives a countdown
// status roughly once per poll interval so observers see live state.
func (s *Scheduler) AwaitEntry(ctx context.Context, entryTime string, progress func(status string)) error {
	hour, minute, err := parseEntryTime(entryTime)
	if err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: entry wait aborted", ports.ErrContextCanceled)
		}

		now := s.clock.Now().In(entryZone)
		target := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, entryZone)
		if target.Before(now) {
			target = target.Add(24 * time.Hour)
		}

		waitSec := int(target.Sub(now).Seconds())
		if waitSec <= 0 {
			return nil
		}

		if progress != nil {
			progress(fmt.Sprintf("PENDING EXECUTION in (%d:%02d left)", waitSec/60, waitSec%60))
		}
		s.clock.Sleep(ctx, s.interval)
	}
}

// parseEntryTime splits "H:MM" into hour and minute.
func parseEntryTime(entryTime string) (int, int, error) {
	parts := strings.SplitN(entryTime, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: malformed entry time %q", ports.ErrInvalidRequest, entryTime)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%w: bad hour in entry time %q", ports.ErrInvalidRequest, entryTime)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: bad minute in entry time %q", ports.ErrInvalidRequest, entryTime)
	}
	return hour, minute, nil
}
