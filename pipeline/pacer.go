package pipeline

import (
	"context"
	"time"
)

// Pacer blocks between consecutive batch targets.
type Pacer interface {
	Pause(ctx context.Context) error
}

// SleepPacer waits a fixed interval. A zero interval returns immediately.
type SleepPacer struct {
	Interval time.Duration
}

// Pause waits for Interval or until ctx is done, whichever comes first.
func (p SleepPacer) Pause(ctx context.Context) error {
	if p.Interval <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(p.Interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
