package pacing

import (
	"context"
	"time"
)

// Sleeper pauses the calling goroutine. Sleep must return ctx.Err() promptly once the
// context is done.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// RealSleeper waits on the wall clock.
type RealSleeper struct{}

// Sleep blocks for d or until ctx is done.
func (RealSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
