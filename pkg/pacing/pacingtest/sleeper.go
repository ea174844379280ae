// Package pacingtest provides test doubles for the pacing package.
package pacingtest

import (
	"context"
	"sync"
	"time"
)

// Sleeper returns immediately and records every requested pause.
//
// Sleeper is safe for concurrent use.
type Sleeper struct {
	mu     sync.Mutex
	sleeps []time.Duration

	// OnSleep, if set, runs before each pause returns. It receives the 1-based count
	// of pauses so far, which lets a test cancel a run at a precise point.
	OnSleep func(n int)
}

// Sleep records d and returns ctx.Err().
func (s *Sleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.sleeps = append(s.sleeps, d)
	n := len(s.sleeps)
	hook := s.OnSleep
	s.mu.Unlock()

	if hook != nil {
		hook(n)
	}
	return ctx.Err()
}

// Sleeps returns a copy of the recorded pauses.
func (s *Sleeper) Sleeps() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]time.Duration, len(s.sleeps))
	copy(out, s.sleeps)
	return out
}

// Total returns the sum of the recorded pauses.
func (s *Sleeper) Total() time.Duration {
	var total time.Duration
	for _, d := range s.Sleeps() {
		total += d
	}
	return total
}
