package pacing

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/ratmaze/pkg/domain"
)

// Source produces search events one at a time. It returns false once exhausted.
type Source interface {
	Step() (domain.StepEvent, bool)
}

// Sink receives events in order. Returning an error stops the run.
type Sink func(ctx context.Context, ev domain.StepEvent) error

// Scheduler paces a Source into a Sink.
type Scheduler struct {
	delay   time.Duration
	sleeper Sleeper
	logger  *slog.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithSleeper replaces the wall-clock sleeper, typically with a fake in tests.
func WithSleeper(s Sleeper) Option {
	return func(sc *Scheduler) {
		sc.sleeper = s
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(sc *Scheduler) {
		sc.logger = logger
	}
}

// NewScheduler creates a scheduler with the given step delay.
func NewScheduler(delay time.Duration, opts ...Option) *Scheduler {
	s := &Scheduler{
		delay:   delay,
		sleeper: RealSleeper{},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.delay < 0 {
		s.delay = 0
	}
	return s
}

// NewSchedulerForSpeed creates a scheduler from a speed level.
func NewSchedulerForSpeed(level int, opts ...Option) (*Scheduler, error) {
	d, err := DelayForSpeed(level)
	if err != nil {
		return nil, err
	}
	return NewScheduler(d, opts...), nil
}

// Delay returns the configured step delay.
func (s *Scheduler) Delay() time.Duration { return s.delay }

// Pause returns how long to wait after delivering ev.
func (s *Scheduler) Pause(ev domain.StepEvent) time.Duration {
	if !ev.Safe {
		return 0
	}
	switch ev.Kind {
	case domain.EventEntered:
		return s.delay
	case domain.EventBacktracked:
		return s.delay / 2
	default:
		return 0
	}
}

// Run drives src to completion, or until ctx is cancelled or sink fails.
// On cancellation it returns ctx.Err() without delivering any further event.
func (s *Scheduler) Run(ctx context.Context, src Source, sink Sink) error {
	delivered := 0
	for {
		if err := ctx.Err(); err != nil {
			s.logger.Debug("run cancelled", "delivered", delivered)
			return err
		}

		ev, ok := src.Step()
		if !ok {
			return nil
		}

		if err := sink(ctx, ev); err != nil {
			return err
		}
		delivered++

		if ev.Kind.Terminal() {
			s.logger.Debug("run finished", "kind", ev.Kind, "delivered", delivered)
			return nil
		}

		if d := s.Pause(ev); d > 0 {
			if err := s.sleeper.Sleep(ctx, d); err != nil {
				s.logger.Debug("run cancelled while paused", "delivered", delivered, "err", err)
				return err
			}
		}
	}
}
