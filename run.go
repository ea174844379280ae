package ratmaze

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/ratmaze/pkg/domain"
	"github.com/aretw0/ratmaze/pkg/pacing"
)

// Run is an asynchronous handle on one search. It exposes the ordered event stream,
// completion and the final outcome.
type Run struct {
	id     string
	speed  int
	delay  time.Duration
	grid   *domain.Grid
	events chan domain.StepEvent
	done   chan struct{}
	cancel context.CancelFunc

	mu        sync.Mutex
	delivered int
	outcome   domain.Outcome
	err       error
	finished  bool
}

// ID returns the unique identifier of the run.
func (r *Run) ID() string { return r.id }

// Speed returns the speed level the run was started with.
func (r *Run) Speed() int { return r.speed }

// Delay returns the per-step delay derived from the speed level.
func (r *Run) Delay() time.Duration { return r.delay }

// Grid returns a copy of the grid the run searches.
func (r *Run) Grid() *domain.Grid { return r.grid.Clone() }

// Events returns the ordered event stream. It is closed when the run ends; a cancelled
// run closes it without a found or exhausted event.
func (r *Run) Events() <-chan domain.StepEvent { return r.events }

// Done returns a channel that closes when the run has ended.
func (r *Run) Done() <-chan struct{} { return r.done }

// Cancel requests cooperative cancellation. It is safe to call more than once.
func (r *Run) Cancel() { r.cancel() }

// Delivered returns the number of events handed to the consumer so far.
func (r *Run) Delivered() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.delivered
}

// Outcome returns the final result. The second value is false while the run is active.
func (r *Run) Outcome() (domain.Outcome, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.outcome, r.finished
}

// Err returns context.Canceled for a cancelled run and nil otherwise.
func (r *Run) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Wait blocks until the run ends or ctx is done. Events not yet received are
// discarded so the run can make progress.
func (r *Run) Wait(ctx context.Context) (domain.Outcome, error) {
	for {
		select {
		case <-ctx.Done():
			return domain.Outcome{}, ctx.Err()
		case _, ok := <-r.events:
			if !ok {
				<-r.done
				out, _ := r.Outcome()
				return out, r.Err()
			}
		}
	}
}

func (r *Run) sinkWithHooks(hooks domain.LifecycleHooks) pacing.Sink {
	return func(ctx context.Context, ev domain.StepEvent) error {
		// A pending cancel always wins over a ready consumer.
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		select {
		case r.events <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}

		r.mu.Lock()
		r.delivered++
		r.mu.Unlock()

		switch ev.Kind {
		case domain.EventEntered:
			if hooks.OnEnter != nil {
				hooks.OnEnter(ctx, &ev)
			}
		case domain.EventBacktracked:
			if hooks.OnBacktrack != nil {
				hooks.OnBacktrack(ctx, &ev)
			}
		}
		return nil
	}
}

func (r *Run) finish(outcome domain.Outcome, err error) {
	r.mu.Lock()
	r.outcome = outcome
	r.err = err
	r.finished = true
	r.mu.Unlock()

	r.cancel()
	close(r.events)
	close(r.done)
}
