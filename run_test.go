package ratmaze

import (
	"context"
	"testing"

	"github.com/aretw0/ratmaze/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestSink_CancelWinsOverReadyConsumer(t *testing.T) {
	entered := 0
	hooks := domain.LifecycleHooks{
		OnEnter: func(ctx context.Context, e *domain.StepEvent) { entered++ },
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A buffered channel is always ready to take the event.
	for i := 0; i < 100; i++ {
		r := &Run{events: make(chan domain.StepEvent, 1)}
		sink := r.sinkWithHooks(hooks)

		err := sink(ctx, domain.StepEvent{Seq: 1, Kind: domain.EventFound})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, r.events)
		assert.Zero(t, r.Delivered())
	}
	assert.Zero(t, entered)
}

func TestSink_HooksFollowDelivery(t *testing.T) {
	var seen []domain.EventKind
	hooks := domain.LifecycleHooks{
		OnEnter:     func(ctx context.Context, e *domain.StepEvent) { seen = append(seen, e.Kind) },
		OnBacktrack: func(ctx context.Context, e *domain.StepEvent) { seen = append(seen, e.Kind) },
	}
	r := &Run{events: make(chan domain.StepEvent, 2)}
	sink := r.sinkWithHooks(hooks)

	assert.NoError(t, sink(context.Background(), domain.StepEvent{Seq: 1, Kind: domain.EventEntered, Safe: true}))
	assert.NoError(t, sink(context.Background(), domain.StepEvent{Seq: 2, Kind: domain.EventBacktracked, Safe: true}))
	assert.Equal(t, []domain.EventKind{domain.EventEntered, domain.EventBacktracked}, seen)
	assert.Equal(t, 2, r.Delivered())
}
