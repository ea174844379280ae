package ratmaze_test

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/ratmaze"
	"github.com/aretw0/ratmaze/pkg/adapters/memory"
	"github.com/aretw0/ratmaze/pkg/domain"
	"github.com/aretw0/ratmaze/pkg/pacing"
	"github.com/aretw0/ratmaze/pkg/pacing/pacingtest"
	"github.com/aretw0/ratmaze/pkg/ports"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T, opts ...ratmaze.Option) *ratmaze.Engine {
	t.Helper()
	opts = append([]ratmaze.Option{ratmaze.WithSleeper(&pacingtest.Sleeper{})}, opts...)
	eng, err := ratmaze.New(opts...)
	require.NoError(t, err)
	return eng
}

func drain(t *testing.T, run *ratmaze.Run) []domain.StepEvent {
	t.Helper()
	var events []domain.StepEvent
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-run.Events():
			if !ok {
				<-run.Done()
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatal("run did not finish")
		}
	}
}

func TestEngine_Defaults(t *testing.T) {
	eng := newEngine(t)
	g := eng.Grid()
	assert.Equal(t, domain.DefaultRows, g.Rows())
	assert.Equal(t, domain.DefaultCols, g.Cols())
	assert.Zero(t, g.WallCount())
	assert.False(t, eng.Running())

	_, ok := eng.LastOutcome()
	assert.False(t, ok)
}

func TestEngine_ConfigureGrid(t *testing.T) {
	eng := newEngine(t)

	err := eng.ConfigureGrid(1, 5, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidDimensions)

	err = eng.ConfigureGrid(2, 2, [][]bool{{false, true}})
	assert.ErrorIs(t, err, domain.ErrInvalidWallMask)

	require.NoError(t, eng.ConfigureGrid(2, 3, [][]bool{
		{false, true, false},
		{false, false, false},
	}))
	assert.Equal(t, ".#.\n...\n", eng.Grid().String())

	_, err = ratmaze.New(ratmaze.WithGrid(mustGrid(t, "...")))
	assert.ErrorIs(t, err, domain.ErrInvalidDimensions)
}

func TestEngine_ConfigureGridRejectsOverflow(t *testing.T) {
	eng := newEngine(t)

	err := eng.ConfigureGrid(math.MaxInt/2, math.MaxInt/2, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidDimensions)

	// The previous grid is untouched and still usable.
	assert.Equal(t, domain.DefaultRows, eng.Grid().Rows())
	require.NoError(t, eng.ToggleWall(0, 0))

	run, err := eng.StartRun(context.Background(), pacing.MaxSpeed)
	require.NoError(t, err)
	drain(t, run)
	out, ok := run.Outcome()
	require.True(t, ok)
	assert.NotEqual(t, domain.OutcomeCancelled, out.Status)
}

func mustGrid(t *testing.T, lines ...string) *domain.Grid {
	t.Helper()
	g, err := domain.ParseGrid(lines)
	require.NoError(t, err)
	return g
}

func TestEngine_RunFindsPath(t *testing.T) {
	eng := newEngine(t, ratmaze.WithGrid(mustGrid(t, "..", "..")))

	run, err := eng.StartRun(context.Background(), pacing.MaxSpeed)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID())

	events := drain(t, run)
	require.Len(t, events, 6)
	assert.Equal(t, domain.EventFound, events[5].Kind)

	out, ok := run.Outcome()
	require.True(t, ok)
	assert.Equal(t, domain.OutcomePathFound, out.Status)
	assert.Equal(t, []domain.Pos{{Row: 0, Col: 0}, {Row: 1, Col: 0}, {Row: 1, Col: 1}}, out.Path)
	assert.NoError(t, run.Err())

	last, ok := eng.LastOutcome()
	require.True(t, ok)
	assert.Equal(t, out, last)
	assert.False(t, eng.Running())
}

func TestEngine_NoPathIsNotAnError(t *testing.T) {
	eng := newEngine(t, ratmaze.WithGrid(mustGrid(t, ".#", "#.")))

	run, err := eng.StartRun(context.Background(), 5)
	require.NoError(t, err)

	out, err := run.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.OutcomeNoPath, out.Status)
	assert.Equal(t, "No path found.", out.Message())
}

func TestEngine_PacingFollowsSpeed(t *testing.T) {
	sleeper := &pacingtest.Sleeper{}
	eng := newEngine(t, ratmaze.WithSleeper(sleeper), ratmaze.WithGrid(mustGrid(t, ".#", "#.")))

	run, err := eng.StartRun(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 270*time.Millisecond, run.Delay())
	drain(t, run)

	assert.Equal(t, []time.Duration{270 * time.Millisecond, 135 * time.Millisecond}, sleeper.Sleeps())
}

func TestEngine_InvalidSpeed(t *testing.T) {
	eng := newEngine(t)
	_, err := eng.StartRun(context.Background(), 0)
	assert.ErrorIs(t, err, domain.ErrInvalidSpeed)
	assert.False(t, eng.Running())
}

func TestEngine_CancelSuppressesTerminalEvent(t *testing.T) {
	var eng *ratmaze.Engine
	sleeper := &pacingtest.Sleeper{OnSleep: func(n int) {
		if n == 3 {
			assert.NoError(t, eng.CancelRun())
		}
	}}
	eng = newEngine(t, ratmaze.WithSleeper(sleeper))

	run, err := eng.StartRun(context.Background(), 1)
	require.NoError(t, err)

	events := drain(t, run)
	require.NotEmpty(t, events)
	for _, ev := range events {
		assert.False(t, ev.Kind.Terminal(), "terminal event %v delivered after cancellation", ev)
	}

	out, ok := run.Outcome()
	require.True(t, ok)
	assert.Equal(t, domain.OutcomeCancelled, out.Status)
	assert.Equal(t, len(events), out.Steps)
	assert.ErrorIs(t, run.Err(), context.Canceled)

	assert.ErrorIs(t, eng.CancelRun(), domain.ErrNoActiveRun)
}

func TestEngine_HooksSkipUndeliveredEvents(t *testing.T) {
	var (
		mu      sync.Mutex
		entered int
	)
	hooks := domain.LifecycleHooks{
		OnEnter: func(ctx context.Context, e *domain.StepEvent) {
			mu.Lock()
			defer mu.Unlock()
			entered++
		},
	}
	eng := newEngine(t, ratmaze.WithLifecycleHooks(hooks))

	// Nobody reads the events, so the first one is never delivered.
	run, err := eng.StartRun(context.Background(), pacing.MaxSpeed)
	require.NoError(t, err)
	run.Cancel()
	<-run.Done()

	_, open := <-run.Events()
	assert.False(t, open)
	assert.Zero(t, run.Delivered())
	mu.Lock()
	assert.Zero(t, entered)
	mu.Unlock()

	out, ok := run.Outcome()
	require.True(t, ok)
	assert.Equal(t, domain.OutcomeCancelled, out.Status)
	assert.Zero(t, out.Steps)
}

func TestEngine_GuardsDuringRun(t *testing.T) {
	eng := newEngine(t)

	// Nobody reads the events yet, so the run stays parked on its first event.
	run, err := eng.StartRun(context.Background(), 3)
	require.NoError(t, err)
	assert.True(t, eng.Running())
	assert.Same(t, run, eng.ActiveRun())

	_, err = eng.StartRun(context.Background(), 3)
	assert.ErrorIs(t, err, domain.ErrRunAlreadyActive)
	assert.ErrorIs(t, eng.ToggleWall(1, 1), domain.ErrEditWhileRunning)
	assert.ErrorIs(t, eng.RandomizeWalls(0.5), domain.ErrEditWhileRunning)
	assert.ErrorIs(t, eng.ConfigureGrid(4, 4, nil), domain.ErrEditWhileRunning)
	assert.ErrorIs(t, eng.Reset(), domain.ErrEditWhileRunning)

	require.NoError(t, eng.CancelRun())
	drain(t, run)

	assert.False(t, eng.Running())
	assert.NoError(t, eng.ToggleWall(1, 1))

	next, err := eng.StartRun(context.Background(), pacing.MaxSpeed)
	require.NoError(t, err, "a new run can start once the previous one is done")
	drain(t, next)
}

func TestEngine_SharedLockerAcrossEngines(t *testing.T) {
	locker := memory.NewLocker()
	a := newEngine(t, ratmaze.WithLocker(locker), ratmaze.WithLockKey("maze-1"))
	b := newEngine(t, ratmaze.WithLocker(locker), ratmaze.WithLockKey("maze-1"))

	run, err := a.StartRun(context.Background(), 2)
	require.NoError(t, err)

	_, err = b.StartRun(context.Background(), 2)
	assert.ErrorIs(t, err, domain.ErrRunAlreadyActive)
	assert.ErrorIs(t, err, domain.ErrLockHeld)

	run.Cancel()
	drain(t, run)

	other, err := b.StartRun(context.Background(), pacing.MaxSpeed)
	require.NoError(t, err)
	drain(t, other)
}

// slowLocker holds every TryLock call until release is closed.
type slowLocker struct {
	inner   ports.RunLocker
	waiting chan struct{}
	release chan struct{}
}

func (l *slowLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	unlock, err := l.inner.TryLock(ctx, key, ttl)
	close(l.waiting)
	<-l.release
	return unlock, err
}

func TestEngine_SlowLockerDoesNotBlockReads(t *testing.T) {
	locker := &slowLocker{
		inner:   memory.NewLocker(),
		waiting: make(chan struct{}),
		release: make(chan struct{}),
	}
	eng := newEngine(t, ratmaze.WithLocker(locker))

	type result struct {
		run *ratmaze.Run
		err error
	}
	started := make(chan result, 1)
	go func() {
		run, err := eng.StartRun(context.Background(), pacing.MaxSpeed)
		started <- result{run, err}
	}()
	<-locker.waiting

	edited := make(chan error, 1)
	go func() {
		assert.False(t, eng.Running())
		assert.Equal(t, domain.DefaultRows, eng.Grid().Rows())
		edited <- eng.ToggleWall(1, 1)
	}()
	select {
	case err := <-edited:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("engine blocked while the run lock was being acquired")
	}

	close(locker.release)
	res := <-started
	require.NoError(t, res.err)
	assert.Equal(t, domain.Wall, res.run.Grid().At(domain.Pos{Row: 1, Col: 1}), "the run sees edits made before it started")
	drain(t, res.run)
}

func TestEngine_RandomizeWallsKeepsEndpointsOpen(t *testing.T) {
	eng := newEngine(t, ratmaze.WithSeed(1))
	require.NoError(t, eng.ConfigureGrid(6, 7, nil))

	require.NoError(t, eng.RandomizeWalls(1.0))
	g := eng.Grid()
	assert.True(t, g.IsOpen(0, 0))
	assert.True(t, g.IsOpen(5, 6))
	assert.Equal(t, 6*7-2, g.WallCount())

	assert.ErrorIs(t, eng.RandomizeWalls(1.5), domain.ErrInvalidDensity)
	assert.ErrorIs(t, eng.RandomizeWalls(-0.1), domain.ErrInvalidDensity)

	require.NoError(t, eng.Reset())
	assert.Zero(t, eng.Grid().WallCount())

	require.NoError(t, eng.RandomizeWalls(0))
	assert.Zero(t, eng.Grid().WallCount())
}

func TestEngine_RandomizeWallsIsSeeded(t *testing.T) {
	a := newEngine(t, ratmaze.WithSeed(99))
	b := newEngine(t, ratmaze.WithSeed(99))
	require.NoError(t, a.RandomizeWalls(domain.DefaultDensity))
	require.NoError(t, b.RandomizeWalls(domain.DefaultDensity))
	assert.Equal(t, a.Grid().String(), b.Grid().String())
}

func TestEngine_RunsAreDeterministic(t *testing.T) {
	eng := newEngine(t, ratmaze.WithSeed(5))
	require.NoError(t, eng.ConfigureGrid(7, 7, nil))
	require.NoError(t, eng.RandomizeWalls(0.35))

	run1, err := eng.StartRun(context.Background(), pacing.MaxSpeed)
	require.NoError(t, err)
	first := drain(t, run1)

	run2, err := eng.StartRun(context.Background(), pacing.MaxSpeed)
	require.NoError(t, err)
	second := drain(t, run2)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("runs differ (-first +second):\n%s", diff)
	}
}

func TestEngine_RunUsesGridSnapshot(t *testing.T) {
	eng := newEngine(t, ratmaze.WithEventBuffer(1024))

	run, err := eng.StartRun(context.Background(), pacing.MaxSpeed)
	require.NoError(t, err)
	drain(t, run)

	require.NoError(t, eng.ToggleWall(2, 2))
	assert.True(t, run.Grid().IsOpen(2, 2), "later edits do not leak into a run's grid")
}

func TestEngine_LifecycleHooks(t *testing.T) {
	var (
		mu         sync.Mutex
		started    []string
		entered    int
		backtracks int
		ended      []domain.OutcomeStatus
	)
	hooks := domain.LifecycleHooks{
		OnRunStart: func(ctx context.Context, e *domain.RunEvent) {
			mu.Lock()
			defer mu.Unlock()
			started = append(started, e.RunID)
		},
		OnEnter: func(ctx context.Context, e *domain.StepEvent) {
			mu.Lock()
			defer mu.Unlock()
			entered++
		},
		OnBacktrack: func(ctx context.Context, e *domain.StepEvent) {
			mu.Lock()
			defer mu.Unlock()
			backtracks++
		},
		OnRunEnd: func(ctx context.Context, e *domain.RunEvent) {
			mu.Lock()
			defer mu.Unlock()
			if assert.NotNil(t, e.Outcome) {
				ended = append(ended, e.Outcome.Status)
			}
		},
	}
	eng := newEngine(t, ratmaze.WithLifecycleHooks(hooks), ratmaze.WithGrid(mustGrid(t, ".#", "#.")))

	run, err := eng.StartRun(context.Background(), pacing.MaxSpeed)
	require.NoError(t, err)
	drain(t, run)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{run.ID()}, started)
	assert.Equal(t, 5, entered)
	assert.Equal(t, 5, backtracks)
	assert.Equal(t, []domain.OutcomeStatus{domain.OutcomeNoPath}, ended)
}

func TestEngine_WaitHonoursContext(t *testing.T) {
	eng := newEngine(t, ratmaze.WithSleeper(pacing.RealSleeper{}))

	run, err := eng.StartRun(context.Background(), 1)
	require.NoError(t, err)
	defer func() {
		run.Cancel()
		<-run.Done()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err = run.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
