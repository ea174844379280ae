package ratmaze

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/aretw0/ratmaze/internal/search"
	"github.com/aretw0/ratmaze/pkg/adapters/memory"
	"github.com/aretw0/ratmaze/pkg/domain"
	"github.com/aretw0/ratmaze/pkg/pacing"
	"github.com/aretw0/ratmaze/pkg/ports"
	"github.com/google/uuid"
)

// DefaultLockKey identifies the maze in the run locker.
const DefaultLockKey = "default"

// Engine is the high-level entry point of the library.
// It owns the grid, enforces that edits never overlap a run and that at most one run
// is active at a time. Safe for concurrent use.
type Engine struct {
	mu     sync.Mutex
	grid   *domain.Grid
	active *Run
	last   *domain.Outcome
	rng    *rand.Rand

	locker      ports.RunLocker
	lockKey     string
	lockTTL     time.Duration
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	sleeper     pacing.Sleeper
	eventBuffer int
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithGrid sets the initial grid. The engine keeps its own copy.
func WithGrid(g *domain.Grid) Option {
	return func(e *Engine) {
		if g != nil {
			e.grid = g.Clone()
		}
	}
}

// WithLocker injects the run guard, e.g. a Redis locker shared by several replicas.
func WithLocker(l ports.RunLocker) Option {
	return func(e *Engine) {
		e.locker = l
	}
}

// WithLockKey names the maze in the run locker (default: "default").
func WithLockKey(key string) Option {
	return func(e *Engine) {
		e.lockKey = key
	}
}

// WithLockTTL bounds how long a crashed process can hold the run lock.
// Zero (the default) means the lock lives until the run ends.
func WithLockTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		e.lockTTL = ttl
	}
}

// WithSleeper replaces the wall-clock pacing, mostly for tests.
func WithSleeper(s pacing.Sleeper) Option {
	return func(e *Engine) {
		e.sleeper = s
	}
}

// WithSeed makes RandomizeWalls reproducible.
func WithSeed(seed int64) Option {
	return func(e *Engine) {
		e.rng = rand.New(rand.NewSource(seed))
	}
}

// WithEventBuffer sets the capacity of each run's event channel.
// The default (0) keeps the search in lockstep with the consumer.
func WithEventBuffer(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.eventBuffer = n
		}
	}
}

// New initializes an Engine with a default 5x5 open grid.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{
		lockKey: DefaultLockKey,
	}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.grid == nil {
		g, err := domain.NewGrid(domain.DefaultRows, domain.DefaultCols)
		if err != nil {
			return nil, err
		}
		eng.grid = g
	}
	if eng.grid.Rows() < domain.MinDimension || eng.grid.Cols() < domain.MinDimension {
		return nil, fmt.Errorf("%w: %dx%d (minimum %d)", domain.ErrInvalidDimensions,
			eng.grid.Rows(), eng.grid.Cols(), domain.MinDimension)
	}
	if eng.logger == nil {
		eng.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if eng.locker == nil {
		eng.locker = memory.NewLocker()
	}
	if eng.sleeper == nil {
		eng.sleeper = pacing.RealSleeper{}
	}
	if eng.rng == nil {
		eng.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return eng, nil
}

// Grid returns a snapshot of the current grid.
func (e *Engine) Grid() *domain.Grid {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.grid.Clone()
}

// Running reports whether a run is active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active != nil
}

// ActiveRun returns the active run, or nil.
func (e *Engine) ActiveRun() *Run {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// LastOutcome returns the outcome of the most recent finished run.
func (e *Engine) LastOutcome() (domain.Outcome, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.last == nil {
		return domain.Outcome{}, false
	}
	return *e.last, true
}

// ConfigureGrid replaces the grid. A nil wallMask yields an all-open grid.
func (e *Engine) ConfigureGrid(rows, cols int, wallMask [][]bool) error {
	if rows < domain.MinDimension || cols < domain.MinDimension {
		return fmt.Errorf("%w: %dx%d (minimum %d)", domain.ErrInvalidDimensions, rows, cols, domain.MinDimension)
	}
	g, err := domain.NewGrid(rows, cols)
	if err != nil {
		return err
	}
	if wallMask != nil {
		if err := g.ApplyMask(wallMask); err != nil {
			return err
		}
	}

	return e.edit(func() error {
		e.grid = g
		e.last = nil
		e.logger.Info("grid configured", "rows", rows, "cols", cols, "walls", g.WallCount())
		return nil
	})
}

// ToggleWall flips a single cell between open and wall.
func (e *Engine) ToggleWall(r, c int) error {
	return e.edit(func() error {
		cell, err := e.grid.Toggle(domain.Pos{Row: r, Col: c})
		if err != nil {
			return err
		}
		e.logger.Debug("wall toggled", "row", r, "col", c, "wall", cell == domain.Wall)
		return nil
	})
}

// RandomizeWalls turns each cell into a wall with probability density. Existing walls
// are kept. Start and goal are always left open.
func (e *Engine) RandomizeWalls(density float64) error {
	if density < 0 || density > 1 {
		return fmt.Errorf("%w: %v (want 0-1)", domain.ErrInvalidDensity, density)
	}
	return e.edit(func() error {
		g := e.grid
		for r := 0; r < g.Rows(); r++ {
			for c := 0; c < g.Cols(); c++ {
				if e.rng.Float64() < density {
					_ = g.Set(domain.Pos{Row: r, Col: c}, domain.Wall)
				}
			}
		}
		_ = g.Set(g.Start(), domain.Open)
		_ = g.Set(g.Goal(), domain.Open)
		e.logger.Info("walls randomized", "density", density, "walls", g.WallCount())
		return nil
	})
}

// Reset opens every cell and forgets the last outcome. The grid keeps its size.
func (e *Engine) Reset() error {
	return e.edit(func() error {
		e.grid.Clear()
		e.last = nil
		e.logger.Info("grid reset")
		return nil
	})
}

func (e *Engine) edit(fn func() error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active != nil {
		return domain.ErrEditWhileRunning
	}
	return fn()
}

// StartRun begins a search from the top-left to the bottom-right corner of a snapshot
// of the grid, paced by speedLevel (1 slowest, 10 no delay).
//
// ctx is used to acquire the run lock and to carry values; cancelling it does not stop
// the run. Use Run.Cancel or CancelRun for that.
func (e *Engine) StartRun(ctx context.Context, speedLevel int) (*Run, error) {
	delay, err := pacing.DelayForSpeed(speedLevel)
	if err != nil {
		return nil, err
	}

	if e.Running() {
		return nil, domain.ErrRunAlreadyActive
	}

	// The locker may go over the network; keep e.mu free while it does.
	unlock, err := e.locker.TryLock(ctx, e.lockKey, e.lockTTL)
	if err != nil {
		if errors.Is(err, domain.ErrLockHeld) {
			return nil, fmt.Errorf("%w: %w", domain.ErrRunAlreadyActive, err)
		}
		return nil, fmt.Errorf("failed to acquire run lock: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active != nil {
		if uerr := unlock(context.WithoutCancel(ctx)); uerr != nil {
			e.logger.Error("failed to release run lock", "err", uerr)
		}
		return nil, domain.ErrRunAlreadyActive
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	run := &Run{
		id:     uuid.NewString(),
		speed:  speedLevel,
		delay:  delay,
		grid:   e.grid.Clone(),
		events: make(chan domain.StepEvent, e.eventBuffer),
		done:   make(chan struct{}),
		cancel: cancel,
	}
	e.active = run

	go e.execute(runCtx, run, unlock)

	return run, nil
}

// CancelRun requests cooperative cancellation of the active run.
func (e *Engine) CancelRun() error {
	e.mu.Lock()
	run := e.active
	e.mu.Unlock()

	if run == nil {
		return domain.ErrNoActiveRun
	}
	run.Cancel()
	return nil
}

func (e *Engine) execute(ctx context.Context, run *Run, unlock ports.UnlockFunc) {
	logger := e.logger.With("run_id", run.id)
	grid := run.grid

	startEvent := &domain.RunEvent{
		RunID:     run.id,
		Timestamp: time.Now(),
		Rows:      grid.Rows(),
		Cols:      grid.Cols(),
		Speed:     run.speed,
	}
	if e.hooks.OnRunStart != nil {
		e.hooks.OnRunStart(ctx, startEvent)
	}
	logger.Info("run started", "rows", grid.Rows(), "cols", grid.Cols(), "speed", run.speed, "delay", run.delay)

	src := search.New(grid, grid.Start(), grid.Goal())
	sched := pacing.NewScheduler(run.delay,
		pacing.WithSleeper(e.sleeper),
		pacing.WithLogger(logger),
	)

	err := sched.Run(ctx, src, run.sinkWithHooks(e.hooks))

	outcome, finished := src.Outcome()
	if !finished || err != nil {
		outcome = domain.Outcome{
			Status:  domain.OutcomeCancelled,
			Steps:   run.Delivered(),
			Visited: src.Visited(),
		}
	}

	// Release the guard before announcing completion, so a caller woken by Done can
	// start the next run or edit the grid right away.
	if uerr := unlock(context.WithoutCancel(ctx)); uerr != nil {
		logger.Error("failed to release run lock", "err", uerr)
	}
	e.mu.Lock()
	e.active = nil
	e.last = &outcome
	e.mu.Unlock()

	if e.hooks.OnRunEnd != nil {
		e.hooks.OnRunEnd(context.WithoutCancel(ctx), &domain.RunEvent{
			RunID:     run.id,
			Timestamp: time.Now(),
			Rows:      grid.Rows(),
			Cols:      grid.Cols(),
			Speed:     run.speed,
			Outcome:   &outcome,
		})
	}
	logger.Info("run finished", "status", outcome.Status, "steps", outcome.Steps, "visited", outcome.Visited)

	run.finish(outcome, err)
}
