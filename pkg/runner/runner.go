package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/ratmaze"
	"github.com/aretw0/ratmaze/pkg/domain"
)

// Runner handles the presentation loop of a maze run.
type Runner struct {
	// Handler is the strategy for output. If nil, a TextHandler on Stdout is used.
	Handler EventHandler

	// Logger is used for internal debug logging.
	// If nil, a no-op logger is used.
	Logger *slog.Logger

	// HandleSignals cancels the run on SIGINT or SIGTERM.
	HandleSignals bool

	// InterruptSource cancels the run when it fires.
	InterruptSource <-chan struct{}
}

// New creates a Runner.
func New(opts ...Option) *Runner {
	r := &Runner{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run starts a run on engine at speedLevel and presents it until it ends.
// Cancelling ctx, a signal or the interrupt source cancels the run; the returned error
// is then context.Canceled and the outcome has status cancelled.
func (r *Runner) Run(ctx context.Context, engine *ratmaze.Engine, speedLevel int) (domain.Outcome, error) {
	handler := r.resolveHandler()

	run, err := engine.StartRun(ctx, speedLevel)
	if err != nil {
		return domain.Outcome{}, err
	}
	logger := r.logger().With("run_id", run.ID())

	stopWatch := r.watchInterrupts(ctx, run)
	defer stopWatch()

	info := RunInfo{ID: run.ID(), Speed: run.Speed(), Delay: run.Delay(), Grid: run.Grid()}
	if err := handler.Start(ctx, info); err != nil {
		run.Cancel()
		_, _ = run.Wait(context.Background())
		return domain.Outcome{}, fmt.Errorf("output error: %w", err)
	}

	var handlerErr error
	for ev := range run.Events() {
		if handlerErr != nil {
			continue
		}
		if err := handler.Event(ctx, ev); err != nil {
			logger.Debug("handler failed, cancelling run", "err", err)
			handlerErr = err
			run.Cancel()
		}
	}
	<-run.Done()

	outcome, _ := run.Outcome()
	if handlerErr != nil {
		return outcome, fmt.Errorf("output error: %w", handlerErr)
	}
	if err := handler.Finish(context.WithoutCancel(ctx), outcome); err != nil {
		return outcome, fmt.Errorf("output error: %w", err)
	}
	logger.Debug("run presented", "status", outcome.Status, "steps", outcome.Steps)
	return outcome, run.Err()
}

// watchInterrupts cancels run when ctx, a signal or the interrupt source fires.
func (r *Runner) watchInterrupts(ctx context.Context, run *ratmaze.Run) func() {
	var signals *SignalManager
	sigCtx := context.Background()
	if r.HandleSignals {
		signals = NewSignalManager()
		sigCtx = signals.Context()
	}

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			r.logger().Debug("context done, cancelling run")
		case <-sigCtx.Done():
			r.logger().Debug("signal received, cancelling run")
		case <-r.InterruptSource:
			r.logger().Debug("interrupt received, cancelling run")
		case <-run.Done():
			return
		case <-done:
			return
		}
		run.Cancel()
	}()

	return func() {
		close(done)
		if signals != nil {
			signals.Stop()
		}
	}
}

func (r *Runner) resolveHandler() EventHandler {
	if r.Handler == nil {
		r.Handler = NewTextHandler(os.Stdout)
	}
	return r.Handler
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		r.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return r.Logger
}
