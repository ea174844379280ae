package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/ratmaze/pkg/domain"
)

// LoggingHooks logs run boundaries at info and every step at debug.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunStart: func(ctx context.Context, e *domain.RunEvent) {
			logger.Info("run_start", "run_id", e.RunID, "rows", e.Rows, "cols", e.Cols, "speed", e.Speed)
		},
		OnEnter: func(ctx context.Context, e *domain.StepEvent) {
			logger.Debug("cell_enter", "pos", e.Pos.String(), "safe", e.Safe)
		},
		OnBacktrack: func(ctx context.Context, e *domain.StepEvent) {
			logger.Debug("cell_backtrack", "pos", e.Pos.String(), "safe", e.Safe)
		},
		OnRunEnd: func(ctx context.Context, e *domain.RunEvent) {
			if e.Outcome == nil {
				logger.Info("run_end", "run_id", e.RunID)
				return
			}
			logger.Info("run_end", "run_id", e.RunID, "status", e.Outcome.Status, "steps", e.Outcome.Steps)
		},
	}
}

// Chain merges several hook sets. Hooks run in the order given.
func Chain(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range sets {
		out.OnRunStart = chainRun(out.OnRunStart, h.OnRunStart)
		out.OnEnter = chainStep(out.OnEnter, h.OnEnter)
		out.OnBacktrack = chainStep(out.OnBacktrack, h.OnBacktrack)
		out.OnRunEnd = chainRun(out.OnRunEnd, h.OnRunEnd)
	}
	return out
}

func chainRun(a, b func(context.Context, *domain.RunEvent)) func(context.Context, *domain.RunEvent) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e *domain.RunEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}

func chainStep(a, b func(context.Context, *domain.StepEvent)) func(context.Context, *domain.StepEvent) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e *domain.StepEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}
