package runner

import (
	"context"
	"time"

	"github.com/aretw0/ratmaze/pkg/domain"
)

// RunInfo describes a run as it starts.
type RunInfo struct {
	ID    string        `json:"id"`
	Speed int           `json:"speed"`
	Delay time.Duration `json:"delay_ns"`
	Grid  *domain.Grid  `json:"grid"`
}

// EventHandler defines the strategy for presenting a run.
// This allows switching between Text (CLI) and JSON (Structured) modes.
type EventHandler interface {
	// Start is called once before the first event.
	Start(ctx context.Context, info RunInfo) error

	// Event presents one step. Returning an error cancels the run.
	Event(ctx context.Context, ev domain.StepEvent) error

	// Finish presents the outcome, including a cancelled one.
	Finish(ctx context.Context, outcome domain.Outcome) error
}

// ContentRenderer is a function that transforms markdown before outputting it.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)
