package domain

import (
	"context"
	"time"
)

// EventKind defines the category of a step event.
type EventKind string

const (
	EventEntered     EventKind = "entered"
	EventBacktracked EventKind = "backtracked"
	EventFound       EventKind = "found"
	EventExhausted   EventKind = "exhausted"
)

// Terminal reports whether the kind ends a run.
func (k EventKind) Terminal() bool {
	return k == EventFound || k == EventExhausted
}

// StepEvent describes one observable change of a search.
type StepEvent struct {
	// Seq is the 1-based position of the event in its run.
	Seq  int       `json:"seq"`
	Kind EventKind `json:"kind"`
	Pos  Pos       `json:"pos"`

	// Safe is true when the cell passed the safety check and was expanded.
	// Probes into walls, visited or out-of-bounds cells, and the goal itself, are not safe.
	Safe bool `json:"safe,omitempty"`

	// Path is the full route, set only on EventFound.
	Path []Pos `json:"path,omitempty"`
}

// RunEvent marks the start or the end of a run.
type RunEvent struct {
	RunID     string    `json:"run_id"`
	Timestamp time.Time `json:"timestamp"`
	Rows      int       `json:"rows"`
	Cols      int       `json:"cols"`
	Speed     int       `json:"speed"`
	Outcome   *Outcome  `json:"outcome,omitempty"` // Set on run end only.
}

// LifecycleHooks defines callbacks for run observability.
// Step hooks are invoked synchronously, in event order, from the run goroutine, once
// the event has been handed to the consumer.
type LifecycleHooks struct {
	OnRunStart  func(context.Context, *RunEvent)
	OnEnter     func(context.Context, *StepEvent)
	OnBacktrack func(context.Context, *StepEvent)
	OnRunEnd    func(context.Context, *RunEvent)
}
