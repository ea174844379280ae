package search

import (
	"github.com/aretw0/ratmaze/pkg/domain"
)

// frame is one pending visit on the explicit stack.
type frame struct {
	pos  domain.Pos
	next int // index into domain.Directions of the next neighbour to try
	safe bool
}

// Search walks a grid from start to goal, producing one StepEvent per Step call.
//
// Visited cells stay marked after a backtrack, so each cell is expanded at most once.
// This bounds the run to rows*cols expansions, at the price of never reaching a cell a
// second time through a different neighbour.
type Search struct {
	grid    *domain.Grid
	goal    domain.Pos
	visited *domain.VisitedSet
	path    domain.Path
	stack   []frame

	pending *domain.Pos // position to enter on the next step
	found   bool        // goal entered, found event not yet emitted
	done    bool
	seq     int
	current domain.Pos
	outcome domain.Outcome
}

// New prepares a search. The grid is only read; callers must not mutate it until the
// search is done.
func New(grid *domain.Grid, start, goal domain.Pos) *Search {
	return &Search{
		grid:    grid,
		goal:    goal,
		visited: domain.NewVisitedSet(grid.Rows(), grid.Cols()),
		pending: &start,
		current: start,
	}
}

// Step advances the search by exactly one event. It returns false once the terminal
// event has been produced.
func (s *Search) Step() (domain.StepEvent, bool) {
	switch {
	case s.done:
		return domain.StepEvent{}, false
	case s.pending != nil:
		pos := *s.pending
		s.pending = nil
		return s.enter(pos), true
	case s.found:
		path := s.path.Snapshot()
		ev := s.emit(domain.StepEvent{Kind: domain.EventFound, Pos: s.goal, Path: path})
		s.finish(domain.OutcomePathFound, path)
		return ev, true
	case len(s.stack) == 0:
		ev := s.emit(domain.StepEvent{Kind: domain.EventExhausted, Pos: s.current})
		s.finish(domain.OutcomeNoPath, nil)
		return ev, true
	}

	top := &s.stack[len(s.stack)-1]
	if top.next < len(domain.Directions) {
		next := top.pos.Add(domain.Directions[top.next])
		top.next++
		return s.enter(next), true
	}

	// Every direction failed: undo the visit.
	pos, safe := top.pos, top.safe
	s.stack = s.stack[:len(s.stack)-1]
	s.path.Pop()
	s.current = pos
	return s.emit(domain.StepEvent{Kind: domain.EventBacktracked, Pos: pos, Safe: safe}), true
}

// enter reports the position and pushes it on the path before any check, so probes
// into walls or off the grid are observable too.
func (s *Search) enter(pos domain.Pos) domain.StepEvent {
	s.current = pos
	s.path.Push(pos)

	f := frame{pos: pos, next: len(domain.Directions)}
	switch {
	case pos == s.goal:
		s.found = true
	case s.isSafe(pos):
		s.visited.Mark(pos)
		f.next = 0
		f.safe = true
	}
	s.stack = append(s.stack, f)

	return s.emit(domain.StepEvent{Kind: domain.EventEntered, Pos: pos, Safe: f.safe})
}

func (s *Search) isSafe(p domain.Pos) bool {
	return s.grid.IsOpen(p.Row, p.Col) && !s.visited.Has(p)
}

func (s *Search) emit(ev domain.StepEvent) domain.StepEvent {
	s.seq++
	ev.Seq = s.seq
	return ev
}

func (s *Search) finish(status domain.OutcomeStatus, path []domain.Pos) {
	s.done = true
	s.outcome = domain.Outcome{
		Status:  status,
		Path:    path,
		Steps:   s.seq,
		Visited: s.visited.Len(),
	}
}

// Done reports whether the terminal event has been produced.
func (s *Search) Done() bool { return s.done }

// Outcome returns the result. The second value is false while the search is running.
func (s *Search) Outcome() (domain.Outcome, bool) {
	return s.outcome, s.done
}

// Current returns the position of the most recent entered or backtracked event.
func (s *Search) Current() domain.Pos { return s.current }

// Path returns a copy of the active path.
func (s *Search) Path() []domain.Pos { return s.path.Snapshot() }

// Visited returns the number of expanded cells so far.
func (s *Search) Visited() int { return s.visited.Len() }

// Solve runs a search to completion, calling emit for every event when non-nil.
func Solve(grid *domain.Grid, start, goal domain.Pos, emit func(domain.StepEvent)) domain.Outcome {
	s := New(grid, start, goal)
	for {
		ev, ok := s.Step()
		if !ok {
			break
		}
		if emit != nil {
			emit(ev)
		}
	}
	out, _ := s.Outcome()
	return out
}
