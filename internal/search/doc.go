// Package search implements the depth-first backtracking search over a grid as a
// resumable state machine.
//
// A Search never recurses: every pending call of the classic recursive formulation is a
// frame on an explicit stack, so a caller can stop between any two events (to pace an
// animation or to cancel) and large grids cannot exhaust the goroutine stack.
package search
