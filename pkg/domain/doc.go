/*
Package domain contains the core types of the ratmaze search engine.

It defines the obstacle grid, the per-run exploration state and the events a run
produces. This package is kept pure and free of I/O, pacing or persistence concerns;
those live in the adapters and in the facade.

# Key Entities

  - Grid: The rectangular obstacle map (Open or Wall cells) the search reads.
  - VisitedSet: Per-run exploration marks. Cells are never unmarked during a run.
  - Path: The active depth-first stack of positions from the start cell.
  - StepEvent: One observable change (entered, backtracked, found, exhausted).
  - Outcome: The terminal result of a run.
*/
package domain
