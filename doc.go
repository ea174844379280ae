/*
Package ratmaze animates a depth-first backtracking search ("rat in a maze") over a
2-D grid with obstacles.

The search itself is a resumable state machine that yields one event per observable
change: a cell entered, a cell backtracked out of, the goal found or the space exhausted.
The Engine wraps it with the things a presenter needs: a mutable grid, a speed-controlled
scheduler that paces events for human eyes, cooperative cancellation and a guarantee that
at most one run is active at a time.

# Usage

	eng, err := ratmaze.New()
	if err != nil {
		log.Fatal(err)
	}
	_ = eng.RandomizeWalls(0.3)

	run, err := eng.StartRun(ctx, 5)
	if err != nil {
		log.Fatal(err)
	}
	for ev := range run.Events() {
		render(ev)
	}
	outcome, _ := run.Outcome()
	fmt.Println(outcome.Message())

Events must be drained: the run waits for each one to be received, which keeps the
animation in lockstep with the renderer. The search finds a path, not the shortest one.
*/
package ratmaze
