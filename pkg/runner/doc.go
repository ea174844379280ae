/*
Package runner drives a maze run and presents its events.

The runner starts a run on a ratmaze.Engine, forwards every event to a pluggable
EventHandler and reports the outcome. Interrupt signals (Ctrl+C) cancel the run
cooperatively: the handler sees the events delivered so far and a cancelled outcome,
never a found or exhausted event.

# Key Components

  - Runner: the loop between the engine and a handler.
  - TextHandler: a terminal board, animated in place on a TTY.
  - JSONHandler: one JSON object per line, for scripting.

# Usage

	r := runner.New(
		runner.WithHandler(runner.NewTextHandler(os.Stdout, runner.WithAnimation(true))),
		runner.WithSignals(true),
	)

	outcome, err := r.Run(ctx, engine, 5)
*/
package runner
