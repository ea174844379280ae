package cli

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/aretw0/ratmaze/internal/presentation/tui"
	"github.com/aretw0/ratmaze/pkg/config"
	"github.com/aretw0/ratmaze/pkg/domain"
	"github.com/aretw0/ratmaze/pkg/observability"
	"github.com/aretw0/ratmaze/pkg/runner"
	"golang.org/x/term"
)

// RunOptions contains all the configuration for the Run command.
type RunOptions struct {
	Config    config.Config
	JSON      bool
	Randomize bool
	Plain     bool // never animate, even on a terminal
	NoBanner  bool

	Stdout io.Writer
	Stderr io.Writer
}

// Execute handles the 'run' command: build the maze, run one search and present it.
// An interrupted run is reported and is not an error.
func Execute(ctx context.Context, opts RunOptions) (domain.Outcome, error) {
	stdout, stderr := opts.Stdout, opts.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	logger, err := createLogger(stderr, opts.Config.Log)
	if err != nil {
		return domain.Outcome{}, err
	}

	engine, closeEngine, err := createEngine(ctx, opts.Config, logger, observability.LoggingHooks(logger))
	if err != nil {
		return domain.Outcome{}, err
	}
	defer closeEngine()

	if opts.Randomize {
		if err := engine.RandomizeWalls(opts.Config.Density); err != nil {
			return domain.Outcome{}, err
		}
	}

	tty := isTerminal(stdout)
	var handler runner.EventHandler
	if opts.JSON {
		handler = runner.NewJSONHandler(stdout)
	} else {
		textOpts := []runner.TextHandlerOption{runner.WithAnimation(tty && !opts.Plain)}
		if tty {
			textOpts = append(textOpts, runner.WithTextHandlerRenderer(tui.NewRenderer()))
			if !opts.NoBanner {
				tui.PrintBanner(stdout)
			}
		}
		handler = runner.NewTextHandler(stdout, textOpts...)
	}

	r := runner.New(
		runner.WithHandler(handler),
		runner.WithLogger(logger),
		runner.WithSignals(true),
	)
	outcome, err := r.Run(ctx, engine, opts.Config.Speed)
	if errors.Is(err, context.Canceled) {
		if !opts.JSON {
			printSystemMessage(stderr, "Interrupted after %d steps.", outcome.Steps)
		}
		return outcome, nil
	}
	return outcome, err
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
