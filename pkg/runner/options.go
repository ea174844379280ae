package runner

import (
	"log/slog"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.Logger = logger
	}
}

// WithHandler configures the EventHandler.
func WithHandler(handler EventHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}

// WithSignals makes SIGINT and SIGTERM cancel the run.
func WithSignals(enabled bool) Option {
	return func(r *Runner) {
		r.HandleSignals = enabled
	}
}

// WithInterruptSource sets a channel that cancels the run when it closes or receives.
func WithInterruptSource(ch <-chan struct{}) Option {
	return func(r *Runner) {
		r.InterruptSource = ch
	}
}
