package runner

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// SignalManager turns SIGINT and SIGTERM into context cancellation for one run.
type SignalManager struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// NewSignalManager starts listening for signals right away.
func NewSignalManager() *SignalManager {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return &SignalManager{ctx: ctx, cancel: cancel}
}

// Context is cancelled when a signal arrives or Stop is called.
func (sm *SignalManager) Context() context.Context {
	return sm.ctx
}

// Stop releases the signal handlers. Safe to call more than once.
func (sm *SignalManager) Stop() {
	sm.cancel()
}
