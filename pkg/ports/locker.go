package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock. Calling it more than once is harmless.
type UnlockFunc func(ctx context.Context) error

// RunLocker guards the "one active run per maze" rule.
type RunLocker interface {
	// TryLock acquires the lock for key without waiting.
	// It returns domain.ErrLockHeld if the lock is owned by someone else.
	// A zero ttl means the lock never expires on its own.
	// Returns an UnlockFunc that MUST be called to release the lock.
	TryLock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
