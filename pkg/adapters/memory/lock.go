package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aretw0/ratmaze/pkg/domain"
	"github.com/aretw0/ratmaze/pkg/ports"
)

type lease struct {
	token   uint64
	expires time.Time // zero means no expiry
}

// Locker implements ports.RunLocker in memory.
// Safe for concurrent use.
type Locker struct {
	mu     sync.Mutex
	leases map[string]lease
	next   uint64
	now    func() time.Time
}

// NewLocker creates a new in-memory locker.
func NewLocker() *Locker {
	return &Locker{
		leases: make(map[string]lease),
		now:    time.Now,
	}
}

// TryLock acquires key if it is free or its previous lease has expired.
func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if cur, ok := l.leases[key]; ok {
		if cur.expires.IsZero() || now.Before(cur.expires) {
			return nil, fmt.Errorf("%w: %s", domain.ErrLockHeld, key)
		}
	}

	l.next++
	token := l.next
	ls := lease{token: token}
	if ttl > 0 {
		ls.expires = now.Add(ttl)
	}
	l.leases[key] = ls

	return func(ctx context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		// Only the current owner may release.
		if cur, ok := l.leases[key]; ok && cur.token == token {
			delete(l.leases, key)
		}
		return nil
	}, nil
}
