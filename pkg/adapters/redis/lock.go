package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/ratmaze/pkg/domain"
	"github.com/aretw0/ratmaze/pkg/ports"
	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces lock keys.
const DefaultPrefix = "ratmaze:"

// releaseScript deletes the key only if it still holds our token.
const releaseScript = `
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`

// Locker implements ports.RunLocker using Redis.
type Locker struct {
	client *backend.Client
	prefix string
}

// NewLocker creates a new Redis locker.
func NewLocker(client *backend.Client, prefix string) *Locker {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Locker{
		client: client,
		prefix: prefix,
	}
}

// New connects to address and returns a locker using the default prefix.
func New(address, password string, db int) *Locker {
	return NewLocker(backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	}), DefaultPrefix)
}

// Key returns the Redis key guarding a maze.
func (l *Locker) Key(key string) string {
	return l.prefix + "run:" + key
}

// TryLock acquires the lock using a single SET NX PX; it never waits.
func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	lockKey := l.Key(key)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, lockKey, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis error acquiring run lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrLockHeld, key)
	}

	return func(ctx context.Context) error {
		if err := l.client.Eval(ctx, releaseScript, []string{lockKey}, token).Err(); err != nil {
			return fmt.Errorf("redis error releasing run lock: %w", err)
		}
		return nil
	}, nil
}

// Ping checks connectivity.
func (l *Locker) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// Close closes the redis client.
func (l *Locker) Close() error {
	return l.client.Close()
}
