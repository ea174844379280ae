package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/ratmaze"
	redisadapter "github.com/aretw0/ratmaze/pkg/adapters/redis"
	"github.com/aretw0/ratmaze/pkg/config"
	"github.com/aretw0/ratmaze/pkg/domain"
)

// createEngine builds an engine from cfg. When a Redis address is configured the run
// guard is shared through Redis; the returned func closes that connection.
func createEngine(ctx context.Context, cfg config.Config, logger *slog.Logger, hooks domain.LifecycleHooks) (*ratmaze.Engine, func() error, error) {
	grid, err := cfg.Grid()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid grid: %w", err)
	}

	opts := []ratmaze.Option{
		ratmaze.WithGrid(grid),
		ratmaze.WithLogger(logger),
		ratmaze.WithLifecycleHooks(hooks),
		ratmaze.WithLockKey(cfg.Redis.Key),
		ratmaze.WithLockTTL(cfg.Redis.LockTTL),
	}
	if cfg.Seed != 0 {
		opts = append(opts, ratmaze.WithSeed(cfg.Seed))
	}

	closer := func() error { return nil }
	if cfg.Redis.Addr != "" {
		locker := redisadapter.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := locker.Ping(ctx); err != nil {
			_ = locker.Close()
			return nil, nil, fmt.Errorf("redis unreachable at %s: %w", cfg.Redis.Addr, err)
		}
		logger.Info("using redis run lock", "addr", cfg.Redis.Addr, "key", locker.Key(cfg.Redis.Key))
		opts = append(opts, ratmaze.WithLocker(locker))
		closer = locker.Close
	}

	engine, err := ratmaze.New(opts...)
	if err != nil {
		_ = closer()
		return nil, nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return engine, closer, nil
}
