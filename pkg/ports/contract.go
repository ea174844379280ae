package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/ratmaze/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunLockerContract runs a suite of tests to verify that a RunLocker implementation
// adheres to the defined interface contract.
func RunLockerContract(t *testing.T, locker RunLocker) {
	ctx := context.Background()
	key := "contract-maze-" + time.Now().Format("20060102150405.000000000")

	t.Run("Lock and Unlock", func(t *testing.T) {
		unlock, err := locker.TryLock(ctx, key, 0)
		require.NoError(t, err, "TryLock on a free key should succeed")
		require.NotNil(t, unlock)

		require.NoError(t, unlock(ctx))

		unlock, err = locker.TryLock(ctx, key, 0)
		require.NoError(t, err, "TryLock after Unlock should succeed")
		require.NoError(t, unlock(ctx))
	})

	t.Run("Contention", func(t *testing.T) {
		unlock, err := locker.TryLock(ctx, key, 0)
		require.NoError(t, err)
		defer unlock(ctx)

		_, err = locker.TryLock(ctx, key, 0)
		assert.ErrorIs(t, err, domain.ErrLockHeld, "second TryLock should not wait")
	})

	t.Run("Independent Keys", func(t *testing.T) {
		u1, err := locker.TryLock(ctx, key+"-a", 0)
		require.NoError(t, err)
		defer u1(ctx)

		u2, err := locker.TryLock(ctx, key+"-b", 0)
		require.NoError(t, err)
		defer u2(ctx)
	})

	t.Run("Stale Unlock", func(t *testing.T) {
		unlock, err := locker.TryLock(ctx, key, 0)
		require.NoError(t, err)
		require.NoError(t, unlock(ctx))

		other, err := locker.TryLock(ctx, key, 0)
		require.NoError(t, err)
		defer other(ctx)

		// A second release from the first owner must not free the new owner's lock.
		_ = unlock(ctx)
		_, err = locker.TryLock(ctx, key, 0)
		assert.ErrorIs(t, err, domain.ErrLockHeld)
	})
}
