// Package storagetest holds shared KVStore contract tests and container
// helpers for the storage backends.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/alin/internal/interfaces"
)

// RunKVStoreContract exercises the behaviour every backend must share.
// newStore must return an empty store; it is called once per subtest.
func RunKVStoreContract(t *testing.T, newStore func(t *testing.T) interfaces.KVStore) {
	t.Helper()

	t.Run("get missing", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Get(context.Background(), "absent")
		assert.ErrorIs(t, err, interfaces.ErrNotFound)
	})

	t.Run("set get del", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)

		require.NoError(t, store.Set(ctx, "portfolio:alin", `{"id":"alin"}`, 0))
		v, err := store.Get(ctx, "portfolio:alin")
		require.NoError(t, err)
		assert.Equal(t, `{"id":"alin"}`, v)

		require.NoError(t, store.Set(ctx, "portfolio:alin", `{"id":"alin","v":2}`, 0))
		v, err = store.Get(ctx, "portfolio:alin")
		require.NoError(t, err)
		assert.Equal(t, `{"id":"alin","v":2}`, v)

		require.NoError(t, store.Del(ctx, "portfolio:alin"))
		_, err = store.Get(ctx, "portfolio:alin")
		assert.ErrorIs(t, err, interfaces.ErrNotFound)

		// Deleting again is not an error
		assert.NoError(t, store.Del(ctx, "portfolio:alin"))
	})

	t.Run("set with ttl is readable", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)

		require.NoError(t, store.Set(ctx, "metrics:NVDA:last-snapshot", "2025-06-01", time.Hour))
		v, err := store.Get(ctx, "metrics:NVDA:last-snapshot")
		require.NoError(t, err)
		assert.Equal(t, "2025-06-01", v)
	})

	t.Run("sorted set range and remove", func(t *testing.T) {
		ctx := context.Background()
		store := newStore(t)
		key := "metrics:NVDA:beta"

		require.NoError(t, store.SortedSetAdd(ctx, key, 300, "c"))
		require.NoError(t, store.SortedSetAdd(ctx, key, 100, "a"))
		require.NoError(t, store.SortedSetAdd(ctx, key, 200, "b"))

		all, err := store.SortedSetRangeByScore(ctx, key, 0, 1000)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "a", all[0].Member)
		assert.Equal(t, "b", all[1].Member)
		assert.Equal(t, "c", all[2].Member)
		assert.Equal(t, 100.0, all[0].Score)

		middle, err := store.SortedSetRangeByScore(ctx, key, 150, 300)
		require.NoError(t, err)
		require.Len(t, middle, 2)
		assert.Equal(t, "b", middle[0].Member)

		// Re-adding a member rescored it instead of duplicating
		require.NoError(t, store.SortedSetAdd(ctx, key, 50, "c"))
		all, err = store.SortedSetRangeByScore(ctx, key, 0, 1000)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "c", all[0].Member)

		removed, err := store.SortedSetRemoveRangeByScore(ctx, key, 0, 100)
		require.NoError(t, err)
		assert.Equal(t, int64(2), removed)

		rest, err := store.SortedSetRangeByScore(ctx, key, 0, 1000)
		require.NoError(t, err)
		require.Len(t, rest, 1)
		assert.Equal(t, "b", rest[0].Member)
	})

	t.Run("empty sorted set", func(t *testing.T) {
		store := newStore(t)
		members, err := store.SortedSetRangeByScore(context.Background(), "metrics:NONE:beta", 0, 1000)
		require.NoError(t, err)
		assert.Empty(t, members)
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, newStore(t).Ping(context.Background()))
	})
}
