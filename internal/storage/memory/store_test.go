package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/alin/internal/interfaces"
	"github.com/bobmcallan/alin/internal/storage/storagetest"
)

func TestStore_Contract(t *testing.T) {
	storagetest.RunKVStoreContract(t, func(t *testing.T) interfaces.KVStore {
		return NewStore()
	})
}

func TestStore_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := NewStore()
	store.SetClock(func() time.Time { return now })

	require.NoError(t, store.Set(ctx, "marker", "2025-06-01", time.Hour))

	v, err := store.Get(ctx, "marker")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-01", v)

	now = now.Add(time.Hour)
	_, err = store.Get(ctx, "marker")
	assert.ErrorIs(t, err, interfaces.ErrNotFound)
}
