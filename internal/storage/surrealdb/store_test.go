package surrealdb

import (
	"context"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/alin/internal/common"
	"github.com/bobmcallan/alin/internal/interfaces"
	"github.com/bobmcallan/alin/internal/storage/storagetest"
)

func TestFiniteBound(t *testing.T) {
	assert.Equal(t, -math.MaxFloat64, finiteBound(math.Inf(-1)))
	assert.Equal(t, math.MaxFloat64, finiteBound(math.Inf(1)))
	assert.Equal(t, 42.0, finiteBound(42))
}

func TestStore_Contract(t *testing.T) {
	c := storagetest.StartSurrealDB(t)

	storagetest.RunKVStoreContract(t, func(t *testing.T) interfaces.KVStore {
		cfg := common.SurrealDBConfig{
			Address:   c.WebSocketURL(),
			Namespace: "alin_test",
			Database:  fmt.Sprintf("kv_%s_%d", strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()), time.Now().UnixNano()%100000),
			Username:  "root",
			Password:  "root",
		}
		store, err := NewStore(context.Background(), common.NewSilentLogger(), cfg)
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })
		return store
	})
}
