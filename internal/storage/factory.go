// Package storage selects and opens the configured KVStore backend.
package storage

import (
	"context"
	"fmt"

	"github.com/bobmcallan/alin/internal/common"
	"github.com/bobmcallan/alin/internal/interfaces"
	"github.com/bobmcallan/alin/internal/storage/badger"
	"github.com/bobmcallan/alin/internal/storage/memory"
	"github.com/bobmcallan/alin/internal/storage/redisstore"
	"github.com/bobmcallan/alin/internal/storage/surrealdb"
)

// New opens the backend named by cfg.Backend.
// Supported backends: "memory", "badger" (default), "redis", "surrealdb".
func New(ctx context.Context, logger *common.Logger, cfg common.StorageConfig) (interfaces.KVStore, error) {
	backend := cfg.Backend
	if backend == "" {
		backend = common.BackendBadger
	}

	switch backend {
	case common.BackendMemory:
		logger.Warn().Msg("Using in-memory storage; data will not survive a restart")
		return memory.NewStore(), nil

	case common.BackendBadger:
		return badger.NewStore(logger, cfg.Badger.Path)

	case common.BackendRedis:
		return redisstore.NewStore(ctx, logger, cfg.Redis)

	case common.BackendSurrealDB:
		return surrealdb.NewStore(ctx, logger, cfg.SurrealDB)

	default:
		return nil, fmt.Errorf("unknown storage backend: %s (supported: memory, badger, redis, surrealdb)", backend)
	}
}
