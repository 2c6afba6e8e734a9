// Package surrealdb provides a SurrealDB-backed KVStore.
package surrealdb

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/bobmcallan/alin/internal/common"
	"github.com/bobmcallan/alin/internal/interfaces"
)

const (
	kvTable  = "kv"
	setTable = "zset"
)

// kvRecord stores a value with an optional unix-millisecond expiry
type kvRecord struct {
	Key       string `json:"key"`
	Value     string `json:"value"`
	ExpiresAt int64  `json:"expires_at"` // 0 means no expiry
}

type setRecord struct {
	Set    string  `json:"set"`
	Member string  `json:"member"`
	Score  float64 `json:"score"`
}

// Store implements KVStore on SurrealDB tables
type Store struct {
	db     *surrealdb.DB
	logger *common.Logger
	now    func() time.Time
}

// NewStore connects, signs in and selects the namespace and database
func NewStore(ctx context.Context, logger *common.Logger, cfg common.SurrealDBConfig) (*Store, error) {
	db, err := surrealdb.New(cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if _, err := db.SignIn(ctx, map[string]interface{}{
		"user": cfg.Username,
		"pass": cfg.Password,
	}); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to sign in to SurrealDB: %w", err)
	}

	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to select namespace/database: %w", err)
	}

	// Querying a table that does not exist is an error
	for _, table := range []string{kvTable, setTable} {
		sql := fmt.Sprintf("DEFINE TABLE IF NOT EXISTS %s SCHEMALESS", table)
		if _, err := surrealdb.Query[any](ctx, db, sql, nil); err != nil {
			db.Close(ctx)
			return nil, fmt.Errorf("failed to define table %s: %w", table, err)
		}
	}
	if _, err := surrealdb.Query[any](ctx, db, "DEFINE INDEX IF NOT EXISTS zset_set ON zset FIELDS set", nil); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to define sorted set index: %w", err)
	}

	logger.Info().
		Str("address", cfg.Address).
		Str("namespace", cfg.Namespace).
		Str("database", cfg.Database).
		Msg("SurrealDB store connected")

	return &Store{db: db, logger: logger, now: time.Now}, nil
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	rec, err := surrealdb.Select[kvRecord](ctx, s.db, surrealmodels.NewRecordID(kvTable, key))
	if err != nil {
		return "", fmt.Errorf("failed to get key '%s': %w", key, err)
	}
	if rec == nil || rec.Key == "" {
		return "", interfaces.ErrNotFound
	}
	if rec.ExpiresAt > 0 && s.now().UnixMilli() >= rec.ExpiresAt {
		if err := s.Del(ctx, key); err != nil {
			s.logger.Warn().Str("key", key).Err(err).Msg("Failed to delete expired key")
		}
		return "", interfaces.ErrNotFound
	}
	return rec.Value, nil
}

func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	rec := kvRecord{Key: key, Value: value}
	if ttl > 0 {
		rec.ExpiresAt = s.now().Add(ttl).UnixMilli()
	}

	sql := "UPSERT type::record('kv', $id) CONTENT $rec"
	vars := map[string]any{"id": key, "rec": rec}
	if _, err := surrealdb.Query[[]kvRecord](ctx, s.db, sql, vars); err != nil {
		return fmt.Errorf("failed to set key '%s': %w", key, err)
	}
	return nil
}

func (s *Store) Del(ctx context.Context, key string) error {
	sql := "DELETE type::record('kv', $id); DELETE zset WHERE set = $id"
	if _, err := surrealdb.Query[any](ctx, s.db, sql, map[string]any{"id": key}); err != nil {
		return fmt.Errorf("failed to delete key '%s': %w", key, err)
	}
	return nil
}

func (s *Store) SortedSetAdd(ctx context.Context, key string, score float64, member string) error {
	rec := setRecord{Set: key, Member: member, Score: score}

	sql := "UPSERT type::record('zset', $id) CONTENT $rec"
	vars := map[string]any{"id": []any{key, member}, "rec": rec}
	if _, err := surrealdb.Query[[]setRecord](ctx, s.db, sql, vars); err != nil {
		return fmt.Errorf("failed to add to sorted set '%s': %w", key, err)
	}
	return nil
}

func (s *Store) SortedSetRangeByScore(ctx context.Context, key string, min, max float64) ([]interfaces.ScoredMember, error) {
	sql := "SELECT set, member, score FROM zset WHERE set = $set AND score >= $min AND score <= $max ORDER BY score ASC, member ASC"
	vars := map[string]any{"set": key, "min": finiteBound(min), "max": finiteBound(max)}

	results, err := surrealdb.Query[[]setRecord](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to read sorted set '%s': %w", key, err)
	}

	out := []interfaces.ScoredMember{}
	if results != nil && len(*results) > 0 {
		for _, r := range (*results)[0].Result {
			out = append(out, interfaces.ScoredMember{Member: r.Member, Score: r.Score})
		}
	}
	return out, nil
}

func (s *Store) SortedSetRemoveRangeByScore(ctx context.Context, key string, min, max float64) (int64, error) {
	sql := "DELETE zset WHERE set = $set AND score >= $min AND score <= $max RETURN BEFORE"
	vars := map[string]any{"set": key, "min": finiteBound(min), "max": finiteBound(max)}

	results, err := surrealdb.Query[[]setRecord](ctx, s.db, sql, vars)
	if err != nil {
		return 0, fmt.Errorf("failed to remove from sorted set '%s': %w", key, err)
	}
	if results == nil || len(*results) == 0 {
		return 0, nil
	}
	return int64(len((*results)[0].Result)), nil
}

func (s *Store) Ping(ctx context.Context) error {
	if _, err := surrealdb.Query[any](ctx, s.db, "RETURN 1", nil); err != nil {
		return fmt.Errorf("surrealdb ping failed: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return errors.New("surrealdb store is not connected")
	}
	return s.db.Close(context.Background())
}

// finiteBound clamps infinite range bounds, which do not encode as query
// parameters.
func finiteBound(v float64) float64 {
	switch {
	case math.IsInf(v, -1):
		return -math.MaxFloat64
	case math.IsInf(v, 1):
		return math.MaxFloat64
	default:
		return v
	}
}

var _ interfaces.KVStore = (*Store)(nil)
