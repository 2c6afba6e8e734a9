// Package badger provides a BadgerHold-backed KVStore for single-node
// deployments.
package badger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/bobmcallan/alin/internal/common"
	"github.com/bobmcallan/alin/internal/interfaces"
)

// kvRecord is a plain key with optional expiry
type kvRecord struct {
	Key       string `badgerhold:"key"`
	Value     string
	ExpiresAt time.Time
}

// setMember is one sorted-set entry, keyed by set and member
type setMember struct {
	ID     string `badgerhold:"key"`
	Set    string `badgerhold:"index"`
	Member string
	Score  float64
}

// Store wraps a BadgerHold database connection
type Store struct {
	db     *badgerhold.Store
	logger *common.Logger
	now    func() time.Time
}

// NewStore opens or creates a BadgerHold store at path
func NewStore(logger *common.Logger, path string) (*Store, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create badger directory %s: %w", path, err)
	}

	options := badgerhold.DefaultOptions
	options.Dir = path
	options.ValueDir = path
	options.Logger = nil // Disable default badger logger

	db, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}

	logger.Debug().Str("path", path).Msg("BadgerHold store opened")

	return &Store{db: db, logger: logger, now: time.Now}, nil
}

var (
	negInf = math.Inf(-1)
	posInf = math.Inf(1)
)

func memberID(set, member string) string {
	return set + "\x00" + member
}

func (s *Store) Get(_ context.Context, key string) (string, error) {
	var rec kvRecord
	if err := s.db.Get(key, &rec); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return "", interfaces.ErrNotFound
		}
		return "", fmt.Errorf("failed to get key '%s': %w", key, err)
	}
	if !rec.ExpiresAt.IsZero() && !s.now().Before(rec.ExpiresAt) {
		// Lazy expiry
		if err := s.db.Delete(key, kvRecord{}); err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
			s.logger.Warn().Str("key", key).Err(err).Msg("Failed to delete expired key")
		}
		return "", interfaces.ErrNotFound
	}
	return rec.Value, nil
}

func (s *Store) Set(_ context.Context, key, value string, ttl time.Duration) error {
	rec := kvRecord{Key: key, Value: value}
	if ttl > 0 {
		rec.ExpiresAt = s.now().Add(ttl)
	}
	if err := s.db.Upsert(key, &rec); err != nil {
		return fmt.Errorf("failed to set key '%s': %w", key, err)
	}
	return nil
}

func (s *Store) Del(ctx context.Context, key string) error {
	if err := s.db.Delete(key, kvRecord{}); err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		return fmt.Errorf("failed to delete key '%s': %w", key, err)
	}
	if _, err := s.SortedSetRemoveRangeByScore(ctx, key, negInf, posInf); err != nil {
		return err
	}
	return nil
}

func (s *Store) SortedSetAdd(_ context.Context, key string, score float64, member string) error {
	id := memberID(key, member)
	rec := setMember{ID: id, Set: key, Member: member, Score: score}
	if err := s.db.Upsert(id, &rec); err != nil {
		return fmt.Errorf("failed to add to sorted set '%s': %w", key, err)
	}
	return nil
}

func (s *Store) members(key string) ([]setMember, error) {
	var list []setMember
	if err := s.db.Find(&list, badgerhold.Where("Set").Eq(key)); err != nil {
		return nil, fmt.Errorf("failed to read sorted set '%s': %w", key, err)
	}
	return list, nil
}

func (s *Store) SortedSetRangeByScore(_ context.Context, key string, min, max float64) ([]interfaces.ScoredMember, error) {
	list, err := s.members(key)
	if err != nil {
		return nil, err
	}

	out := make([]interfaces.ScoredMember, 0, len(list))
	for _, m := range list {
		if m.Score >= min && m.Score <= max {
			out = append(out, interfaces.ScoredMember{Member: m.Member, Score: m.Score})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score < out[j].Score
		}
		return out[i].Member < out[j].Member
	})
	return out, nil
}

func (s *Store) SortedSetRemoveRangeByScore(_ context.Context, key string, min, max float64) (int64, error) {
	list, err := s.members(key)
	if err != nil {
		return 0, err
	}

	var removed int64
	for _, m := range list {
		if m.Score < min || m.Score > max {
			continue
		}
		if err := s.db.Delete(m.ID, setMember{}); err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
			return removed, fmt.Errorf("failed to remove from sorted set '%s': %w", key, err)
		}
		removed++
	}
	return removed, nil
}

func (s *Store) Ping(context.Context) error {
	if s.db == nil {
		return errors.New("badger store is closed")
	}
	return nil
}

// Close closes the BadgerHold database
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

var _ interfaces.KVStore = (*Store)(nil)
