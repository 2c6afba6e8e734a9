// Package memory provides an in-process KVStore for tests and local runs.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bobmcallan/alin/internal/interfaces"
)

type entry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

// Store is a map-backed KVStore. Safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	values map[string]entry
	sets   map[string]map[string]float64
	now    func() time.Time
}

// NewStore creates an empty memory store
func NewStore() *Store {
	return &Store{
		values: make(map[string]entry),
		sets:   make(map[string]map[string]float64),
		now:    time.Now,
	}
}

// SetClock replaces the store's time source
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.values[key]
	if !ok || (!e.expiresAt.IsZero() && !s.now().Before(e.expiresAt)) {
		return "", interfaces.ErrNotFound
	}
	return e.value, nil
}

func (s *Store) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.values[key] = e
	return nil
}

func (s *Store) Del(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.values, key)
	delete(s.sets, key)
	return nil
}

func (s *Store) SortedSetAdd(_ context.Context, key string, score float64, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.sets[key]
	if !ok {
		set = make(map[string]float64)
		s.sets[key] = set
	}
	set[member] = score
	return nil
}

func (s *Store) SortedSetRangeByScore(_ context.Context, key string, min, max float64) ([]interfaces.ScoredMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []interfaces.ScoredMember{}
	for member, score := range s.sets[key] {
		if score >= min && score <= max {
			out = append(out, interfaces.ScoredMember{Member: member, Score: score})
		}
	}
	sortMembers(out)
	return out, nil
}

func (s *Store) SortedSetRemoveRangeByScore(_ context.Context, key string, min, max float64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for member, score := range s.sets[key] {
		if score >= min && score <= max {
			delete(s.sets[key], member)
			removed++
		}
	}
	return removed, nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// sortMembers orders by score, then member, matching Redis ZRANGEBYSCORE
func sortMembers(members []interfaces.ScoredMember) {
	sort.Slice(members, func(i, j int) bool {
		if members[i].Score != members[j].Score {
			return members[i].Score < members[j].Score
		}
		return members[i].Member < members[j].Member
	})
}

var _ interfaces.KVStore = (*Store)(nil)
