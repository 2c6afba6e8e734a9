// Package interfaces defines service contracts for Alin
package interfaces

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by KVStore.Get when a key is absent or expired
var ErrNotFound = errors.New("key not found")

// ScoredMember is a sorted-set entry
type ScoredMember struct {
	Member string
	Score  float64
}

// KVStore is the key-value and sorted-set contract shared by all storage
// backends. A ttl of zero means the key does not expire.
type KVStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error

	// SortedSetAdd inserts or rescores member under key
	SortedSetAdd(ctx context.Context, key string, score float64, member string) error
	// SortedSetRangeByScore returns members with min <= score <= max, ascending by score
	SortedSetRangeByScore(ctx context.Context, key string, min, max float64) ([]ScoredMember, error)
	// SortedSetRemoveRangeByScore deletes members with min <= score <= max and returns the count
	SortedSetRemoveRangeByScore(ctx context.Context, key string, min, max float64) (int64, error)

	// Ping reports backend reachability
	Ping(ctx context.Context) error
	Close() error
}
