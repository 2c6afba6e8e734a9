package common

import "time"

// Freshness TTLs for stored data
const (
	FreshnessQuote      = 1 * time.Minute
	FreshnessHistory    = 15 * time.Minute
	FreshnessSignals    = 1 * time.Hour
	FreshnessCommentary = 6 * time.Hour
	SnapshotMarkerTTL   = 24 * time.Hour
	MetricRetention     = 365 * 24 * time.Hour
)

// IsFresh returns true if the given timestamp is within the TTL
func IsFresh(updated time.Time, ttl time.Duration) bool {
	if updated.IsZero() {
		return false
	}
	return time.Since(updated) < ttl
}
