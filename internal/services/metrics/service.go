// Package metrics records daily fundamental snapshots per ticker and ranks
// the live value against the trailing year.
package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/bobmcallan/alin/internal/common"
	"github.com/bobmcallan/alin/internal/interfaces"
	"github.com/bobmcallan/alin/internal/models"
)

// MinPercentilePoints is the smallest sample a percentile is reported for
const MinPercentilePoints = 5

// Service implements MetricService on a KVStore
type Service struct {
	store  interfaces.KVStore
	market interfaces.MarketDataClient
	logger *common.Logger
	now    func() time.Time
}

// NewService creates a new metric tracker
func NewService(store interfaces.KVStore, market interfaces.MarketDataClient, logger *common.Logger) *Service {
	return &Service{
		store:  store,
		market: market,
		logger: logger,
		now:    time.Now,
	}
}

func markerKey(ticker string) string {
	return fmt.Sprintf("metrics:%s:last-snapshot", ticker)
}

func seriesKey(ticker, metric string) string {
	return fmt.Sprintf("metrics:%s:%s", ticker, metric)
}

// RecordDailySnapshot appends today's reading of each finite metric. A
// marker with a 24h TTL holding the UTC date makes repeat calls on the same
// day no-ops. Store failures are logged and reported as not recorded.
func (s *Service) RecordDailySnapshot(ctx context.Context, ticker string, values map[string]float64) bool {
	now := s.now().UTC()
	today := now.Format("2006-01-02")

	marker, err := s.store.Get(ctx, markerKey(ticker))
	switch {
	case err == nil && marker == today:
		return false
	case err != nil && !errors.Is(err, interfaces.ErrNotFound):
		s.logger.Warn().Str("ticker", ticker).Err(err).Msg("Metric snapshot marker unavailable")
		return false
	}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	cutoff := now.Add(-common.MetricRetention)
	written := 0

	for _, metric := range models.TrackedMetrics {
		v, ok := values[metric]
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}

		member, err := json.Marshal(models.MetricSnapshot{Value: v, Timestamp: now})
		if err != nil {
			continue
		}
		key := seriesKey(ticker, metric)

		// One reading per day: replace anything already written today
		if _, err := s.store.SortedSetRemoveRangeByScore(ctx, key, float64(dayStart.UnixMilli()), math.Inf(1)); err != nil {
			s.logger.Warn().Str("key", key).Err(err).Msg("Failed to clear today's metric reading")
			return false
		}
		if err := s.store.SortedSetAdd(ctx, key, float64(now.UnixMilli()), string(member)); err != nil {
			s.logger.Warn().Str("key", key).Err(err).Msg("Failed to record metric snapshot")
			return false
		}
		if _, err := s.store.SortedSetRemoveRangeByScore(ctx, key, math.Inf(-1), float64(cutoff.UnixMilli()-1)); err != nil {
			s.logger.Warn().Str("key", key).Err(err).Msg("Failed to prune metric history")
		}
		written++
	}

	if written == 0 {
		return false
	}

	if err := s.store.Set(ctx, markerKey(ticker), today, common.SnapshotMarkerTTL); err != nil {
		s.logger.Warn().Str("ticker", ticker).Err(err).Msg("Failed to set metric snapshot marker")
	}

	s.logger.Debug().Str("ticker", ticker).Int("metrics", written).Msg("Daily metric snapshot recorded")
	return true
}

// ComputeMetricHistory ranks current against the last 365 days of readings.
// The live value is added to the sample when no stored reading equals it.
// A nil current ranks the most recent stored reading instead.
func (s *Service) ComputeMetricHistory(ctx context.Context, ticker, metric string, current *float64) models.MetricHistory {
	if current != nil && (math.IsNaN(*current) || math.IsInf(*current, 0)) {
		current = nil
	}

	now := s.now().UTC()
	from := now.Add(-common.MetricRetention)
	key := seriesKey(ticker, metric)

	members, err := s.store.SortedSetRangeByScore(ctx, key, float64(from.UnixMilli()), float64(now.UnixMilli()))
	if err != nil {
		s.logger.Warn().Str("key", key).Err(err).Msg("Metric history unavailable")
		return noHistory(ticker, metric, current)
	}

	values := make([]float64, 0, len(members)+1)
	for _, m := range members {
		var snap models.MetricSnapshot
		if err := json.Unmarshal([]byte(m.Member), &snap); err != nil {
			s.logger.Debug().Str("key", key).Err(err).Msg("Skipping unreadable metric snapshot")
			continue
		}
		values = append(values, snap.Value)
	}

	// Members are ascending by score, so the last one is the latest
	if current == nil && len(values) > 0 {
		latest := values[len(values)-1]
		current = &latest
	}
	if current != nil && !contains(values, *current) {
		values = append(values, *current)
	}

	return Summarize(ticker, metric, current, values)
}

// Summarize builds the history response from a sample that already
// includes current.
func Summarize(ticker, metric string, current *float64, values []float64) models.MetricHistory {
	if len(values) == 0 {
		return noHistory(ticker, metric, current)
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	low, high := sorted[0], sorted[len(sorted)-1]

	h := models.MetricHistory{
		Ticker:     ticker,
		Metric:     metric,
		Current:    current,
		High:       &high,
		Low:        &low,
		DataPoints: len(sorted),
	}

	if len(sorted) < MinPercentilePoints || current == nil {
		h.BuildingHistory = len(sorted) < MinPercentilePoints
		return h
	}

	atOrBelow := sort.Search(len(sorted), func(i int) bool { return sorted[i] > *current })
	p := int(math.Round(100 * float64(atOrBelow) / float64(len(sorted))))
	h.Percentile = &p
	return h
}

// TickerMetricHistories fetches a live quote, records today's snapshot and
// ranks each tracked metric concurrently. Results follow TrackedMetrics
// order.
func (s *Service) TickerMetricHistories(ctx context.Context, ticker string) ([]models.MetricHistory, error) {
	quote, err := s.market.GetQuote(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch quote for %s: %w", ticker, err)
	}
	values := models.MetricValues(*quote)

	s.RecordDailySnapshot(ctx, ticker, values)

	type historyResult struct {
		index   int
		history models.MetricHistory
	}

	results := make(chan historyResult, len(models.TrackedMetrics))
	for i, metric := range models.TrackedMetrics {
		go func(i int, metric string) {
			var current *float64
			if v, ok := values[metric]; ok {
				current = &v
			}
			results <- historyResult{index: i, history: s.ComputeMetricHistory(ctx, ticker, metric, current)}
		}(i, metric)
	}

	histories := make([]models.MetricHistory, len(models.TrackedMetrics))
	for range models.TrackedMetrics {
		r := <-results
		histories[r.index] = r.history
	}
	return histories, nil
}

func noHistory(ticker, metric string, current *float64) models.MetricHistory {
	return models.MetricHistory{
		Ticker:          ticker,
		Metric:          metric,
		Current:         current,
		BuildingHistory: true,
	}
}

func contains(values []float64, v float64) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

// Ensure Service implements MetricService
var _ interfaces.MetricService = (*Service)(nil)
