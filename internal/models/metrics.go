package models

import "time"

// Tracked fundamental metrics
const (
	MetricMarketCap     = "market_cap"
	MetricShortInterest = "short_interest"
	MetricBeta          = "beta"
	MetricAvgVolume     = "avg_volume"
)

// TrackedMetrics lists the metrics recorded in daily snapshots
var TrackedMetrics = []string{MetricMarketCap, MetricShortInterest, MetricBeta, MetricAvgVolume}

// MetricValues extracts the tracked metrics present on a quote
func MetricValues(q Quote) map[string]float64 {
	values := make(map[string]float64, len(TrackedMetrics))
	if q.MarketCap != nil {
		values[MetricMarketCap] = *q.MarketCap
	}
	if q.ShortPercentOfFloat != nil {
		values[MetricShortInterest] = *q.ShortPercentOfFloat
	}
	if q.Beta != nil {
		values[MetricBeta] = *q.Beta
	}
	if q.AverageVolume != nil {
		values[MetricAvgVolume] = *q.AverageVolume
	}
	return values
}

// MetricSnapshot is one stored daily reading of a metric
type MetricSnapshot struct {
	Value     float64   `json:"v"`
	Timestamp time.Time `json:"t"`
}

// MetricHistory summarizes a metric's trailing-year distribution.
// Percentile is nil while fewer than five readings exist; High and Low are
// nil only when there are no readings at all.
type MetricHistory struct {
	Ticker          string   `json:"ticker"`
	Metric          string   `json:"metric"`
	Current         *float64 `json:"current"`
	Percentile      *int     `json:"percentile"`
	High            *float64 `json:"high"`
	Low             *float64 `json:"low"`
	DataPoints      int      `json:"data_points"`
	BuildingHistory bool     `json:"building_history"`
}
