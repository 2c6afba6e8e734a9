// Package valuation computes the synthetic $ALIN index from the inception
// allocation and constituent price histories.
package valuation

import (
	"math"
	"sort"
	"time"

	"github.com/bobmcallan/alin/internal/models"
)

const dateLayout = "2006-01-02"

// ComputeSyntheticIndex returns one index point per date in [start, end]
// on which at least one constituent priced. Dates before the inception date
// are never emitted.
//
// For each date the inception-weighted return since inception is summed
// over constituents that have a price that day. When only part of the
// allocation prices (contributing weight strictly between 0 and 1) the sum
// is divided by the contributing weight, so a missing constituent does not
// drag the index toward zero. Constituents with an unset inception price
// are excluded. Open, high and low use the same contributors as the close.
func ComputeSyntheticIndex(alloc models.InceptionAllocation, histories map[string][]models.PricePoint, start, end time.Time) []models.PricePoint {
	from := dayStart(start)
	if inception := dayStart(alloc.InceptionDate); !alloc.InceptionDate.IsZero() && inception.After(from) {
		from = inception
	}
	to := dayStart(end)
	if to.Before(from) {
		return []models.PricePoint{}
	}

	byDate := make(map[string]map[string]models.PricePoint, len(histories))
	dateSet := make(map[string]bool)
	for ticker, points := range histories {
		m := make(map[string]models.PricePoint, len(points))
		for _, p := range points {
			d := dayStart(p.Date)
			if d.Before(from) || d.After(to) {
				continue
			}
			key := d.Format(dateLayout)
			m[key] = p
			dateSet[key] = true
		}
		byDate[ticker] = m
	}

	dates := make([]string, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	base := alloc.IndexInceptionPrice
	out := make([]models.PricePoint, 0, len(dates))

	for _, key := range dates {
		var weight, rOpen, rHigh, rLow, rClose float64

		for _, entry := range alloc.Entries {
			p0 := entry.InceptionPrice
			if p0 <= 0 || math.IsNaN(p0) || math.IsInf(p0, 0) {
				continue
			}
			p, ok := byDate[entry.Ticker][key]
			if !ok || p.Close <= 0 {
				continue
			}

			weight += entry.Weight
			rClose += entry.Weight * (p.Close - p0) / p0
			rOpen += entry.Weight * (orClose(p.Open, p.Close) - p0) / p0
			rHigh += entry.Weight * (orClose(p.High, p.Close) - p0) / p0
			rLow += entry.Weight * (orClose(p.Low, p.Close) - p0) / p0
		}

		if weight <= 0 {
			continue
		}
		if weight < 1 {
			rOpen /= weight
			rHigh /= weight
			rLow /= weight
			rClose /= weight
		}

		date, _ := time.Parse(dateLayout, key)
		out = append(out, models.PricePoint{
			Date:  date,
			Open:  base * (1 + rOpen),
			High:  base * (1 + rHigh),
			Low:   base * (1 + rLow),
			Close: base * (1 + rClose),
		})
	}

	return out
}

// NormalizeToReturn rescales a series to percent return since its first
// point's close.
func NormalizeToReturn(points []models.PricePoint) []models.PricePoint {
	if len(points) == 0 || points[0].Close == 0 {
		return []models.PricePoint{}
	}

	c0 := points[0].Close
	pct := func(v float64) float64 { return (v/c0 - 1) * 100 }

	out := make([]models.PricePoint, len(points))
	for i, p := range points {
		out[i] = models.PricePoint{
			Date:   p.Date,
			Open:   pct(orClose(p.Open, p.Close)),
			High:   pct(orClose(p.High, p.Close)),
			Low:    pct(orClose(p.Low, p.Close)),
			Close:  pct(p.Close),
			Volume: p.Volume,
		}
	}
	return out
}

func orClose(v, fallback float64) float64 {
	if v <= 0 {
		return fallback
	}
	return v
}

func dayStart(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
