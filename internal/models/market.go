// Package models defines data structures for Alin
package models

import (
	"math"
	"time"
)

// PricePoint is one trading day of price data. Sequences are ascending by Date.
type PricePoint struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// DateKey returns the UTC calendar date of the point as YYYY-MM-DD
func (p PricePoint) DateKey() string {
	return p.Date.UTC().Format("2006-01-02")
}

// Quote is a validated live snapshot for a ticker. Optional fields are nil
// when the provider did not supply a usable value; they are never zero
// stand-ins.
type Quote struct {
	Ticker              string     `json:"ticker"`
	Price               float64    `json:"price"`
	PreviousClose       float64    `json:"previous_close,omitempty"`
	DayChange           float64    `json:"day_change"`
	DayChangePct        float64    `json:"day_change_pct"`
	MarketCap           *float64   `json:"market_cap,omitempty"`
	FiftyTwoWeekLow     *float64   `json:"fifty_two_week_low,omitempty"`
	FiftyTwoWeekHigh    *float64   `json:"fifty_two_week_high,omitempty"`
	AverageVolume       *float64   `json:"average_volume,omitempty"`
	Beta                *float64   `json:"beta,omitempty"`
	ShortPercentOfFloat *float64   `json:"short_percent_of_float,omitempty"`
	NextEarningsDate    *time.Time `json:"next_earnings_date,omitempty"`
	Timestamp           time.Time  `json:"timestamp"`
}

// PerShareDayChange returns the absolute change per share. When the
// provider sent only a percentage it is backed out of the price.
func (q Quote) PerShareDayChange() float64 {
	if q.DayChange != 0 || q.DayChangePct == 0 || q.Price <= 0 || q.DayChangePct <= -100 {
		return q.DayChange
	}
	return q.Price - q.Price/(1+q.DayChangePct/100)
}

// RawQuote carries provider values before validation. Zero, NaN and
// infinite numbers are treated as absent by NewQuote.
type RawQuote struct {
	Ticker              string
	Price               float64
	PreviousClose       float64
	DayChange           float64
	DayChangePct        float64
	MarketCap           float64
	FiftyTwoWeekLow     float64
	FiftyTwoWeekHigh    float64
	AverageVolume       float64
	Beta                float64
	ShortPercentOfFloat float64
	NextEarningsDate    string // YYYY-MM-DD
	Timestamp           time.Time
}

// NewQuote validates a RawQuote once at the provider boundary.
func NewQuote(raw RawQuote) Quote {
	q := Quote{
		Ticker:              raw.Ticker,
		Price:               finiteOrZero(raw.Price),
		PreviousClose:       finiteOrZero(raw.PreviousClose),
		DayChange:           finiteOrZero(raw.DayChange),
		DayChangePct:        finiteOrZero(raw.DayChangePct),
		MarketCap:           positive(raw.MarketCap),
		FiftyTwoWeekLow:     positive(raw.FiftyTwoWeekLow),
		FiftyTwoWeekHigh:    positive(raw.FiftyTwoWeekHigh),
		AverageVolume:       positive(raw.AverageVolume),
		Beta:                nonZeroFinite(raw.Beta),
		ShortPercentOfFloat: positive(raw.ShortPercentOfFloat),
		Timestamp:           raw.Timestamp,
	}

	// Derive day change when only the previous close was supplied
	if q.DayChangePct == 0 && q.PreviousClose > 0 && q.Price > 0 {
		q.DayChange = q.Price - q.PreviousClose
		q.DayChangePct = q.DayChange / q.PreviousClose * 100
	}
	q.DayChange = q.PerShareDayChange()

	// An inverted range is unusable
	if q.FiftyTwoWeekLow != nil && q.FiftyTwoWeekHigh != nil && *q.FiftyTwoWeekLow > *q.FiftyTwoWeekHigh {
		q.FiftyTwoWeekLow = nil
		q.FiftyTwoWeekHigh = nil
	}

	if raw.NextEarningsDate != "" {
		if d, err := time.Parse("2006-01-02", raw.NextEarningsDate); err == nil {
			q.NextEarningsDate = &d
		}
	}

	return q
}

// Float returns a pointer to v. Used for optional quote fields.
func Float(v float64) *float64 {
	return &v
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func positive(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return nil
	}
	return &v
}

func nonZeroFinite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v == 0 {
		return nil
	}
	return &v
}
