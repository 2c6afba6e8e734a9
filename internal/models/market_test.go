package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQuote_OptionalFieldsAbsentNotZero(t *testing.T) {
	q := NewQuote(RawQuote{
		Ticker:       "NVDA",
		Price:        120,
		DayChangePct: 1.5,
		MarketCap:    0,
		Beta:         math.NaN(),
	})

	assert.Equal(t, 120.0, q.Price)
	assert.Nil(t, q.MarketCap)
	assert.Nil(t, q.Beta)
	assert.Nil(t, q.FiftyTwoWeekHigh)
	assert.Nil(t, q.NextEarningsDate)
}

func TestNewQuote_KeepsValidOptionalFields(t *testing.T) {
	q := NewQuote(RawQuote{
		Ticker:              "AMD",
		Price:               150,
		MarketCap:           2.4e11,
		FiftyTwoWeekLow:     90,
		FiftyTwoWeekHigh:    210,
		AverageVolume:       5e7,
		Beta:                -0.3,
		ShortPercentOfFloat: 2.5,
		NextEarningsDate:    "2026-11-04",
	})

	require.NotNil(t, q.MarketCap)
	assert.Equal(t, 2.4e11, *q.MarketCap)
	require.NotNil(t, q.Beta)
	assert.Equal(t, -0.3, *q.Beta)
	require.NotNil(t, q.NextEarningsDate)
	assert.Equal(t, "2026-11-04", q.NextEarningsDate.Format("2006-01-02"))
}

func TestNewQuote_InvertedRangeDropped(t *testing.T) {
	q := NewQuote(RawQuote{Ticker: "X", Price: 10, FiftyTwoWeekLow: 20, FiftyTwoWeekHigh: 5})
	assert.Nil(t, q.FiftyTwoWeekLow)
	assert.Nil(t, q.FiftyTwoWeekHigh)
}

func TestNewQuote_DerivesDayChangeFromPreviousClose(t *testing.T) {
	q := NewQuote(RawQuote{Ticker: "X", Price: 110, PreviousClose: 100})
	assert.InDelta(t, 10.0, q.DayChange, 1e-9)
	assert.InDelta(t, 10.0, q.DayChangePct, 1e-9)
}

func TestNewQuote_DerivesDayChangeFromPercentOnly(t *testing.T) {
	q := NewQuote(RawQuote{Ticker: "X", Price: 110, DayChangePct: 10})
	assert.InDelta(t, 10.0, q.DayChange, 1e-9)
	assert.InDelta(t, 10.0, q.DayChangePct, 1e-9)
}

func TestQuote_PerShareDayChange(t *testing.T) {
	assert.InDelta(t, 10.0, Quote{Price: 110, DayChangePct: 10}.PerShareDayChange(), 1e-9)
	assert.InDelta(t, -10.0, Quote{Price: 90, DayChangePct: -10}.PerShareDayChange(), 1e-9)
	assert.Equal(t, 3.0, Quote{Price: 110, DayChange: 3, DayChangePct: 10}.PerShareDayChange())
	assert.Equal(t, 0.0, Quote{Price: 110}.PerShareDayChange())
	assert.Equal(t, 0.0, Quote{Price: 110, DayChangePct: -100}.PerShareDayChange())
}

func TestMetricValues(t *testing.T) {
	q := NewQuote(RawQuote{Ticker: "X", Price: 1, MarketCap: 1e9, Beta: 1.2})
	values := MetricValues(q)

	assert.Len(t, values, 2)
	assert.Equal(t, 1e9, values[MetricMarketCap])
	assert.Equal(t, 1.2, values[MetricBeta])
	_, ok := values[MetricAvgVolume]
	assert.False(t, ok)
}

func TestHolding_UnrealizedGainPct(t *testing.T) {
	h := Holding{Ticker: "X", Price: 130, CostBasis: Float(100)}
	gain, ok := h.UnrealizedGainPct()
	assert.True(t, ok)
	assert.InDelta(t, 30.0, gain, 1e-9)

	_, ok = Holding{Ticker: "Y", Price: 10}.UnrealizedGainPct()
	assert.False(t, ok)
}

func TestSignalStrength_Score(t *testing.T) {
	assert.Equal(t, 100.0, StrengthStrongBullish.Score())
	assert.Equal(t, 50.0, StrengthNeutral.Score())
	assert.Equal(t, 0.0, StrengthStrongBearish.Score())
	assert.Equal(t, 50.0, SignalStrength("unknown").Score())
}

func TestCategory_Valid(t *testing.T) {
	assert.True(t, CategoryRobotics.Valid())
	assert.False(t, Category("crypto").Valid())
}
