// Package signals provides technical indicator calculations.
//
// All functions take price points ascending by date; the last element is the
// latest.
package signals

import (
	"math"
	"sort"

	"github.com/bobmcallan/alin/internal/models"
)

// SMA calculates the Simple Moving Average of the trailing period closes
func SMA(points []models.PricePoint, period int) float64 {
	return smaEndingAt(points, len(points), period)
}

// smaEndingAt averages the period closes before index end (exclusive)
func smaEndingAt(points []models.PricePoint, end, period int) float64 {
	if period <= 0 || end > len(points) || end < period {
		return 0
	}

	sum := 0.0
	for i := end - period; i < end; i++ {
		sum += points[i].Close
	}
	return sum / float64(period)
}

// RSI calculates the Relative Strength Index over the trailing period.
// Returns 50 when there is not enough data or the window is flat, and 100
// when the window has no losses.
func RSI(points []models.PricePoint, period int) float64 {
	if period <= 0 || len(points) < period+1 {
		return 50
	}

	var gains, losses float64
	for i := len(points) - period; i < len(points); i++ {
		change := points[i].Close - points[i-1].Close
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	if gains == 0 && losses == 0 {
		return 50
	}

	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	if avgLoss == 0 {
		return 100
	}

	rs := avgGain / avgLoss
	return 100 - (100 / (1 + rs))
}

// DetectCrossover reports whether the short SMA crossed the long SMA within
// the last lookback bars. Returns the most recent cross, or CrossoverNone.
func DetectCrossover(points []models.PricePoint, shortPeriod, longPeriod, lookback int) string {
	if lookback < 1 {
		lookback = 1
	}

	for end := len(points); end > len(points)-lookback; end-- {
		if end-1 < longPeriod {
			break
		}

		shortNow := smaEndingAt(points, end, shortPeriod)
		longNow := smaEndingAt(points, end, longPeriod)
		shortPrev := smaEndingAt(points, end-1, shortPeriod)
		longPrev := smaEndingAt(points, end-1, longPeriod)

		if shortPrev <= longPrev && shortNow > longNow {
			return models.CrossoverGolden
		}
		if shortPrev >= longPrev && shortNow < longNow {
			return models.CrossoverDeath
		}
	}

	return models.CrossoverNone
}

// DetectSupportResistance returns the lower quartile of lows and the upper
// quartile of highs over the trailing lookback points.
func DetectSupportResistance(points []models.PricePoint, lookback int) (support, resistance float64) {
	if len(points) == 0 {
		return 0, 0
	}
	if lookback <= 0 || len(points) < lookback {
		lookback = len(points)
	}

	window := points[len(points)-lookback:]
	highs := make([]float64, len(window))
	lows := make([]float64, len(window))
	for i, p := range window {
		highs[i] = p.High
		lows[i] = p.Low
	}

	sort.Float64s(highs)
	sort.Float64s(lows)

	resistance = highs[int(float64(len(highs))*0.75)]
	support = lows[int(float64(len(lows))*0.25)]

	return support, resistance
}

// HighLow returns the highest high and lowest low across points. Points
// without an intraday range fall back to the close.
func HighLow(points []models.PricePoint) (high, low float64) {
	if len(points) == 0 {
		return 0, 0
	}

	high = 0
	low = math.MaxFloat64
	for _, p := range points {
		h, l := p.High, p.Low
		if h == 0 {
			h = p.Close
		}
		if l == 0 {
			l = p.Close
		}
		if h > high {
			high = h
		}
		if l < low {
			low = l
		}
	}
	return high, low
}

// MomentumPct returns the percent change between the latest close and the
// close period bars earlier.
func MomentumPct(points []models.PricePoint, period int) float64 {
	if period <= 0 || len(points) < period+1 {
		return 0
	}

	past := points[len(points)-1-period].Close
	if past == 0 {
		return 0
	}
	return (points[len(points)-1].Close - past) / past * 100
}

// ClassifyRSI classifies an RSI value against the thresholds
func ClassifyRSI(rsi float64, th Thresholds) string {
	if rsi >= th.Overbought {
		return models.OscillatorOverbought
	}
	if rsi <= th.Oversold {
		return models.OscillatorOversold
	}
	return models.OscillatorNeutral
}

// DistanceToSMA calculates percentage distance from current price to SMA
func DistanceToSMA(currentPrice, sma float64) float64 {
	if sma == 0 {
		return 0
	}
	return ((currentPrice - sma) / sma) * 100
}

// Position52Week places price within the 52-week range, 0 at the low and 1
// at the high. A zero-width range yields 0.5.
func Position52Week(price, high, low float64) float64 {
	if high <= low {
		return 0.5
	}
	return (price - low) / (high - low)
}
