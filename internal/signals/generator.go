package signals

import (
	"errors"
	"fmt"
	"math"

	"github.com/bobmcallan/alin/internal/models"
)

// ErrInsufficientHistory is returned when a ticker has too few points
var ErrInsufficientHistory = errors.New("insufficient history")

// CheckHistory returns a wrapped ErrInsufficientHistory when history is too
// short to generate a signal.
func CheckHistory(history []models.PricePoint) error {
	if len(history) < MinSignalPoints {
		return fmt.Errorf("%w: %d points (need %d)", ErrInsufficientHistory, len(history), MinSignalPoints)
	}
	return nil
}

// GenerateTechnicalSignal computes indicators for one ticker and classifies
// them. history must be ascending and hold at least MinSignalPoints points;
// callers enforce this with CheckHistory. high52 and low52 come from the
// quote; pass zero to derive them from history.
func GenerateTechnicalSignal(ticker string, history []models.PricePoint, high52, low52 float64, th Thresholds) models.TechnicalSignal {
	latest := history[len(history)-1]
	price := latest.Close

	sig := models.TechnicalSignal{
		Ticker:     ticker,
		Price:      price,
		ComputedAt: latest.Date,
		DataPoints: len(history),
		SMAShort:   SMA(history, th.ShortPeriod),
		SMALong:    SMA(history, th.LongPeriod),
		RSI:        RSI(history, th.RSIPeriod),
	}

	sig.MACrossover = DetectCrossover(history, th.ShortPeriod, th.LongPeriod, th.CrossoverLookback)
	sig.PriceVsSMAShortPct = DistanceToSMA(price, sig.SMAShort)
	sig.PriceVsSMALongPct = DistanceToSMA(price, sig.SMALong)
	sig.Oscillator = ClassifyRSI(sig.RSI, th)
	sig.MomentumPct = MomentumPct(history, th.MomentumPeriod)

	sig.Support, sig.Resistance = DetectSupportResistance(history, th.SupportLookback)
	levelBand := th.LevelProximityPct / 100
	sig.NearSupport = sig.Support > 0 && price <= sig.Support*(1+levelBand)
	sig.NearResistance = sig.Resistance > 0 && price >= sig.Resistance*(1-levelBand)

	if high52 <= 0 || low52 <= 0 {
		high52, low52 = HighLow(history)
	}
	// The live price can sit outside a stale provider range
	high52 = math.Max(high52, price)
	low52 = math.Min(low52, price)

	sig.FiftyTwoWeekHigh = high52
	sig.FiftyTwoWeekLow = low52
	sig.Position52Week = Position52Week(price, high52, low52)
	if high52 > 0 {
		sig.DistanceFromHighPct = (high52 - price) / high52 * 100
	}
	if low52 > 0 {
		sig.DistanceFromLowPct = (price - low52) / low52 * 100
	}

	band := th.FiftyTwoWeekProximityPct
	sig.Near52WeekHigh = sig.DistanceFromHighPct <= band || sig.Position52Week >= 1-band/100
	sig.Near52WeekLow = sig.DistanceFromLowPct <= band || sig.Position52Week <= band/100

	sig.Strength = ClassifyStrength(sig, th)
	return sig
}

// ClassifyStrength resolves the indicator set into a single strength.
// Oscillator extremes take precedence over the moving average trend, which
// takes precedence over 52-week proximity. Conflicts at the deciding level
// resolve to neutral.
func ClassifyStrength(sig models.TechnicalSignal, th Thresholds) models.SignalStrength {
	switch {
	case sig.RSI <= th.ExtremeOversold:
		return models.StrengthStrongBullish
	case sig.RSI <= th.Oversold:
		return models.StrengthBullish
	case sig.RSI >= th.ExtremeOverbought:
		return models.StrengthStrongBearish
	case sig.RSI >= th.Overbought:
		return models.StrengthBearish
	}

	bullishTrend := sig.MACrossover == models.CrossoverGolden ||
		(sig.SMAShort > sig.SMALong && sig.Price > sig.SMAShort)
	bearishTrend := sig.MACrossover == models.CrossoverDeath ||
		(sig.SMAShort < sig.SMALong && sig.Price < sig.SMAShort)

	switch {
	case bullishTrend && !bearishTrend:
		return models.StrengthBullish
	case bearishTrend && !bullishTrend:
		return models.StrengthBearish
	}

	switch {
	case sig.Near52WeekLow && !sig.Near52WeekHigh:
		return models.StrengthBullish
	case sig.Near52WeekHigh && !sig.Near52WeekLow:
		return models.StrengthBearish
	}

	return models.StrengthNeutral
}
