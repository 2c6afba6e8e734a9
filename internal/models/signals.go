package models

import "time"

// SignalStrength is the overall directional read of a ticker
type SignalStrength string

const (
	StrengthStrongBullish SignalStrength = "strong_bullish"
	StrengthBullish       SignalStrength = "bullish"
	StrengthNeutral       SignalStrength = "neutral"
	StrengthBearish       SignalStrength = "bearish"
	StrengthStrongBearish SignalStrength = "strong_bearish"
)

// Score maps a strength onto 0-100 for health scoring
func (s SignalStrength) Score() float64 {
	switch s {
	case StrengthStrongBullish:
		return 100
	case StrengthBullish:
		return 75
	case StrengthBearish:
		return 25
	case StrengthStrongBearish:
		return 0
	default:
		return 50
	}
}

// Oscillator states
const (
	OscillatorOversold   = "oversold"
	OscillatorOverbought = "overbought"
	OscillatorNeutral    = "neutral"
)

// Moving average crossovers
const (
	CrossoverGolden = "golden_cross"
	CrossoverDeath  = "death_cross"
	CrossoverNone   = "none"
)

// TechnicalSignal holds computed indicators and their classification for
// one ticker.
type TechnicalSignal struct {
	Ticker      string    `json:"ticker"`
	Price       float64   `json:"price"`
	ComputedAt  time.Time `json:"computed_at"` // date of the latest point used
	DataPoints  int       `json:"data_points"`
	SMAShort    float64   `json:"sma_short"`
	SMALong     float64   `json:"sma_long"`
	MACrossover string    `json:"ma_crossover"`

	// Percent distance of price above (+) or below (-) each average
	PriceVsSMAShortPct float64 `json:"price_vs_sma_short_pct"`
	PriceVsSMALongPct  float64 `json:"price_vs_sma_long_pct"`

	RSI        float64 `json:"rsi"`
	Oscillator string  `json:"oscillator"`

	Support        float64 `json:"support"`
	Resistance     float64 `json:"resistance"`
	NearSupport    bool    `json:"near_support"`
	NearResistance bool    `json:"near_resistance"`

	FiftyTwoWeekHigh    float64 `json:"fifty_two_week_high"`
	FiftyTwoWeekLow     float64 `json:"fifty_two_week_low"`
	Position52Week      float64 `json:"position_52_week"` // 0 at the low, 1 at the high
	DistanceFromHighPct float64 `json:"distance_from_high_pct"`
	DistanceFromLowPct  float64 `json:"distance_from_low_pct"`
	Near52WeekHigh      bool    `json:"near_52_week_high"`
	Near52WeekLow       bool    `json:"near_52_week_low"`

	MomentumPct float64        `json:"momentum_pct"`
	Strength    SignalStrength `json:"strength"`
}

// Oversold reports whether the oscillator is in the oversold zone
func (s TechnicalSignal) Oversold() bool {
	return s.Oscillator == OscillatorOversold
}

// Overbought reports whether the oscillator is in the overbought zone
func (s TechnicalSignal) Overbought() bool {
	return s.Oscillator == OscillatorOverbought
}

// SignalsResult is the outcome of generating signals for several tickers.
// Tickers that could not be evaluated are listed in Errors with a reason.
type SignalsResult struct {
	Signals []TechnicalSignal `json:"signals"`
	Errors  map[string]string `json:"errors,omitempty"`
}
