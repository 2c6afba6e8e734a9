package signals

// Thresholds configures signal generation and insight triggers. All
// percentages are expressed in percent, not fractions.
type Thresholds struct {
	ShortPeriod    int
	LongPeriod     int
	RSIPeriod      int
	MomentumPeriod int

	// Bars searched for a recent moving average crossover
	CrossoverLookback int

	// Bars used for window support and resistance
	SupportLookback int

	Oversold          float64
	Overbought        float64
	ExtremeOversold   float64
	ExtremeOverbought float64

	// Price within this percent of a window level counts as near it
	LevelProximityPct float64

	// Price within this percent of the 52-week high or low counts as near it
	FiftyTwoWeekProximityPct float64

	// Price within this percent of the 52-week high or low raises alert priority
	FiftyTwoWeekUrgentPct float64

	StrongMomentumPct  float64
	ExtremeMomentumPct float64

	// Holding weight above this percent suggests rebalancing
	RebalanceWeightPct float64
	// Holding weight above this percent makes rebalancing urgent
	RebalanceUrgentPct float64

	// Unrealized gain above this percent qualifies for take-profit
	TakeProfitGainPct float64
}

// MinSignalPoints is the fewest price points a signal can be computed from
const MinSignalPoints = 26

// DefaultThresholds is the standard configuration
var DefaultThresholds = Thresholds{
	ShortPeriod:       12,
	LongPeriod:        26,
	RSIPeriod:         14,
	MomentumPeriod:    10,
	CrossoverLookback: 5,
	SupportLookback:   60,

	Oversold:          30,
	Overbought:        70,
	ExtremeOversold:   20,
	ExtremeOverbought: 80,

	LevelProximityPct:        2,
	FiftyTwoWeekProximityPct: 5,
	FiftyTwoWeekUrgentPct:    2,

	StrongMomentumPct:  10,
	ExtremeMomentumPct: 20,

	RebalanceWeightPct: 25,
	RebalanceUrgentPct: 40,
	TakeProfitGainPct:  20,
}
