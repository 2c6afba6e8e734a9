package insights

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/alin/internal/models"
	"github.com/bobmcallan/alin/internal/signals"
)

var th = signals.DefaultThresholds

func neutralSignal(ticker string) models.TechnicalSignal {
	return models.TechnicalSignal{
		Ticker:              ticker,
		RSI:                 50,
		Oscillator:          models.OscillatorNeutral,
		MACrossover:         models.CrossoverNone,
		DistanceFromHighPct: 20,
		DistanceFromLowPct:  20,
		Strength:            models.StrengthNeutral,
	}
}

func withRSI(sig models.TechnicalSignal, rsi float64) models.TechnicalSignal {
	sig.RSI = rsi
	sig.Oscillator = signals.ClassifyRSI(rsi, th)
	return sig
}

func TestComputeInsights_Empty(t *testing.T) {
	result := ComputeInsights(nil, nil, th)

	assert.Empty(t, result.Alerts)
	assert.NotNil(t, result.Alerts)
	assert.Empty(t, result.Opportunities)
	assert.NotNil(t, result.Opportunities)
	assert.Equal(t, EmptyHealthScore, result.Health.Score)
	assert.Equal(t, models.HealthFair, result.Health.Bucket)
}

func TestBuildAlerts_PriorityBands(t *testing.T) {
	tests := []struct {
		name     string
		rsi      float64
		wantType string
		want     models.Priority
	}{
		{"extreme oversold", 15, models.AlertOversold, models.PriorityHigh},
		{"oversold boundary 20", 20, models.AlertOversold, models.PriorityHigh},
		{"oversold", 25, models.AlertOversold, models.PriorityMedium},
		{"oversold boundary 30", 30, models.AlertOversold, models.PriorityMedium},
		{"overbought", 75, models.AlertOverbought, models.PriorityMedium},
		{"extreme overbought", 85, models.AlertOverbought, models.PriorityHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alerts := BuildAlerts([]models.TechnicalSignal{withRSI(neutralSignal("X"), tt.rsi)}, th)
			require.Len(t, alerts, 1)
			assert.Equal(t, tt.wantType, alerts[0].Type)
			assert.Equal(t, tt.want, alerts[0].Priority)
		})
	}
}

func TestBuildAlerts_NoTriggerNoAlert(t *testing.T) {
	alerts := BuildAlerts([]models.TechnicalSignal{neutralSignal("X")}, th)
	assert.Empty(t, alerts)
}

func TestBuildAlerts_SortedByPriorityThenTicker(t *testing.T) {
	low := neutralSignal("AAA")
	low.NearSupport = true
	low.Support = 10

	mediumB := withRSI(neutralSignal("BBB"), 25)
	mediumA := withRSI(neutralSignal("ABB"), 72)
	high := withRSI(neutralSignal("ZZZ"), 10)

	alerts := BuildAlerts([]models.TechnicalSignal{low, mediumB, high, mediumA}, th)

	require.Len(t, alerts, 4)
	assert.Equal(t, "ZZZ", alerts[0].Ticker)
	assert.Equal(t, "ABB", alerts[1].Ticker)
	assert.Equal(t, "BBB", alerts[2].Ticker)
	assert.Equal(t, "AAA", alerts[3].Ticker)
	assert.Equal(t, models.PriorityLow, alerts[3].Priority)
}

func TestBuildAlerts_OnePerTickerMostUrgent(t *testing.T) {
	sig := withRSI(neutralSignal("NVDA"), 25) // medium oscillator
	sig.MomentumPct = -22                     // high momentum
	sig.NearSupport = true

	alerts := BuildAlerts([]models.TechnicalSignal{sig, sig}, th)

	require.Len(t, alerts, 1)
	assert.Equal(t, models.AlertStrongMomentum, alerts[0].Type)
	assert.Equal(t, models.PriorityHigh, alerts[0].Priority)
	assert.Contains(t, alerts[0].Message, "down")
}

func TestBuildAlerts_OscillatorWinsTie(t *testing.T) {
	sig := withRSI(neutralSignal("AMD"), 28)
	sig.MomentumPct = 12 // medium as well

	alerts := BuildAlerts([]models.TechnicalSignal{sig}, th)

	require.Len(t, alerts, 1)
	assert.Equal(t, models.AlertOversold, alerts[0].Type)
	assert.Equal(t, models.ActionConsiderBuying, alerts[0].Action)
}

func TestBuildAlerts_FiftyTwoWeekProximity(t *testing.T) {
	nearHigh := neutralSignal("AVGO")
	nearHigh.Near52WeekHigh = true
	nearHigh.DistanceFromHighPct = 1.5

	far := neutralSignal("TSM")
	far.Near52WeekLow = true
	far.DistanceFromLowPct = 4

	alerts := BuildAlerts([]models.TechnicalSignal{far, nearHigh}, th)

	require.Len(t, alerts, 2)
	assert.Equal(t, "AVGO", alerts[0].Ticker)
	assert.Equal(t, models.PriorityMedium, alerts[0].Priority)
	assert.Equal(t, models.AlertNear52WeekLow, alerts[1].Type)
	assert.Equal(t, models.PriorityLow, alerts[1].Priority)
}

func TestBuildOpportunities_DipBuy(t *testing.T) {
	sig := withRSI(neutralSignal("AMD"), 25)
	sig.NearSupport = true

	oversoldOnly := withRSI(neutralSignal("INTC"), 25)

	opps := BuildOpportunities([]models.TechnicalSignal{sig, oversoldOnly}, nil, th)

	require.Len(t, opps, 1)
	assert.Equal(t, models.OpportunityDipBuy, opps[0].Type)
	assert.Equal(t, []string{"AMD"}, opps[0].Tickers)
}

func TestBuildOpportunities_TakeProfitNeedsGain(t *testing.T) {
	hot := withRSI(neutralSignal("NVDA"), 78)
	warm := withRSI(neutralSignal("AVGO"), 78)

	holdings := []models.Holding{
		{Ticker: "NVDA", Price: 150, CostBasis: models.Float(100), Weight: 10},
		{Ticker: "AVGO", Price: 105, CostBasis: models.Float(100), Weight: 10},
	}

	opps := BuildOpportunities([]models.TechnicalSignal{hot, warm}, holdings, th)

	require.Len(t, opps, 1)
	assert.Equal(t, models.OpportunityTakeProfit, opps[0].Type)
	assert.Equal(t, []string{"NVDA"}, opps[0].Tickers)
}

func TestBuildOpportunities_RebalanceIgnoresSignals(t *testing.T) {
	holdings := []models.Holding{
		{Ticker: "NVDA", Weight: 30},
		{Ticker: "AMD", Weight: 20},
		{Ticker: "MSFT", Weight: 50},
	}

	opps := BuildOpportunities(nil, holdings, th)

	require.Len(t, opps, 1)
	assert.Equal(t, models.OpportunityRebalance, opps[0].Type)
	assert.Equal(t, []string{"NVDA", "MSFT"}, opps[0].Tickers)
	assert.Equal(t, models.PriorityHigh, opps[0].Priority)
}

func TestBuildOpportunities_RebalanceFromValues(t *testing.T) {
	holdings := []models.Holding{
		{Ticker: "NVDA", Value: 7000},
		{Ticker: "AMD", Value: 2000},
		{Ticker: "MSFT", Value: 1000},
	}

	opps := BuildOpportunities(nil, holdings, th)

	require.Len(t, opps, 1)
	assert.Equal(t, models.OpportunityRebalance, opps[0].Type)
	assert.Equal(t, []string{"NVDA"}, opps[0].Tickers)
	assert.Equal(t, models.PriorityHigh, opps[0].Priority)
}

func TestBuildOpportunities_MomentumEntryAndOrder(t *testing.T) {
	entry := neutralSignal("PLTR")
	entry.MACrossover = models.CrossoverGolden

	overbought := withRSI(neutralSignal("ARM"), 75)
	overbought.MACrossover = models.CrossoverGolden

	dip := withRSI(neutralSignal("AMD"), 22)
	dip.Near52WeekLow = true

	holdings := []models.Holding{{Ticker: "PLTR", Weight: 26}}

	opps := BuildOpportunities([]models.TechnicalSignal{entry, overbought, dip, entry}, holdings, th)

	require.Len(t, opps, 3)
	assert.Equal(t, models.OpportunityDipBuy, opps[0].Type)
	assert.Equal(t, models.OpportunityRebalance, opps[1].Type)
	assert.Equal(t, models.PriorityMedium, opps[1].Priority)
	assert.Equal(t, models.OpportunityMomentumEntry, opps[2].Type)
	assert.Equal(t, []string{"PLTR"}, opps[2].Tickers)
}

func TestScoreHealth_Range(t *testing.T) {
	holdings := []models.Holding{
		{Ticker: "A", Value: 100, Category: models.CategoryAICompute},
		{Ticker: "B", Value: 100, Category: models.CategorySemiconductors},
	}
	sigs := []models.TechnicalSignal{
		{Ticker: "A", Strength: models.StrengthStrongBullish, Oscillator: models.OscillatorOversold},
		{Ticker: "B", Strength: models.StrengthStrongBearish, Oscillator: models.OscillatorOverbought},
	}

	health := ScoreHealth(sigs, holdings)

	assert.GreaterOrEqual(t, health.Score, 0)
	assert.LessOrEqual(t, health.Score, 100)
	// evenness 50, coverage 33.3 -> 41.7; momentum 50; risk 0
	assert.InDelta(t, 41.7, health.Diversification, 0.05)
	assert.Equal(t, 50.0, health.Momentum)
	assert.Equal(t, 0.0, health.RiskBalance)
	assert.Equal(t, 31, health.Score)
	assert.Equal(t, models.HealthNeedsAttention, health.Bucket)
}

func TestScoreHealth_WellDiversifiedBullish(t *testing.T) {
	var holdings []models.Holding
	var sigs []models.TechnicalSignal
	for i, c := range models.AllCategories {
		for j := 0; j < 2; j++ {
			ticker := string(rune('A'+i)) + string(rune('a'+j))
			holdings = append(holdings, models.Holding{Ticker: ticker, Value: 1000, Category: c})
			sigs = append(sigs, models.TechnicalSignal{Ticker: ticker, Strength: models.StrengthBullish, Oscillator: models.OscillatorNeutral})
		}
	}

	health := ScoreHealth(sigs, holdings)

	// evenness 91.7, coverage 100 -> 95.8; momentum 75; risk 100
	assert.Equal(t, 90, health.Score)
	assert.Equal(t, models.HealthExcellent, health.Bucket)
}

func TestScoreHealth_ConcentratedUsesStoredWeights(t *testing.T) {
	holdings := []models.Holding{{Ticker: "A", Weight: 100, Category: models.CategoryRobotics}}

	health := ScoreHealth(nil, holdings)

	// evenness 0, coverage 16.7 -> 8.3; momentum 50; risk 50
	assert.InDelta(t, 8.3, health.Diversification, 0.05)
	assert.Equal(t, 36, health.Score)
}

func TestHealthBucket(t *testing.T) {
	assert.Equal(t, models.HealthExcellent, HealthBucket(75))
	assert.Equal(t, models.HealthGood, HealthBucket(74))
	assert.Equal(t, models.HealthGood, HealthBucket(55))
	assert.Equal(t, models.HealthFair, HealthBucket(54))
	assert.Equal(t, models.HealthFair, HealthBucket(35))
	assert.Equal(t, models.HealthNeedsAttention, HealthBucket(34))
	assert.Equal(t, models.HealthNeedsAttention, HealthBucket(0))
}
