// Package insights derives alerts, opportunities and a health score from
// technical signals and holdings.
package insights

import (
	"fmt"
	"math"
	"sort"

	"github.com/bobmcallan/alin/internal/models"
	"github.com/bobmcallan/alin/internal/signals"
)

// EmptyHealthScore is the neutral score reported with no holdings or signals
const EmptyHealthScore = 50

// ComputeInsights builds the alert list, opportunity groups and composite
// health for a portfolio. Signals and holdings are matched by ticker; a
// holding without a signal only takes part in rebalance and diversification.
func ComputeInsights(sigs []models.TechnicalSignal, holdings []models.Holding, th signals.Thresholds) models.Insights {
	return models.Insights{
		Alerts:        BuildAlerts(sigs, th),
		Opportunities: BuildOpportunities(sigs, holdings, th),
		Health:        ScoreHealth(sigs, holdings),
	}
}

// BuildAlerts emits at most one alert per ticker, keeping the most urgent
// trigger. Sorted by priority, then ticker.
func BuildAlerts(sigs []models.TechnicalSignal, th signals.Thresholds) []models.Alert {
	alerts := make([]models.Alert, 0, len(sigs))
	seen := make(map[string]bool, len(sigs))

	for _, sig := range sigs {
		if seen[sig.Ticker] {
			continue
		}
		candidates := alertCandidates(sig, th)
		if len(candidates) == 0 {
			continue
		}
		seen[sig.Ticker] = true

		best := candidates[0]
		for _, c := range candidates[1:] {
			if c.Priority.Rank() < best.Priority.Rank() {
				best = c
			}
		}
		alerts = append(alerts, best)
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		if alerts[i].Priority.Rank() != alerts[j].Priority.Rank() {
			return alerts[i].Priority.Rank() < alerts[j].Priority.Rank()
		}
		return alerts[i].Ticker < alerts[j].Ticker
	})

	return alerts
}

// alertCandidates lists matching triggers in tie-break order: oscillator,
// momentum, 52-week, support/resistance.
func alertCandidates(sig models.TechnicalSignal, th signals.Thresholds) []models.Alert {
	var out []models.Alert

	switch {
	case sig.RSI <= th.Oversold:
		out = append(out, models.Alert{
			Ticker:   sig.Ticker,
			Type:     models.AlertOversold,
			Priority: oscillatorPriority(sig.RSI, th),
			Message:  fmt.Sprintf("%s RSI at %.1f is in oversold territory", sig.Ticker, sig.RSI),
			Action:   models.ActionConsiderBuying,
		})
	case sig.RSI >= th.Overbought:
		out = append(out, models.Alert{
			Ticker:   sig.Ticker,
			Type:     models.AlertOverbought,
			Priority: oscillatorPriority(sig.RSI, th),
			Message:  fmt.Sprintf("%s RSI at %.1f is in overbought territory", sig.Ticker, sig.RSI),
			Action:   models.ActionConsiderTrimming,
		})
	}

	if m := math.Abs(sig.MomentumPct); m >= th.StrongMomentumPct {
		priority := models.PriorityMedium
		if m >= th.ExtremeMomentumPct {
			priority = models.PriorityHigh
		}
		direction := "up"
		if sig.MomentumPct < 0 {
			direction = "down"
		}
		out = append(out, models.Alert{
			Ticker:   sig.Ticker,
			Type:     models.AlertStrongMomentum,
			Priority: priority,
			Message:  fmt.Sprintf("%s is %s %.1f%% over %d sessions", sig.Ticker, direction, m, th.MomentumPeriod),
			Action:   models.ActionWatch,
		})
	}

	switch {
	case sig.Near52WeekLow && !sig.Near52WeekHigh:
		out = append(out, models.Alert{
			Ticker:   sig.Ticker,
			Type:     models.AlertNear52WeekLow,
			Priority: proximityPriority(sig.DistanceFromLowPct, th),
			Message:  fmt.Sprintf("%s is %.1f%% above its 52-week low", sig.Ticker, sig.DistanceFromLowPct),
			Action:   models.ActionConsiderBuying,
		})
	case sig.Near52WeekHigh && !sig.Near52WeekLow:
		out = append(out, models.Alert{
			Ticker:   sig.Ticker,
			Type:     models.AlertNear52WeekHigh,
			Priority: proximityPriority(sig.DistanceFromHighPct, th),
			Message:  fmt.Sprintf("%s is %.1f%% below its 52-week high", sig.Ticker, sig.DistanceFromHighPct),
			Action:   models.ActionWatch,
		})
	}

	switch {
	case sig.NearSupport && !sig.NearResistance:
		out = append(out, models.Alert{
			Ticker:   sig.Ticker,
			Type:     models.AlertNearSupport,
			Priority: models.PriorityLow,
			Message:  fmt.Sprintf("%s is testing support near %.2f", sig.Ticker, sig.Support),
			Action:   models.ActionWatch,
		})
	case sig.NearResistance && !sig.NearSupport:
		out = append(out, models.Alert{
			Ticker:   sig.Ticker,
			Type:     models.AlertNearResistance,
			Priority: models.PriorityLow,
			Message:  fmt.Sprintf("%s is testing resistance near %.2f", sig.Ticker, sig.Resistance),
			Action:   models.ActionWatch,
		})
	}

	return out
}

func oscillatorPriority(rsi float64, th signals.Thresholds) models.Priority {
	switch {
	case rsi <= th.ExtremeOversold || rsi >= th.ExtremeOverbought:
		return models.PriorityHigh
	case rsi <= th.Oversold || rsi >= th.Overbought:
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}

func proximityPriority(distancePct float64, th signals.Thresholds) models.Priority {
	if distancePct <= th.FiftyTwoWeekUrgentPct {
		return models.PriorityMedium
	}
	return models.PriorityLow
}

// BuildOpportunities groups tickers into actionable opportunity types.
// Groups are emitted in a fixed order and only when non-empty.
func BuildOpportunities(sigs []models.TechnicalSignal, holdings []models.Holding, th signals.Thresholds) []models.Opportunity {
	byTicker := make(map[string]models.Holding, len(holdings))
	for _, h := range holdings {
		byTicker[h.Ticker] = h
	}

	var dips, profits, entries []string
	for _, sig := range sigs {
		if sig.Oversold() && (sig.NearSupport || sig.Near52WeekLow) {
			dips = appendUnique(dips, sig.Ticker)
		}
		if sig.Overbought() {
			if h, ok := byTicker[sig.Ticker]; ok {
				if gain, ok := h.UnrealizedGainPct(); ok && gain >= th.TakeProfitGainPct {
					profits = appendUnique(profits, sig.Ticker)
				}
			}
		}
		if sig.MACrossover == models.CrossoverGolden && !sig.Overbought() {
			entries = appendUnique(entries, sig.Ticker)
		}
	}

	var heavy []string
	urgent := false
	for i, w := range weightsPct(holdings) {
		if w > th.RebalanceWeightPct {
			heavy = appendUnique(heavy, holdings[i].Ticker)
			if w > th.RebalanceUrgentPct {
				urgent = true
			}
		}
	}

	out := make([]models.Opportunity, 0, 4)
	if len(dips) > 0 {
		out = append(out, models.Opportunity{
			Type:        models.OpportunityDipBuy,
			Tickers:     dips,
			Priority:    models.PriorityHigh,
			Description: "Oversold near support; potential entry on weakness",
		})
	}
	if len(profits) > 0 {
		out = append(out, models.Opportunity{
			Type:        models.OpportunityTakeProfit,
			Tickers:     profits,
			Priority:    models.PriorityMedium,
			Description: fmt.Sprintf("Overbought with unrealized gains above %.0f%%", th.TakeProfitGainPct),
		})
	}
	if len(heavy) > 0 {
		priority := models.PriorityMedium
		if urgent {
			priority = models.PriorityHigh
		}
		out = append(out, models.Opportunity{
			Type:        models.OpportunityRebalance,
			Tickers:     heavy,
			Priority:    priority,
			Description: fmt.Sprintf("Positions above %.0f%% of portfolio value", th.RebalanceWeightPct),
		})
	}
	if len(entries) > 0 {
		out = append(out, models.Opportunity{
			Type:        models.OpportunityMomentumEntry,
			Tickers:     entries,
			Priority:    models.PriorityLow,
			Description: "Fresh bullish moving average crossover without overbought conditions",
		})
	}

	return out
}

func appendUnique(list []string, ticker string) []string {
	for _, t := range list {
		if t == ticker {
			return list
		}
	}
	return append(list, ticker)
}

// ScoreHealth computes the composite health score. Diversification,
// momentum and risk balance are weighted equally.
func ScoreHealth(sigs []models.TechnicalSignal, holdings []models.Holding) models.PortfolioHealth {
	if len(holdings) == 0 && len(sigs) == 0 {
		return models.PortfolioHealth{
			Score:           EmptyHealthScore,
			Bucket:          HealthBucket(EmptyHealthScore),
			Diversification: EmptyHealthScore,
			Momentum:        EmptyHealthScore,
			RiskBalance:     EmptyHealthScore,
		}
	}

	diversification := diversificationScore(holdings)
	momentum := momentumScore(sigs)
	risk := riskBalanceScore(sigs)

	score := int(math.Round((diversification + momentum + risk) / 3))
	score = clamp(score, 0, 100)

	return models.PortfolioHealth{
		Score:           score,
		Bucket:          HealthBucket(score),
		Diversification: roundTo(diversification, 1),
		Momentum:        roundTo(momentum, 1),
		RiskBalance:     roundTo(risk, 1),
	}
}

// HealthBucket maps a score onto its label
func HealthBucket(score int) string {
	switch {
	case score >= 75:
		return models.HealthExcellent
	case score >= 55:
		return models.HealthGood
	case score >= 35:
		return models.HealthFair
	default:
		return models.HealthNeedsAttention
	}
}

// weightsPct returns each holding's share of the portfolio in percent.
// Weights come from holding values, falling back to the stored Weight when
// no values are set.
func weightsPct(holdings []models.Holding) []float64 {
	total := 0.0
	for _, h := range holdings {
		total += h.Value
	}
	out := make([]float64, len(holdings))
	for i, h := range holdings {
		if total > 0 {
			out[i] = h.Value / total * 100
		} else {
			out[i] = h.Weight
		}
	}
	return out
}

// diversificationScore blends weight evenness (1 - HHI) with category
// coverage.
func diversificationScore(holdings []models.Holding) float64 {
	if len(holdings) == 0 {
		return EmptyHealthScore
	}

	hhi := 0.0
	categories := make(map[models.Category]bool)
	for i, pct := range weightsPct(holdings) {
		w := pct / 100
		hhi += w * w
		if c := holdings[i].Category; c != "" {
			categories[c] = true
		}
	}

	evenness := (1 - math.Min(hhi, 1)) * 100
	coverage := float64(len(categories)) / float64(len(models.AllCategories)) * 100
	return clampFloat(0.5*evenness+0.5*math.Min(coverage, 100), 0, 100)
}

func momentumScore(sigs []models.TechnicalSignal) float64 {
	if len(sigs) == 0 {
		return EmptyHealthScore
	}
	sum := 0.0
	for _, s := range sigs {
		sum += s.Strength.Score()
	}
	return sum / float64(len(sigs))
}

// riskBalanceScore drops as more tickers sit at oscillator extremes
func riskBalanceScore(sigs []models.TechnicalSignal) float64 {
	if len(sigs) == 0 {
		return EmptyHealthScore
	}
	extremes := 0
	for _, s := range sigs {
		if s.Oversold() || s.Overbought() {
			extremes++
		}
	}
	return 100 * (1 - float64(extremes)/float64(len(sigs)))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
