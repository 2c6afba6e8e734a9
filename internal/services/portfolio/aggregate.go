package portfolio

import (
	"sort"

	"github.com/bobmcallan/alin/internal/models"
)

// AggregatePortfolios merges several portfolios into one view. Holdings that
// share a ticker are combined by summing shares, value and day change, and
// share-weighting cost basis where known. Weights, day-change percentages
// and category allocations are recomputed from the merged values.
func AggregatePortfolios(inputs []models.PortfolioInput) models.AggregatedPortfolio {
	result := models.AggregatedPortfolio{
		Holdings:   []models.Holding{},
		Categories: []models.CategoryAllocation{},
		Sources:    []string{},
	}
	if len(inputs) == 0 {
		return result
	}

	type costAccumulator struct {
		cost   float64
		shares float64
	}

	merged := make(map[string]*models.Holding)
	costs := make(map[string]*costAccumulator)
	var order []string

	for _, input := range inputs {
		if input.Source != "" {
			result.Sources = append(result.Sources, input.Source)
		}
		for _, h := range input.Holdings {
			m, ok := merged[h.Ticker]
			if !ok {
				copied := h
				copied.CostBasis = nil
				m = &copied
				m.Shares, m.Value, m.DayChange = 0, 0, 0
				merged[h.Ticker] = m
				costs[h.Ticker] = &costAccumulator{}
				order = append(order, h.Ticker)
			}

			m.Shares += h.Shares
			m.Value += h.Value
			m.DayChange += h.DayChange
			if m.Name == "" {
				m.Name = h.Name
			}
			if m.Category == "" {
				m.Category = h.Category
			}
			if h.CostBasis != nil && h.Shares > 0 {
				costs[h.Ticker].cost += *h.CostBasis * h.Shares
				costs[h.Ticker].shares += h.Shares
			}
		}
	}

	var total, totalDayChange, totalPrevious float64
	for _, ticker := range order {
		m := merged[ticker]
		total += m.Value
		totalDayChange += m.DayChange
		totalPrevious += m.Value - m.DayChange
	}

	holdings := make([]models.Holding, 0, len(order))
	for _, ticker := range order {
		m := merged[ticker]

		if m.Shares > 0 {
			m.Price = m.Value / m.Shares
		}
		m.DayChangePct = changePct(m.DayChange, m.Value-m.DayChange)
		m.Weight = 0
		if total > 0 {
			m.Weight = m.Value / total * 100
		}
		if acc := costs[ticker]; acc.shares > 0 {
			avg := acc.cost / acc.shares
			m.CostBasis = &avg
		}

		holdings = append(holdings, *m)
	}

	SortByValue(holdings)

	result.Holdings = holdings
	result.Categories = BuildCategories(holdings, total)
	result.Summary = models.PortfolioSummary{
		TotalValue:    total,
		DayChange:     totalDayChange,
		DayChangePct:  changePct(totalDayChange, totalPrevious),
		HoldingsCount: len(holdings),
	}

	return result
}

// SortByValue orders holdings by value descending, ticker ascending on ties
func SortByValue(holdings []models.Holding) {
	sort.SliceStable(holdings, func(i, j int) bool {
		if holdings[i].Value != holdings[j].Value {
			return holdings[i].Value > holdings[j].Value
		}
		return holdings[i].Ticker < holdings[j].Ticker
	})
}

// BuildCategories sums holding value per category, in the fixed category
// order. Holdings without a category are grouped last under "".
func BuildCategories(holdings []models.Holding, total float64) []models.CategoryAllocation {
	byCategory := make(map[models.Category]*models.CategoryAllocation)
	for _, h := range holdings {
		c, ok := byCategory[h.Category]
		if !ok {
			c = &models.CategoryAllocation{Category: h.Category}
			byCategory[h.Category] = c
		}
		c.Value += h.Value
		c.HoldingsCount++
	}

	out := make([]models.CategoryAllocation, 0, len(byCategory))
	emit := func(cat models.Category) {
		c, ok := byCategory[cat]
		if !ok {
			return
		}
		if total > 0 {
			c.Weight = c.Value / total * 100
		}
		out = append(out, *c)
		delete(byCategory, cat)
	}

	for _, cat := range models.AllCategories {
		emit(cat)
	}

	// Unknown categories in name order for stable output
	rest := make([]string, 0, len(byCategory))
	for cat := range byCategory {
		rest = append(rest, string(cat))
	}
	sort.Strings(rest)
	for _, cat := range rest {
		emit(models.Category(cat))
	}

	return out
}

// changePct returns change as a percent of previous, 0 when previous is not positive
func changePct(change, previous float64) float64 {
	if previous <= 0 {
		return 0
	}
	return change / previous * 100
}
