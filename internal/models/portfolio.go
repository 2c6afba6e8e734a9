package models

import (
	"sort"
	"time"
)

// Category is a thematic grouping for holdings
type Category string

// Thematic categories
const (
	CategoryAICompute            Category = "ai_compute"
	CategorySemiconductors       Category = "semiconductors"
	CategoryCloudSoftware        Category = "cloud_software"
	CategoryEnergyInfrastructure Category = "energy_infrastructure"
	CategoryRobotics             Category = "robotics"
	CategoryDataNetworking       Category = "data_networking"
)

// AllCategories lists every category in display order
var AllCategories = []Category{
	CategoryAICompute,
	CategorySemiconductors,
	CategoryCloudSoftware,
	CategoryEnergyInfrastructure,
	CategoryRobotics,
	CategoryDataNetworking,
}

// Valid reports whether c is one of the fixed categories
func (c Category) Valid() bool {
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Portfolio kinds
const (
	PortfolioKindPublic   = "public"
	PortfolioKindPersonal = "personal"
)

// PublicPortfolioID identifies the $ALIN portfolio
const PublicPortfolioID = "alin"

// Holding is a position in a portfolio. Price, Value, DayChange,
// DayChangePct and Weight are derived on pricing and never persisted as
// inputs.
type Holding struct {
	Ticker       string   `json:"ticker"`
	Name         string   `json:"name,omitempty"`
	Category     Category `json:"category"`
	Shares       float64  `json:"shares"`
	CostBasis    *float64 `json:"cost_basis,omitempty"` // average cost per share
	Price        float64  `json:"price"`
	Value        float64  `json:"value"`
	DayChange    float64  `json:"day_change"`
	DayChangePct float64  `json:"day_change_pct"`
	Weight       float64  `json:"weight"` // percent of portfolio value, 0-100
}

// UnrealizedGainPct returns the gain against cost basis in percent and
// false when no cost basis is known.
func (h Holding) UnrealizedGainPct() (float64, bool) {
	if h.CostBasis == nil || *h.CostBasis <= 0 || h.Price <= 0 {
		return 0, false
	}
	return (h.Price - *h.CostBasis) / *h.CostBasis * 100, true
}

// Portfolio is a named set of holdings keyed by ticker
type Portfolio struct {
	ID        string              `json:"id"`
	Kind      string              `json:"kind"`
	Name      string              `json:"name,omitempty"`
	Holdings  map[string]*Holding `json:"holdings"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// HoldingList returns holdings sorted by ticker
func (p *Portfolio) HoldingList() []Holding {
	list := make([]Holding, 0, len(p.Holdings))
	for _, h := range p.Holdings {
		list = append(list, *h)
	}
	sortHoldingsByTicker(list)
	return list
}

// Tickers returns portfolio tickers sorted ascending
func (p *Portfolio) Tickers() []string {
	list := p.HoldingList()
	tickers := make([]string, len(list))
	for i, h := range list {
		tickers[i] = h.Ticker
	}
	return tickers
}

// AllocationEntry records a ticker's weight and price on the inception date
type AllocationEntry struct {
	Ticker         string   `json:"ticker" yaml:"ticker"`
	Name           string   `json:"name,omitempty" yaml:"name"`
	Category       Category `json:"category" yaml:"category"`
	Weight         float64  `json:"weight" yaml:"weight"` // fraction, sums to ~1.0
	InceptionPrice float64  `json:"inception_price" yaml:"inception_price"`
}

// InceptionAllocation is the immutable fund composition at launch
type InceptionAllocation struct {
	InceptionDate       time.Time         `json:"inception_date" yaml:"inception_date"`
	IndexInceptionPrice float64           `json:"index_inception_price" yaml:"index_inception_price"`
	Entries             []AllocationEntry `json:"entries" yaml:"entries"`
}

// Tickers returns the allocation tickers in declared order
func (a InceptionAllocation) Tickers() []string {
	tickers := make([]string, len(a.Entries))
	for i, e := range a.Entries {
		tickers[i] = e.Ticker
	}
	return tickers
}

// PortfolioSummary holds portfolio-level totals
type PortfolioSummary struct {
	TotalValue    float64   `json:"total_value"`
	DayChange     float64   `json:"day_change"`
	DayChangePct  float64   `json:"day_change_pct"`
	HoldingsCount int       `json:"holdings_count"`
	PricedAt      time.Time `json:"priced_at,omitempty"`
}

// CategoryAllocation is the share of portfolio value in one category
type CategoryAllocation struct {
	Category      Category `json:"category"`
	Value         float64  `json:"value"`
	Weight        float64  `json:"weight"` // percent
	HoldingsCount int      `json:"holdings_count"`
}

// PricedPortfolio is a portfolio with derived values filled in
type PricedPortfolio struct {
	ID         string               `json:"id"`
	Kind       string               `json:"kind"`
	Name       string               `json:"name,omitempty"`
	Holdings   []Holding            `json:"holdings"`
	Summary    PortfolioSummary     `json:"summary"`
	Categories []CategoryAllocation `json:"categories"`
}

// PortfolioInput is one portfolio fed to the aggregation merge
type PortfolioInput struct {
	Source   string           `json:"source"`
	Holdings []Holding        `json:"holdings"`
	Summary  PortfolioSummary `json:"summary"`
}

// AggregatedPortfolio is the merged view across several portfolios
type AggregatedPortfolio struct {
	Holdings   []Holding            `json:"holdings"`
	Summary    PortfolioSummary     `json:"summary"`
	Categories []CategoryAllocation `json:"categories"`
	Sources    []string             `json:"sources"`
}

func sortHoldingsByTicker(list []Holding) {
	sort.Slice(list, func(i, j int) bool { return list[i].Ticker < list[j].Ticker })
}
