package models

// Priority ranks alerts and opportunities
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank orders priorities, lower is more urgent
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// Alert types
const (
	AlertOversold       = "oversold"
	AlertOverbought     = "overbought"
	AlertNearSupport    = "near_support"
	AlertNearResistance = "near_resistance"
	AlertNear52WeekHigh = "near_52_week_high"
	AlertNear52WeekLow  = "near_52_week_low"
	AlertStrongMomentum = "strong_momentum"
)

// Alert action hints
const (
	ActionConsiderBuying   = "consider_buying"
	ActionConsiderTrimming = "consider_trimming"
	ActionWatch            = "watch"
)

// Alert flags a ticker whose signal crossed a trigger
type Alert struct {
	Ticker   string   `json:"ticker"`
	Type     string   `json:"type"`
	Priority Priority `json:"priority"`
	Message  string   `json:"message"`
	Action   string   `json:"action"`
}

// Opportunity types
const (
	OpportunityDipBuy        = "dip_buy"
	OpportunityTakeProfit    = "take_profit"
	OpportunityRebalance     = "rebalance"
	OpportunityMomentumEntry = "momentum_entry"
)

// Opportunity groups tickers that share an actionable condition
type Opportunity struct {
	Type        string   `json:"type"`
	Tickers     []string `json:"tickers"`
	Priority    Priority `json:"priority"`
	Description string   `json:"description"`
}

// Health buckets
const (
	HealthExcellent      = "excellent"
	HealthGood           = "good"
	HealthFair           = "fair"
	HealthNeedsAttention = "needs_attention"
)

// PortfolioHealth is the composite health score and its parts
type PortfolioHealth struct {
	Score           int     `json:"score"`
	Bucket          string  `json:"bucket"`
	Diversification float64 `json:"diversification"`
	Momentum        float64 `json:"momentum"`
	RiskBalance     float64 `json:"risk_balance"`
}

// Insights is the aggregator output
type Insights struct {
	Alerts        []Alert         `json:"alerts"`
	Opportunities []Opportunity   `json:"opportunities"`
	Health        PortfolioHealth `json:"health"`
}
