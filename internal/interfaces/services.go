package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/alin/internal/models"
)

// ValuationService builds the synthetic ETF price history
type ValuationService interface {
	// CalculateHistoricalETFPrices returns the index series over [start, end]
	CalculateHistoricalETFPrices(ctx context.Context, start, end time.Time) ([]models.PricePoint, error)

	// CompareBenchmarks returns percent-return series per benchmark and the tickers that failed
	CompareBenchmarks(ctx context.Context, tickers []string, start, end time.Time) (map[string][]models.PricePoint, []string, error)

	// Allocation returns the inception allocation
	Allocation() models.InceptionAllocation
}

// SignalService generates technical signals from fetched history
type SignalService interface {
	GenerateSignals(ctx context.Context, tickers []string) (*models.SignalsResult, error)
}

// PortfolioService manages and prices portfolios
type PortfolioService interface {
	GetPortfolio(ctx context.Context, id string) (*models.Portfolio, error)
	SavePortfolio(ctx context.Context, p *models.Portfolio) error
	AddHolding(ctx context.Context, id string, holding models.Holding) (*models.Portfolio, error)
	UpdateShares(ctx context.Context, id, ticker string, shares float64) (*models.Portfolio, error)
	RemoveHolding(ctx context.Context, id, ticker string) (*models.Portfolio, error)
	PricePortfolio(ctx context.Context, id string) (*models.PricedPortfolio, error)
	AggregateForUser(ctx context.Context, id string) (*models.AggregatedPortfolio, error)
}

// InsightService derives alerts, opportunities and health for a portfolio
type InsightService interface {
	PortfolioInsights(ctx context.Context, portfolioID string) (*models.Insights, error)
	InsightsForPriced(ctx context.Context, priced *models.PricedPortfolio) (*models.Insights, error)
}

// MetricService tracks daily fundamental metrics and their percentiles
type MetricService interface {
	RecordDailySnapshot(ctx context.Context, ticker string, values map[string]float64) bool
	ComputeMetricHistory(ctx context.Context, ticker, metric string, current *float64) models.MetricHistory
	TickerMetricHistories(ctx context.Context, ticker string) ([]models.MetricHistory, error)
}

// CommentaryService produces AI commentary for a portfolio
type CommentaryService interface {
	Generate(ctx context.Context, portfolioID string, refresh bool) (*models.Commentary, error)
}
