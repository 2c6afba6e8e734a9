package insights

import (
	"context"
	"fmt"

	"github.com/bobmcallan/alin/internal/common"
	"github.com/bobmcallan/alin/internal/interfaces"
	"github.com/bobmcallan/alin/internal/models"
	"github.com/bobmcallan/alin/internal/signals"
)

// Service implements InsightService
type Service struct {
	portfolios interfaces.PortfolioService
	signals    interfaces.SignalService
	thresholds signals.Thresholds
	logger     *common.Logger
}

// NewService creates a new insight service
func NewService(
	portfolios interfaces.PortfolioService,
	signalService interfaces.SignalService,
	thresholds signals.Thresholds,
	logger *common.Logger,
) *Service {
	return &Service{
		portfolios: portfolios,
		signals:    signalService,
		thresholds: thresholds,
		logger:     logger,
	}
}

// PortfolioInsights prices the portfolio, computes signals for its holdings
// and aggregates them. Pricing errors propagate; tickers without a signal
// are logged and left out of the signal-driven parts.
func (s *Service) PortfolioInsights(ctx context.Context, portfolioID string) (*models.Insights, error) {
	priced, err := s.portfolios.PricePortfolio(ctx, portfolioID)
	if err != nil {
		return nil, err
	}
	return s.InsightsForPriced(ctx, priced)
}

// InsightsForPriced computes insights for a portfolio the caller has
// already priced, so quotes are not fetched again.
func (s *Service) InsightsForPriced(ctx context.Context, priced *models.PricedPortfolio) (*models.Insights, error) {
	portfolioID := priced.ID

	tickers := make([]string, len(priced.Holdings))
	for i, h := range priced.Holdings {
		tickers[i] = h.Ticker
	}

	result, err := s.signals.GenerateSignals(ctx, tickers)
	if err != nil {
		return nil, fmt.Errorf("failed to generate signals for %s: %w", portfolioID, err)
	}
	for ticker, reason := range result.Errors {
		s.logger.Info().Str("portfolio", portfolioID).Str("ticker", ticker).Str("reason", reason).Msg("Ticker excluded from insights")
	}

	insights := ComputeInsights(result.Signals, priced.Holdings, s.thresholds)

	s.logger.Debug().
		Str("portfolio", portfolioID).
		Int("alerts", len(insights.Alerts)).
		Int("opportunities", len(insights.Opportunities)).
		Int("health", insights.Health.Score).
		Msg("Portfolio insights computed")

	return &insights, nil
}

// Ensure Service implements InsightService
var _ interfaces.InsightService = (*Service)(nil)
