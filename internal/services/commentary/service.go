// Package commentary generates AI narrative for a portfolio from its
// priced holdings and insights.
package commentary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bobmcallan/alin/internal/common"
	"github.com/bobmcallan/alin/internal/interfaces"
	"github.com/bobmcallan/alin/internal/models"
)

// ErrNoProvider is returned when no LLM client is configured
var ErrNoProvider = errors.New("no commentary provider configured")

const systemPrompt = `You are a concise equity analyst writing for a retail investor who follows a thematic AI infrastructure fund.
Write three short paragraphs: overall positioning, the most important alerts, and what to watch next.
Use plain language. Do not give personalised financial advice. Do not use markdown headings.`

// Service implements CommentaryService
type Service struct {
	portfolios interfaces.PortfolioService
	insights   interfaces.InsightService
	llm        interfaces.LLMClient
	store      interfaces.KVStore
	ttl        time.Duration
	maxTokens  int
	logger     *common.Logger
	now        func() time.Time
}

// NewService creates a commentary service. llm may be nil, in which case
// Generate returns ErrNoProvider.
func NewService(
	portfolios interfaces.PortfolioService,
	insights interfaces.InsightService,
	llm interfaces.LLMClient,
	store interfaces.KVStore,
	ttl time.Duration,
	maxTokens int,
	logger *common.Logger,
) *Service {
	return &Service{
		portfolios: portfolios,
		insights:   insights,
		llm:        llm,
		store:      store,
		ttl:        ttl,
		maxTokens:  maxTokens,
		logger:     logger,
		now:        time.Now,
	}
}

func cacheKey(portfolioID string) string {
	return "commentary:" + portfolioID
}

// Generate returns stored commentary while it is fresh, otherwise prompts
// the LLM and stores the result. refresh skips the stored copy.
func (s *Service) Generate(ctx context.Context, portfolioID string, refresh bool) (*models.Commentary, error) {
	if s.llm == nil {
		return nil, ErrNoProvider
	}

	if !refresh {
		if cached := s.cached(ctx, portfolioID); cached != nil {
			return cached, nil
		}
	}

	priced, err := s.portfolios.PricePortfolio(ctx, portfolioID)
	if err != nil {
		return nil, err
	}
	insights, err := s.insights.InsightsForPriced(ctx, priced)
	if err != nil {
		return nil, err
	}

	text, err := s.llm.Complete(ctx, systemPrompt, BuildPrompt(priced, insights), s.maxTokens)
	if err != nil {
		return nil, fmt.Errorf("failed to generate commentary for %s: %w", portfolioID, err)
	}

	c := &models.Commentary{
		PortfolioID: portfolioID,
		Provider:    s.llm.Provider(),
		Text:        strings.TrimSpace(text),
		GeneratedAt: s.now().UTC(),
	}

	if data, err := json.Marshal(c); err == nil {
		if err := s.store.Set(ctx, cacheKey(portfolioID), string(data), s.ttl); err != nil {
			s.logger.Warn().Str("portfolio", portfolioID).Err(err).Msg("Failed to store commentary")
		}
	}

	s.logger.Info().
		Str("portfolio", portfolioID).
		Str("provider", c.Provider).
		Int("chars", len(c.Text)).
		Msg("Commentary generated")

	return c, nil
}

func (s *Service) cached(ctx context.Context, portfolioID string) *models.Commentary {
	raw, err := s.store.Get(ctx, cacheKey(portfolioID))
	if err != nil {
		if !errors.Is(err, interfaces.ErrNotFound) {
			s.logger.Warn().Str("portfolio", portfolioID).Err(err).Msg("Failed to read stored commentary")
		}
		return nil
	}

	var c models.Commentary
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		s.logger.Warn().Str("portfolio", portfolioID).Err(err).Msg("Discarding unreadable commentary")
		return nil
	}
	c.Cached = true
	return &c
}

// BuildPrompt renders holdings, alerts, opportunities and health as the
// user prompt.
func BuildPrompt(priced *models.PricedPortfolio, insights *models.Insights) string {
	var sb strings.Builder

	name := priced.Name
	if name == "" {
		name = priced.ID
	}
	sb.WriteString(fmt.Sprintf("Portfolio: %s (%s)\n", name, priced.Kind))
	sb.WriteString(fmt.Sprintf("Total value: $%.2f, day change %.2f%%, %d holdings\n\n",
		priced.Summary.TotalValue, priced.Summary.DayChangePct, priced.Summary.HoldingsCount))

	sb.WriteString("Holdings (ticker, category, weight, day change):\n")
	for _, h := range priced.Holdings {
		line := fmt.Sprintf("- %s, %s, %.1f%%, %+.2f%%", h.Ticker, h.Category, h.Weight, h.DayChangePct)
		if gain, ok := h.UnrealizedGainPct(); ok {
			line += fmt.Sprintf(", unrealized %+.1f%%", gain)
		}
		sb.WriteString(line + "\n")
	}

	sb.WriteString("\nCategory allocation:\n")
	for _, c := range priced.Categories {
		sb.WriteString(fmt.Sprintf("- %s: %.1f%%\n", c.Category, c.Weight))
	}

	sb.WriteString(fmt.Sprintf("\nHealth: %d (%s); diversification %.1f, momentum %.1f, risk balance %.1f\n",
		insights.Health.Score, insights.Health.Bucket,
		insights.Health.Diversification, insights.Health.Momentum, insights.Health.RiskBalance))

	if len(insights.Alerts) > 0 {
		sb.WriteString("\nAlerts:\n")
		for _, a := range insights.Alerts {
			sb.WriteString(fmt.Sprintf("- [%s] %s\n", a.Priority, a.Message))
		}
	} else {
		sb.WriteString("\nAlerts: none\n")
	}

	if len(insights.Opportunities) > 0 {
		sb.WriteString("\nOpportunities:\n")
		for _, o := range insights.Opportunities {
			sb.WriteString(fmt.Sprintf("- %s (%s): %s\n", o.Type, strings.Join(o.Tickers, ", "), o.Description))
		}
	}

	return sb.String()
}

// Ensure Service implements CommentaryService
var _ interfaces.CommentaryService = (*Service)(nil)
