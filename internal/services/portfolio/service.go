// Package portfolio stores, prices and merges portfolios.
package portfolio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bobmcallan/alin/internal/common"
	"github.com/bobmcallan/alin/internal/interfaces"
	"github.com/bobmcallan/alin/internal/models"
)

// maxConcurrentQuotes bounds in-flight quote requests while pricing
const maxConcurrentQuotes = 5

// ErrPortfolioNotFound is returned when no portfolio is stored under an ID
var ErrPortfolioNotFound = errors.New("portfolio not found")

// ErrHoldingNotFound is returned when a ticker is not held
var ErrHoldingNotFound = errors.New("holding not found")

// ErrInvalidHolding is returned for holdings that fail validation
var ErrInvalidHolding = errors.New("invalid holding")

// ErrQuoteFailed is returned when a holding cannot be priced
var ErrQuoteFailed = errors.New("failed to fetch quote")

// Service implements PortfolioService
type Service struct {
	store  interfaces.KVStore
	market interfaces.MarketDataClient
	logger *common.Logger
	now    func() time.Time
}

// NewService creates a new portfolio service
func NewService(
	store interfaces.KVStore,
	market interfaces.MarketDataClient,
	logger *common.Logger,
) *Service {
	return &Service{
		store:  store,
		market: market,
		logger: logger,
		now:    time.Now,
	}
}

func portfolioKey(id string) string {
	return "portfolio:" + id
}

// NormalizeTicker upper-cases and trims a ticker symbol
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// GetPortfolio loads a portfolio by ID
func (s *Service) GetPortfolio(ctx context.Context, id string) (*models.Portfolio, error) {
	raw, err := s.store.Get(ctx, portfolioKey(id))
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrPortfolioNotFound, id)
		}
		return nil, fmt.Errorf("failed to load portfolio %s: %w", id, err)
	}

	var p models.Portfolio
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("failed to decode portfolio %s: %w", id, err)
	}
	if p.Holdings == nil {
		p.Holdings = make(map[string]*models.Holding)
	}
	return &p, nil
}

// SavePortfolio persists a portfolio. Derived holding fields are cleared so
// only inputs are stored.
func (s *Service) SavePortfolio(ctx context.Context, p *models.Portfolio) error {
	if p == nil || p.ID == "" {
		return errors.New("portfolio ID is required")
	}

	stored := *p
	stored.Holdings = make(map[string]*models.Holding, len(p.Holdings))
	for ticker, h := range p.Holdings {
		stored.Holdings[ticker] = &models.Holding{
			Ticker:    h.Ticker,
			Name:      h.Name,
			Category:  h.Category,
			Shares:    h.Shares,
			CostBasis: h.CostBasis,
		}
	}
	stored.UpdatedAt = s.now().UTC()

	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to encode portfolio %s: %w", p.ID, err)
	}
	if err := s.store.Set(ctx, portfolioKey(p.ID), string(data), 0); err != nil {
		return fmt.Errorf("failed to save portfolio %s: %w", p.ID, err)
	}

	s.logger.Debug().Str("portfolio", p.ID).Int("holdings", len(stored.Holdings)).Msg("Portfolio saved")
	return nil
}

// loadOrCreate returns the stored portfolio, or a new personal one
func (s *Service) loadOrCreate(ctx context.Context, id string) (*models.Portfolio, error) {
	p, err := s.GetPortfolio(ctx, id)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrPortfolioNotFound) {
		return nil, err
	}
	kind := models.PortfolioKindPersonal
	if id == models.PublicPortfolioID {
		kind = models.PortfolioKindPublic
	}
	return &models.Portfolio{
		ID:       id,
		Kind:     kind,
		Holdings: make(map[string]*models.Holding),
	}, nil
}

// AddHolding adds a position. Adding a ticker that is already held adds the
// shares and share-weights the cost basis.
func (s *Service) AddHolding(ctx context.Context, id string, holding models.Holding) (*models.Portfolio, error) {
	holding.Ticker = NormalizeTicker(holding.Ticker)
	if err := validateHolding(holding); err != nil {
		return nil, err
	}

	p, err := s.loadOrCreate(ctx, id)
	if err != nil {
		return nil, err
	}

	if existing, ok := p.Holdings[holding.Ticker]; ok {
		existing.CostBasis = mergeCostBasis(existing.CostBasis, existing.Shares, holding.CostBasis, holding.Shares)
		existing.Shares += holding.Shares
		if holding.Name != "" {
			existing.Name = holding.Name
		}
		if holding.Category != "" {
			existing.Category = holding.Category
		}
	} else {
		h := holding
		p.Holdings[h.Ticker] = &h
	}

	if err := s.SavePortfolio(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info().Str("portfolio", id).Str("ticker", holding.Ticker).Float64("shares", holding.Shares).Msg("Holding added")
	return p, nil
}

// UpdateShares sets the share count for a held ticker
func (s *Service) UpdateShares(ctx context.Context, id, ticker string, shares float64) (*models.Portfolio, error) {
	if shares <= 0 {
		return nil, fmt.Errorf("%w: shares must be positive", ErrInvalidHolding)
	}
	ticker = NormalizeTicker(ticker)

	p, err := s.GetPortfolio(ctx, id)
	if err != nil {
		return nil, err
	}
	h, ok := p.Holdings[ticker]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHoldingNotFound, ticker)
	}
	h.Shares = shares

	if err := s.SavePortfolio(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// RemoveHolding deletes a held ticker
func (s *Service) RemoveHolding(ctx context.Context, id, ticker string) (*models.Portfolio, error) {
	ticker = NormalizeTicker(ticker)

	p, err := s.GetPortfolio(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, ok := p.Holdings[ticker]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrHoldingNotFound, ticker)
	}
	delete(p.Holdings, ticker)

	if err := s.SavePortfolio(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info().Str("portfolio", id).Str("ticker", ticker).Msg("Holding removed")
	return p, nil
}

// PricePortfolio fetches a live quote for every holding and fills in value,
// day change and weight. Any failed quote fails the whole request.
func (s *Service) PricePortfolio(ctx context.Context, id string) (*models.PricedPortfolio, error) {
	p, err := s.GetPortfolio(ctx, id)
	if err != nil {
		return nil, err
	}

	holdings := p.HoldingList()
	quotes, err := s.fetchQuotes(ctx, p.Tickers())
	if err != nil {
		return nil, err
	}

	var total, dayChange, previous float64
	for i := range holdings {
		h := &holdings[i]
		q := quotes[h.Ticker]

		h.Price = q.Price
		h.Value = q.Price * h.Shares
		h.DayChange = q.PerShareDayChange() * h.Shares
		h.DayChangePct = q.DayChangePct

		total += h.Value
		dayChange += h.DayChange
		previous += h.Value - h.DayChange
	}
	for i := range holdings {
		if total > 0 {
			holdings[i].Weight = holdings[i].Value / total * 100
		}
	}
	SortByValue(holdings)

	return &models.PricedPortfolio{
		ID:       p.ID,
		Kind:     p.Kind,
		Name:     p.Name,
		Holdings: holdings,
		Summary: models.PortfolioSummary{
			TotalValue:    total,
			DayChange:     dayChange,
			DayChangePct:  changePct(dayChange, previous),
			HoldingsCount: len(holdings),
			PricedAt:      s.now().UTC(),
		},
		Categories: BuildCategories(holdings, total),
	}, nil
}

// AggregateForUser merges a personal portfolio with the public one. An
// absent personal portfolio contributes nothing.
func (s *Service) AggregateForUser(ctx context.Context, id string) (*models.AggregatedPortfolio, error) {
	ids := []string{models.PublicPortfolioID}
	if id != "" && id != models.PublicPortfolioID {
		ids = append([]string{id}, ids...)
	}

	inputs := make([]models.PortfolioInput, 0, len(ids))
	for _, pid := range ids {
		priced, err := s.PricePortfolio(ctx, pid)
		if err != nil {
			if errors.Is(err, ErrPortfolioNotFound) && pid != models.PublicPortfolioID {
				s.logger.Debug().Str("portfolio", pid).Msg("No personal portfolio to aggregate")
				continue
			}
			return nil, err
		}
		inputs = append(inputs, models.PortfolioInput{
			Source:   pid,
			Holdings: priced.Holdings,
			Summary:  priced.Summary,
		})
	}

	aggregated := AggregatePortfolios(inputs)
	aggregated.Summary.PricedAt = s.now().UTC()
	return &aggregated, nil
}

// fetchQuotes loads quotes concurrently. The first error, in ticker order,
// is returned.
func (s *Service) fetchQuotes(ctx context.Context, tickers []string) (map[string]models.Quote, error) {
	type quoteResult struct {
		ticker string
		quote  *models.Quote
		err    error
	}

	semaphore := make(chan struct{}, maxConcurrentQuotes)
	results := make(chan quoteResult, len(tickers))

	for _, ticker := range tickers {
		go func(t string) {
			semaphore <- struct{}{}        // Acquire
			defer func() { <-semaphore }() // Release

			q, err := s.market.GetQuote(ctx, t)
			if err == nil && (q == nil || q.Price <= 0) {
				err = errors.New("no usable price")
			}
			results <- quoteResult{ticker: t, quote: q, err: err}
		}(ticker)
	}

	quotes := make(map[string]models.Quote, len(tickers))
	var failed []string
	errs := make(map[string]error)
	for range tickers {
		r := <-results
		if r.err != nil {
			s.logger.Warn().Str("ticker", r.ticker).Err(r.err).Msg("Failed to fetch quote")
			failed = append(failed, r.ticker)
			errs[r.ticker] = r.err
			continue
		}
		quotes[r.ticker] = *r.quote
	}

	if len(failed) > 0 {
		sort.Strings(failed)
		return nil, fmt.Errorf("%w for %s: %w", ErrQuoteFailed, failed[0], errs[failed[0]])
	}
	return quotes, nil
}

func validateHolding(h models.Holding) error {
	if h.Ticker == "" {
		return fmt.Errorf("%w: ticker is required", ErrInvalidHolding)
	}
	if h.Shares <= 0 {
		return fmt.Errorf("%w: shares must be positive", ErrInvalidHolding)
	}
	if h.CostBasis != nil && *h.CostBasis < 0 {
		return fmt.Errorf("%w: cost basis cannot be negative", ErrInvalidHolding)
	}
	if h.Category != "" && !h.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidHolding, h.Category)
	}
	return nil
}

// mergeCostBasis share-weights two cost bases. A side without a cost basis
// does not dilute the other.
func mergeCostBasis(a *float64, aShares float64, b *float64, bShares float64) *float64 {
	switch {
	case a == nil && b == nil:
		return nil
	case a == nil:
		v := *b
		return &v
	case b == nil:
		v := *a
		return &v
	}
	if aShares+bShares <= 0 {
		return nil
	}
	v := (*a*aShares + *b*bShares) / (aShares + bShares)
	return &v
}

// Ensure Service implements PortfolioService
var _ interfaces.PortfolioService = (*Service)(nil)
