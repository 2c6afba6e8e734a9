package valuation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/bobmcallan/alin/internal/common"
	"github.com/bobmcallan/alin/internal/interfaces"
	"github.com/bobmcallan/alin/internal/models"
)

// maxConcurrentFetches bounds in-flight history requests
const maxConcurrentFetches = 5

// Service implements ValuationService
type Service struct {
	market     interfaces.MarketDataClient
	allocation models.InceptionAllocation
	logger     *common.Logger
}

// NewService creates a new valuation service
func NewService(market interfaces.MarketDataClient, allocation models.InceptionAllocation, logger *common.Logger) *Service {
	return &Service{
		market:     market,
		allocation: allocation,
		logger:     logger,
	}
}

// Allocation returns the inception allocation
func (s *Service) Allocation() models.InceptionAllocation {
	return s.allocation
}

// CalculateHistoricalETFPrices fetches every constituent's history over the
// range and folds it into the synthetic index. Constituents whose fetch
// fails are left out of the index; an error is returned only when none could
// be fetched.
func (s *Service) CalculateHistoricalETFPrices(ctx context.Context, start, end time.Time) ([]models.PricePoint, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("invalid range: end %s is before start %s", end.Format(dateLayout), start.Format(dateLayout))
	}

	from := start
	if s.allocation.InceptionDate.After(from) {
		from = s.allocation.InceptionDate
	}
	if end.Before(from) {
		return []models.PricePoint{}, nil
	}

	tickers := s.allocation.Tickers()
	histories, failed := s.fetchHistories(ctx, tickers, from, end)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(tickers) > 0 && len(histories) == 0 {
		return nil, fmt.Errorf("no constituent history available (%d tickers failed)", len(failed))
	}

	points := ComputeSyntheticIndex(s.allocation, histories, from, end)

	s.logger.Debug().
		Int("constituents", len(histories)).
		Int("failed", len(failed)).
		Int("points", len(points)).
		Msg("Synthetic index computed")

	return points, nil
}

// CompareBenchmarks returns each benchmark normalized to percent return
// over the range. Benchmarks that fail to load are dropped and reported in
// the second return value.
func (s *Service) CompareBenchmarks(ctx context.Context, tickers []string, start, end time.Time) (map[string][]models.PricePoint, []string, error) {
	if len(tickers) == 0 {
		return map[string][]models.PricePoint{}, nil, nil
	}

	histories, failed := s.fetchHistories(ctx, tickers, start, end)
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	out := make(map[string][]models.PricePoint, len(histories))
	for ticker, points := range histories {
		out[ticker] = NormalizeToReturn(points)
	}

	return out, failed, nil
}

// fetchHistories loads histories concurrently. Empty or failed fetches are
// logged and returned in failed, sorted.
func (s *Service) fetchHistories(ctx context.Context, tickers []string, from, to time.Time) (map[string][]models.PricePoint, []string) {
	type historyResult struct {
		ticker string
		points []models.PricePoint
		err    error
	}

	semaphore := make(chan struct{}, maxConcurrentFetches)
	results := make(chan historyResult, len(tickers))

	for _, ticker := range tickers {
		go func(t string) {
			semaphore <- struct{}{}        // Acquire
			defer func() { <-semaphore }() // Release

			points, err := s.market.GetHistoricalData(ctx, t, from, to)
			if err == nil && len(points) == 0 {
				err = errEmptyHistory
			}
			results <- historyResult{ticker: t, points: points, err: err}
		}(ticker)
	}

	histories := make(map[string][]models.PricePoint, len(tickers))
	var failed []string
	for range tickers {
		r := <-results
		if r.err != nil {
			s.logger.Warn().Str("ticker", r.ticker).Err(r.err).Msg("Failed to fetch price history")
			failed = append(failed, r.ticker)
			continue
		}
		histories[r.ticker] = r.points
	}

	sort.Strings(failed)
	return histories, failed
}

var errEmptyHistory = errors.New("empty price history")

// Ensure Service implements ValuationService
var _ interfaces.ValuationService = (*Service)(nil)
