package app

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bobmcallan/alin/internal/common"
	"github.com/bobmcallan/alin/internal/interfaces"
	"github.com/bobmcallan/alin/internal/models"
)

// DefaultSnapshotCron runs after the US close on weekdays (UTC)
const DefaultSnapshotCron = "30 21 * * 1-5"

const maxConcurrentSnapshots = 5

// CachePurgeSchedule sweeps expired market-data cache entries
const CachePurgeSchedule = "@every 15m"

// purger is implemented by caching market-data decorators
type purger interface {
	Purge() int
}

// Scheduler records daily metric snapshots for every public-portfolio
// ticker on a cron schedule.
type Scheduler struct {
	portfolios interfaces.PortfolioService
	market     interfaces.MarketDataClient
	metrics    interfaces.MetricService
	cron       *cron.Cron
	logger     *common.Logger
}

// NewScheduler creates a snapshot scheduler evaluated in UTC
func NewScheduler(portfolios interfaces.PortfolioService, market interfaces.MarketDataClient, metrics interfaces.MetricService, logger *common.Logger) *Scheduler {
	return &Scheduler{
		portfolios: portfolios,
		market:     market,
		metrics:    metrics,
		cron:       cron.New(cron.WithLocation(time.UTC)),
		logger:     logger,
	}
}

// Start registers the snapshot job and starts the cron loop
func (s *Scheduler) Start(schedule string) error {
	if schedule == "" {
		schedule = DefaultSnapshotCron
	}

	_, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		s.RunSnapshots(ctx)
	})
	if err != nil {
		return err
	}

	if p, ok := s.market.(purger); ok {
		if _, err := s.cron.AddFunc(CachePurgeSchedule, func() { s.PurgeCaches(p) }); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.logger.Info().Str("schedule", schedule).Msg("Snapshot scheduler started")
	return nil
}

// Stop halts the cron loop and waits for a running job to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("Snapshot scheduler stopped")
}

// PurgeCaches drops expired cache entries and returns how many went
func (s *Scheduler) PurgeCaches(p purger) int {
	removed := p.Purge()
	s.logger.Debug().Int("removed", removed).Msg("Market data cache purged")
	return removed
}

// RunSnapshots quotes every public-portfolio ticker and records its
// metrics. Returns the number of tickers that produced a new snapshot.
func (s *Scheduler) RunSnapshots(ctx context.Context) int {
	start := time.Now()

	p, err := s.portfolios.GetPortfolio(ctx, models.PublicPortfolioID)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Snapshot run: public portfolio unavailable")
		return 0
	}
	tickers := p.Tickers()

	var (
		mu       sync.Mutex
		recorded int
		wg       sync.WaitGroup
	)
	semaphore := make(chan struct{}, maxConcurrentSnapshots)

	for _, ticker := range tickers {
		wg.Add(1)
		go func(ticker string) {
			defer wg.Done()

			// Acquire
			semaphore <- struct{}{}
			defer func() { <-semaphore }() // Release

			quote, err := s.market.GetQuote(ctx, ticker)
			if err != nil {
				s.logger.Warn().Str("ticker", ticker).Err(err).Msg("Snapshot run: quote failed")
				return
			}
			if s.metrics.RecordDailySnapshot(ctx, ticker, models.MetricValues(*quote)) {
				mu.Lock()
				recorded++
				mu.Unlock()
			}
		}(ticker)
	}
	wg.Wait()

	s.logger.Info().
		Int("tickers", len(tickers)).
		Int("recorded", recorded).
		Dur("duration", time.Since(start)).
		Msg("Snapshot run completed")

	return recorded
}
