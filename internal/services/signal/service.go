// Package signal generates technical signals from fetched market data
package signal

import (
	"context"
	"fmt"
	"time"

	"github.com/bobmcallan/alin/internal/common"
	"github.com/bobmcallan/alin/internal/interfaces"
	"github.com/bobmcallan/alin/internal/models"
	"github.com/bobmcallan/alin/internal/signals"
)

const (
	// maxConcurrentTickers bounds in-flight per-ticker fetches
	maxConcurrentTickers = 5

	// historyWindow is the lookback requested for each ticker
	historyWindow = 365 * 24 * time.Hour
)

// Service implements SignalService
type Service struct {
	market     interfaces.MarketDataClient
	thresholds signals.Thresholds
	logger     *common.Logger
	now        func() time.Time
}

// NewService creates a new signal service
func NewService(market interfaces.MarketDataClient, thresholds signals.Thresholds, logger *common.Logger) *Service {
	return &Service{
		market:     market,
		thresholds: thresholds,
		logger:     logger,
		now:        time.Now,
	}
}

// Thresholds returns the thresholds signals are classified with
func (s *Service) Thresholds() signals.Thresholds {
	return s.thresholds
}

// GenerateSignals fetches a year of history and a quote for each ticker and
// computes its signal. Tickers that cannot be evaluated are reported in
// Errors; signals follow input order with duplicates removed.
func (s *Service) GenerateSignals(ctx context.Context, tickers []string) (*models.SignalsResult, error) {
	tickers = dedupe(tickers)

	type signalResult struct {
		index  int
		signal models.TechnicalSignal
		err    error
	}

	semaphore := make(chan struct{}, maxConcurrentTickers)
	results := make(chan signalResult, len(tickers))

	for i, ticker := range tickers {
		go func(i int, t string) {
			semaphore <- struct{}{}        // Acquire
			defer func() { <-semaphore }() // Release

			sig, err := s.generate(ctx, t)
			results <- signalResult{index: i, signal: sig, err: err}
		}(i, ticker)
	}

	computed := make([]*models.TechnicalSignal, len(tickers))
	errs := make(map[string]string)
	for range tickers {
		r := <-results
		if r.err != nil {
			s.logger.Warn().Str("ticker", tickers[r.index]).Err(r.err).Msg("Signal generation failed")
			errs[tickers[r.index]] = r.err.Error()
			continue
		}
		sig := r.signal
		computed[r.index] = &sig
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := &models.SignalsResult{Signals: make([]models.TechnicalSignal, 0, len(tickers))}
	for _, sig := range computed {
		if sig != nil {
			out.Signals = append(out.Signals, *sig)
		}
	}
	if len(errs) > 0 {
		out.Errors = errs
	}

	s.logger.Debug().Int("signals", len(out.Signals)).Int("errors", len(errs)).Msg("Signals generated")
	return out, nil
}

// generate computes one ticker's signal. A failed quote is tolerated and the
// 52-week range is then derived from history.
func (s *Service) generate(ctx context.Context, ticker string) (models.TechnicalSignal, error) {
	to := s.now().UTC()
	from := to.Add(-historyWindow)

	history, err := s.market.GetHistoricalData(ctx, ticker, from, to)
	if err != nil {
		return models.TechnicalSignal{}, fmt.Errorf("failed to fetch history: %w", err)
	}
	if err := signals.CheckHistory(history); err != nil {
		return models.TechnicalSignal{}, err
	}

	var high52, low52 float64
	quote, err := s.market.GetQuote(ctx, ticker)
	if err != nil {
		s.logger.Debug().Str("ticker", ticker).Err(err).Msg("Quote unavailable, using history range")
	} else if quote.FiftyTwoWeekHigh != nil && quote.FiftyTwoWeekLow != nil {
		high52, low52 = *quote.FiftyTwoWeekHigh, *quote.FiftyTwoWeekLow
	}

	return signals.GenerateTechnicalSignal(ticker, history, high52, low52, s.thresholds), nil
}

func dedupe(tickers []string) []string {
	seen := make(map[string]bool, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// Ensure Service implements SignalService
var _ interfaces.SignalService = (*Service)(nil)
