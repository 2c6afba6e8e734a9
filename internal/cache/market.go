package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/bobmcallan/alin/internal/interfaces"
	"github.com/bobmcallan/alin/internal/models"
)

// MarketData wraps a MarketDataClient and serves repeated requests from
// memory. Errors are never cached.
type MarketData struct {
	next       interfaces.MarketDataClient
	quotes     *TTLCache[models.Quote]
	histories  *TTLCache[[]models.PricePoint]
	quoteTTL   time.Duration
	historyTTL time.Duration
}

// NewMarketData creates a caching decorator around next
func NewMarketData(next interfaces.MarketDataClient, quoteTTL, historyTTL time.Duration) *MarketData {
	return &MarketData{
		next:       next,
		quotes:     New[models.Quote](),
		histories:  New[[]models.PricePoint](),
		quoteTTL:   quoteTTL,
		historyTTL: historyTTL,
	}
}

// GetHistoricalData returns cached history for the exact ticker and range
func (m *MarketData) GetHistoricalData(ctx context.Context, ticker string, from, to time.Time) ([]models.PricePoint, error) {
	key := fmt.Sprintf("%s|%s|%s", ticker, from.UTC().Format("2006-01-02"), to.UTC().Format("2006-01-02"))
	if points, ok := m.histories.Get(key); ok {
		return points, nil
	}

	points, err := m.next.GetHistoricalData(ctx, ticker, from, to)
	if err != nil {
		return nil, err
	}
	m.histories.Set(key, points, m.historyTTL)
	return points, nil
}

// GetQuote returns a cached quote when one is still fresh
func (m *MarketData) GetQuote(ctx context.Context, ticker string) (*models.Quote, error) {
	if q, ok := m.quotes.Get(ticker); ok {
		return &q, nil
	}

	q, err := m.next.GetQuote(ctx, ticker)
	if err != nil {
		return nil, err
	}
	m.quotes.Set(ticker, *q, m.quoteTTL)
	return q, nil
}

// Purge drops expired entries from both caches
func (m *MarketData) Purge() int {
	return m.quotes.Purge() + m.histories.Purge()
}

// Ensure MarketData implements MarketDataClient
var _ interfaces.MarketDataClient = (*MarketData)(nil)
