package portfolio

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/alin/internal/common"
	"github.com/bobmcallan/alin/internal/models"
	"github.com/bobmcallan/alin/internal/storage/memory"
)

type mockMarket struct {
	mu       sync.Mutex
	quotes   map[string]models.Quote
	failures map[string]error
	calls    int
}

func (m *mockMarket) GetHistoricalData(ctx context.Context, ticker string, from, to time.Time) ([]models.PricePoint, error) {
	return nil, errors.New("not implemented")
}

func (m *mockMarket) GetQuote(ctx context.Context, ticker string) (*models.Quote, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if err, ok := m.failures[ticker]; ok {
		return nil, err
	}
	q, ok := m.quotes[ticker]
	if !ok {
		return nil, errors.New("unknown ticker")
	}
	return &q, nil
}

func newTestService(market *mockMarket) *Service {
	return NewService(memory.NewStore(), market, common.NewSilentLogger())
}

func TestService_GetPortfolio_NotFound(t *testing.T) {
	svc := newTestService(&mockMarket{})

	_, err := svc.GetPortfolio(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrPortfolioNotFound)
}

func TestService_AddHolding_CreatesAndMerges(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(&mockMarket{})

	p, err := svc.AddHolding(ctx, "user-1", models.Holding{Ticker: "nvda", Shares: 10, CostBasis: models.Float(100), Category: models.CategoryAICompute})
	require.NoError(t, err)
	assert.Equal(t, models.PortfolioKindPersonal, p.Kind)
	require.Contains(t, p.Holdings, "NVDA")

	p, err = svc.AddHolding(ctx, "user-1", models.Holding{Ticker: "NVDA", Shares: 30, CostBasis: models.Float(200)})
	require.NoError(t, err)

	h := p.Holdings["NVDA"]
	assert.Equal(t, 40.0, h.Shares)
	require.NotNil(t, h.CostBasis)
	assert.InDelta(t, 175.0, *h.CostBasis, 1e-9)
	assert.Equal(t, models.CategoryAICompute, h.Category)

	stored, err := svc.GetPortfolio(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 40.0, stored.Holdings["NVDA"].Shares)
}

func TestService_AddHolding_Validation(t *testing.T) {
	svc := newTestService(&mockMarket{})
	ctx := context.Background()

	tests := []struct {
		name    string
		holding models.Holding
	}{
		{"missing ticker", models.Holding{Shares: 1}},
		{"zero shares", models.Holding{Ticker: "AMD"}},
		{"negative cost", models.Holding{Ticker: "AMD", Shares: 1, CostBasis: models.Float(-1)}},
		{"bad category", models.Holding{Ticker: "AMD", Shares: 1, Category: "meme"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddHolding(ctx, "u", tt.holding)
			assert.ErrorIs(t, err, ErrInvalidHolding)
		})
	}
}

func TestService_UpdateAndRemove(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(&mockMarket{})

	_, err := svc.AddHolding(ctx, "u", models.Holding{Ticker: "AMD", Shares: 5})
	require.NoError(t, err)

	p, err := svc.UpdateShares(ctx, "u", "amd", 12)
	require.NoError(t, err)
	assert.Equal(t, 12.0, p.Holdings["AMD"].Shares)

	_, err = svc.UpdateShares(ctx, "u", "TSM", 1)
	assert.ErrorIs(t, err, ErrHoldingNotFound)

	_, err = svc.UpdateShares(ctx, "u", "AMD", 0)
	assert.ErrorIs(t, err, ErrInvalidHolding)

	p, err = svc.RemoveHolding(ctx, "u", "AMD")
	require.NoError(t, err)
	assert.Empty(t, p.Holdings)

	_, err = svc.RemoveHolding(ctx, "u", "AMD")
	assert.ErrorIs(t, err, ErrHoldingNotFound)
}

func TestService_SavePortfolio_DropsDerivedFields(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(&mockMarket{})

	err := svc.SavePortfolio(ctx, &models.Portfolio{
		ID:       "alin",
		Kind:     models.PortfolioKindPublic,
		Holdings: map[string]*models.Holding{"AMD": {Ticker: "AMD", Shares: 2, Price: 150, Value: 300, Weight: 100}},
	})
	require.NoError(t, err)

	p, err := svc.GetPortfolio(ctx, "alin")
	require.NoError(t, err)
	assert.Zero(t, p.Holdings["AMD"].Value)
	assert.Zero(t, p.Holdings["AMD"].Weight)
	assert.False(t, p.UpdatedAt.IsZero())
}

func TestService_PricePortfolio(t *testing.T) {
	ctx := context.Background()
	market := &mockMarket{quotes: map[string]models.Quote{
		"NVDA": {Ticker: "NVDA", Price: 150, DayChange: 5, DayChangePct: 3.448},
		"AMD":  {Ticker: "AMD", Price: 100, DayChange: -2, DayChangePct: -1.96},
	}}
	svc := newTestService(market)

	_, err := svc.AddHolding(ctx, "alin", models.Holding{Ticker: "NVDA", Shares: 2, Category: models.CategoryAICompute})
	require.NoError(t, err)
	_, err = svc.AddHolding(ctx, "alin", models.Holding{Ticker: "AMD", Shares: 1, Category: models.CategorySemiconductors})
	require.NoError(t, err)

	priced, err := svc.PricePortfolio(ctx, "alin")
	require.NoError(t, err)

	assert.Equal(t, models.PortfolioKindPublic, priced.Kind)
	require.Len(t, priced.Holdings, 2)
	assert.Equal(t, "NVDA", priced.Holdings[0].Ticker)
	assert.Equal(t, 300.0, priced.Holdings[0].Value)
	assert.Equal(t, 10.0, priced.Holdings[0].DayChange)
	assert.InDelta(t, 75.0, priced.Holdings[0].Weight, 1e-9)
	assert.Equal(t, 400.0, priced.Summary.TotalValue)
	assert.Equal(t, 8.0, priced.Summary.DayChange)
	assert.InDelta(t, 8.0/392.0*100, priced.Summary.DayChangePct, 1e-9)
	assert.Len(t, priced.Categories, 2)
}

func TestService_PricePortfolio_PercentOnlyQuote(t *testing.T) {
	ctx := context.Background()
	market := &mockMarket{quotes: map[string]models.Quote{
		"NVDA": {Ticker: "NVDA", Price: 110, DayChangePct: 10},
	}}
	svc := newTestService(market)

	_, err := svc.AddHolding(ctx, "alin", models.Holding{Ticker: "NVDA", Shares: 10})
	require.NoError(t, err)

	priced, err := svc.PricePortfolio(ctx, "alin")
	require.NoError(t, err)
	require.Len(t, priced.Holdings, 1)
	assert.InDelta(t, 100.0, priced.Holdings[0].DayChange, 1e-9)
	assert.InDelta(t, 10.0, priced.Summary.DayChangePct, 1e-9)

	agg, err := svc.AggregateForUser(ctx, "")
	require.NoError(t, err)
	require.Len(t, agg.Holdings, 1)
	assert.InDelta(t, 10.0, agg.Holdings[0].DayChangePct, 1e-9)
	assert.InDelta(t, 10.0, agg.Summary.DayChangePct, 1e-9)
}

func TestService_PricePortfolio_QuoteFailure(t *testing.T) {
	ctx := context.Background()
	market := &mockMarket{
		quotes:   map[string]models.Quote{"NVDA": {Price: 150}},
		failures: map[string]error{"AMD": errors.New("upstream 503")},
	}
	svc := newTestService(market)

	_, err := svc.AddHolding(ctx, "alin", models.Holding{Ticker: "NVDA", Shares: 1})
	require.NoError(t, err)
	_, err = svc.AddHolding(ctx, "alin", models.Holding{Ticker: "AMD", Shares: 1})
	require.NoError(t, err)

	_, err = svc.PricePortfolio(ctx, "alin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AMD")
	assert.Contains(t, err.Error(), "upstream 503")
	assert.ErrorIs(t, err, ErrQuoteFailed)
}

func TestService_AggregateForUser(t *testing.T) {
	ctx := context.Background()
	market := &mockMarket{quotes: map[string]models.Quote{
		"AAPL": {Price: 100},
		"NVDA": {Price: 50},
	}}
	svc := newTestService(market)

	_, err := svc.AddHolding(ctx, "alin", models.Holding{Ticker: "AAPL", Shares: 5})
	require.NoError(t, err)
	_, err = svc.AddHolding(ctx, "alin", models.Holding{Ticker: "NVDA", Shares: 10})
	require.NoError(t, err)
	_, err = svc.AddHolding(ctx, "user-1", models.Holding{Ticker: "AAPL", Shares: 10})
	require.NoError(t, err)

	agg, err := svc.AggregateForUser(ctx, "user-1")
	require.NoError(t, err)

	require.Len(t, agg.Holdings, 2)
	assert.Equal(t, "AAPL", agg.Holdings[0].Ticker)
	assert.Equal(t, 15.0, agg.Holdings[0].Shares)
	assert.Equal(t, 1500.0, agg.Holdings[0].Value)
	assert.Equal(t, 2000.0, agg.Summary.TotalValue)
	assert.Equal(t, []string{"user-1", "alin"}, agg.Sources)
}

func TestService_AggregateForUser_NoPersonalPortfolio(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(&mockMarket{quotes: map[string]models.Quote{"AAPL": {Price: 100}}})

	_, err := svc.AddHolding(ctx, "alin", models.Holding{Ticker: "AAPL", Shares: 1})
	require.NoError(t, err)

	agg, err := svc.AggregateForUser(ctx, "stranger")
	require.NoError(t, err)
	assert.Equal(t, []string{"alin"}, agg.Sources)
	assert.Equal(t, 100.0, agg.Summary.TotalValue)
}

func TestMergeCostBasis(t *testing.T) {
	assert.Nil(t, mergeCostBasis(nil, 1, nil, 1))
	assert.Equal(t, 5.0, *mergeCostBasis(nil, 1, models.Float(5), 1))
	assert.Equal(t, 7.0, *mergeCostBasis(models.Float(7), 1, nil, 1))
	assert.InDelta(t, 8.0, *mergeCostBasis(models.Float(10), 3, models.Float(2), 1), 1e-9)
}
