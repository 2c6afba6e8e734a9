package seed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/alin/internal/common"
	"github.com/bobmcallan/alin/internal/models"
	"github.com/bobmcallan/alin/internal/services/portfolio"
	"github.com/bobmcallan/alin/internal/storage/memory"
)

func TestLoad(t *testing.T) {
	data, err := Load()
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), data.Allocation.InceptionDate.UTC())
	assert.Equal(t, 100.0, data.Allocation.IndexInceptionPrice)
	assert.NotEmpty(t, data.Allocation.Entries)

	covered := make(map[models.Category]bool)
	for _, e := range data.Allocation.Entries {
		covered[e.Category] = true
	}
	assert.Len(t, covered, len(models.AllCategories), "every category is represented")

	require.NotEmpty(t, data.Collections)
	c, ok := data.Collection("hyperscalers")
	require.True(t, ok)
	assert.Contains(t, c.Tickers, "MSFT")

	_, ok = data.Collection("missing")
	assert.False(t, ok)

	assert.NotEmpty(t, data.Thesis.Title)
	assert.NotEmpty(t, data.Thesis.Sections)
}

func TestValidateAllocation(t *testing.T) {
	valid := models.InceptionAllocation{
		InceptionDate:       time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		IndexInceptionPrice: 100,
		Entries: []models.AllocationEntry{
			{Ticker: "NVDA", Category: models.CategoryAICompute, Weight: 0.6, InceptionPrice: 100},
			{Ticker: "VRT", Category: models.CategoryEnergyInfrastructure, Weight: 0.4, InceptionPrice: 50},
		},
	}
	assert.NoError(t, ValidateAllocation(valid))

	short := valid
	short.Entries = valid.Entries[:1]
	assert.ErrorContains(t, ValidateAllocation(short), "sum to 0.6000")

	dup := valid
	dup.Entries = []models.AllocationEntry{valid.Entries[0], valid.Entries[0]}
	assert.ErrorContains(t, ValidateAllocation(dup), "duplicate")

	badCategory := valid
	badCategory.Entries = []models.AllocationEntry{
		{Ticker: "X", Category: "crypto", Weight: 1, InceptionPrice: 1},
	}
	assert.ErrorContains(t, ValidateAllocation(badCategory), "unknown category")

	noDate := valid
	noDate.InceptionDate = time.Time{}
	assert.Error(t, ValidateAllocation(noDate))
}

func TestPublicHoldings(t *testing.T) {
	data := &Data{
		Notional: 10000,
		Allocation: models.InceptionAllocation{Entries: []models.AllocationEntry{
			{Ticker: "NVDA", Category: models.CategoryAICompute, Weight: 0.5, InceptionPrice: 125},
			{Ticker: "VRT", Category: models.CategoryEnergyInfrastructure, Weight: 0.5, InceptionPrice: 0},
		}},
	}

	holdings := data.PublicHoldings()

	require.Len(t, holdings, 1, "entries without an inception price are skipped")
	assert.Equal(t, "NVDA", holdings[0].Ticker)
	assert.Equal(t, 40.0, holdings[0].Shares)
	require.NotNil(t, holdings[0].CostBasis)
	assert.Equal(t, 125.0, *holdings[0].CostBasis)
}

func TestSeedPublicPortfolio(t *testing.T) {
	ctx := context.Background()
	logger := common.NewSilentLogger()
	portfolios := portfolio.NewService(memory.NewStore(), nil, logger)

	data, err := Load()
	require.NoError(t, err)

	seeded, err := SeedPublicPortfolio(ctx, portfolios, data, logger)
	require.NoError(t, err)
	assert.True(t, seeded)

	p, err := portfolios.GetPortfolio(ctx, models.PublicPortfolioID)
	require.NoError(t, err)
	assert.Equal(t, models.PortfolioKindPublic, p.Kind)
	assert.Len(t, p.Holdings, len(data.Allocation.Entries))

	_, err = portfolios.RemoveHolding(ctx, models.PublicPortfolioID, "NVDA")
	require.NoError(t, err)

	seeded, err = SeedPublicPortfolio(ctx, portfolios, data, logger)
	require.NoError(t, err)
	assert.False(t, seeded, "existing portfolio is left alone")

	p, err = portfolios.GetPortfolio(ctx, models.PublicPortfolioID)
	require.NoError(t, err)
	assert.NotContains(t, p.Holdings, "NVDA")
}
