// Package seed provides the embedded fund composition, curated collections
// and thesis, and writes the public portfolio on first start.
package seed

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"

	"github.com/bobmcallan/alin/internal/common"
	"github.com/bobmcallan/alin/internal/interfaces"
	"github.com/bobmcallan/alin/internal/models"
	"github.com/bobmcallan/alin/internal/services/portfolio"
)

//go:embed data/*.yaml
var fs embed.FS

// Data is the parsed seed content
type Data struct {
	Allocation  models.InceptionAllocation
	Notional    float64
	Collections []models.Collection
	Thesis      models.Thesis
}

type allocationFile struct {
	models.InceptionAllocation `yaml:",inline"`
	Notional                   float64 `yaml:"notional"`
}

// Load parses the embedded seed files and validates the allocation.
func Load() (*Data, error) {
	var alloc allocationFile
	if err := decode("data/allocation.yaml", &alloc); err != nil {
		return nil, err
	}
	if err := ValidateAllocation(alloc.InceptionAllocation); err != nil {
		return nil, err
	}

	var collections []models.Collection
	if err := decode("data/collections.yaml", &collections); err != nil {
		return nil, err
	}

	var thesis models.Thesis
	if err := decode("data/thesis.yaml", &thesis); err != nil {
		return nil, err
	}

	return &Data{
		Allocation:  alloc.InceptionAllocation,
		Notional:    alloc.Notional,
		Collections: collections,
		Thesis:      thesis,
	}, nil
}

func decode(name string, v interface{}) error {
	data, err := fs.ReadFile(name)
	if err != nil {
		return fmt.Errorf("failed to read seed file %s: %w", name, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse seed file %s: %w", name, err)
	}
	return nil
}

// ValidateAllocation checks categories, prices and that weights sum to one
// within a small tolerance.
func ValidateAllocation(a models.InceptionAllocation) error {
	if a.InceptionDate.IsZero() {
		return errors.New("allocation has no inception date")
	}
	if a.IndexInceptionPrice <= 0 {
		return errors.New("allocation index inception price must be positive")
	}

	seen := make(map[string]bool, len(a.Entries))
	total := 0.0
	for _, e := range a.Entries {
		if seen[e.Ticker] {
			return fmt.Errorf("duplicate allocation ticker %s", e.Ticker)
		}
		seen[e.Ticker] = true
		if !e.Category.Valid() {
			return fmt.Errorf("allocation ticker %s has unknown category %q", e.Ticker, e.Category)
		}
		if e.Weight < 0 || e.InceptionPrice < 0 {
			return fmt.Errorf("allocation ticker %s has negative weight or price", e.Ticker)
		}
		total += e.Weight
	}
	if math.Abs(total-1) > 0.01 {
		return fmt.Errorf("allocation weights sum to %.4f, expected 1.0", total)
	}
	return nil
}

// PublicHoldings converts the allocation into share counts for a fund of
// the given notional value bought at inception prices.
func (d *Data) PublicHoldings() []models.Holding {
	holdings := make([]models.Holding, 0, len(d.Allocation.Entries))
	for _, e := range d.Allocation.Entries {
		if e.InceptionPrice <= 0 || e.Weight <= 0 {
			continue
		}
		shares := math.Round(d.Notional*e.Weight/e.InceptionPrice*10000) / 10000
		holdings = append(holdings, models.Holding{
			Ticker:    e.Ticker,
			Name:      e.Name,
			Category:  e.Category,
			Shares:    shares,
			CostBasis: models.Float(e.InceptionPrice),
		})
	}
	return holdings
}

// Collection returns the collection with slug
func (d *Data) Collection(slug string) (models.Collection, bool) {
	for _, c := range d.Collections {
		if c.Slug == slug {
			return c, true
		}
	}
	return models.Collection{}, false
}

// SeedPublicPortfolio writes the public portfolio when none is stored yet.
// Returns true when it wrote one.
func SeedPublicPortfolio(ctx context.Context, portfolios interfaces.PortfolioService, data *Data, logger *common.Logger) (bool, error) {
	existing, err := portfolios.GetPortfolio(ctx, models.PublicPortfolioID)
	switch {
	case err == nil && len(existing.Holdings) > 0:
		return false, nil
	case err != nil && !errors.Is(err, portfolio.ErrPortfolioNotFound):
		return false, err
	}

	holdings := data.PublicHoldings()
	p := &models.Portfolio{
		ID:       models.PublicPortfolioID,
		Kind:     models.PortfolioKindPublic,
		Name:     "$ALIN",
		Holdings: make(map[string]*models.Holding, len(holdings)),
	}
	for i := range holdings {
		h := holdings[i]
		p.Holdings[h.Ticker] = &h
	}

	if err := portfolios.SavePortfolio(ctx, p); err != nil {
		return false, fmt.Errorf("failed to seed public portfolio: %w", err)
	}

	logger.Info().Int("holdings", len(holdings)).Msg("Seeded public portfolio")
	return true, nil
}
