package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/alin/internal/models"
)

// MarketDataClient fetches prices from an external market data provider
type MarketDataClient interface {
	// GetHistoricalData returns daily points in [from, to], ascending by date
	GetHistoricalData(ctx context.Context, ticker string, from, to time.Time) ([]models.PricePoint, error)

	// GetQuote returns a validated live quote
	GetQuote(ctx context.Context, ticker string) (*models.Quote, error)
}

// LLMClient generates text completions
type LLMClient interface {
	// Complete returns the model's text for a system and user prompt
	Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error)

	// Provider names the backing service, e.g. "gemini"
	Provider() string
}
