// Package eodhd provides a market data client for the EODHD API
package eodhd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/alin/internal/common"
	"github.com/bobmcallan/alin/internal/interfaces"
	"github.com/bobmcallan/alin/internal/models"
)

// flexFloat64 decodes numbers that EODHD sometimes sends as strings.
// Sentinels such as "NA" and null decode to zero.
type flexFloat64 float64

func (f *flexFloat64) UnmarshalJSON(data []byte) error {
	text := strings.Trim(strings.TrimSpace(string(data)), `"`)
	switch text {
	case "", "null", "NA", "N/A":
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		if data[0] == '"' {
			*f = 0
			return nil
		}
		return fmt.Errorf("cannot unmarshal %s into float64", string(data))
	}
	*f = flexFloat64(v)
	return nil
}

const (
	DefaultBaseURL   = "https://eodhd.com/api"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 10 // requests per second
	DefaultExchange  = "US"

	// averageVolumeSessions is the trailing window for average volume
	averageVolumeSessions = 20

	dateLayout = "2006-01-02"
)

// Client implements MarketDataClient
type Client struct {
	baseURL    string
	apiKey     string
	exchange   string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
	now        func() time.Time
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithExchange sets the suffix appended to tickers without one
func WithExchange(exchange string) ClientOption {
	return func(c *Client) {
		if exchange != "" {
			c.exchange = exchange
		}
	}
}

// NewClient creates a new EODHD client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:  DefaultBaseURL,
		apiKey:   apiKey,
		exchange: DefaultExchange,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("EODHD API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// symbol qualifies a bare ticker with the configured exchange
func (c *Client) symbol(ticker string) string {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if strings.Contains(ticker, ".") {
		return ticker
	}
	return ticker + "." + c.exchange
}

// get issues one rate-limited GET and decodes the JSON body into result.
// Non-200 responses come back as *APIError.
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	query := url.Values{}
	for k, vs := range params {
		query[k] = vs
	}
	query.Set("api_token", c.apiKey)
	query.Set("fmt", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", path, err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", path, err)
	}
	defer resp.Body.Close()

	c.logger.Trace().Str("path", path).Int("status", resp.StatusCode).Dur("elapsed", time.Since(start)).Msg("EODHD request")

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body)), Endpoint: path}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

// eodBarResponse represents the API response for EOD data
type eodBarResponse struct {
	Date          string      `json:"date"`
	Open          flexFloat64 `json:"open"`
	High          flexFloat64 `json:"high"`
	Low           flexFloat64 `json:"low"`
	Close         flexFloat64 `json:"close"`
	AdjustedClose flexFloat64 `json:"adjusted_close"`
	Volume        flexFloat64 `json:"volume"`
}

// GetHistoricalData returns daily bars over [from, to], ascending by date.
// Bars with an unparseable date or no close are dropped.
func (c *Client) GetHistoricalData(ctx context.Context, ticker string, from, to time.Time) ([]models.PricePoint, error) {
	params := url.Values{}
	params.Set("period", "d")
	params.Set("order", "a")
	if !from.IsZero() {
		params.Set("from", from.UTC().Format(dateLayout))
	}
	if !to.IsZero() {
		params.Set("to", to.UTC().Format(dateLayout))
	}

	var bars []eodBarResponse
	if err := c.get(ctx, "/eod/"+c.symbol(ticker), params, &bars); err != nil {
		return nil, err
	}

	points := make([]models.PricePoint, 0, len(bars))
	for _, bar := range bars {
		date, err := time.Parse(dateLayout, bar.Date)
		if err != nil || bar.Close <= 0 {
			continue
		}
		points = append(points, models.PricePoint{
			Date:   date,
			Open:   float64(bar.Open),
			High:   float64(bar.High),
			Low:    float64(bar.Low),
			Close:  float64(bar.Close),
			Volume: int64(bar.Volume),
		})
	}

	sort.SliceStable(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}

// realTimeResponse represents the API response for a live quote
type realTimeResponse struct {
	Code          string      `json:"code"`
	Timestamp     flexFloat64 `json:"timestamp"`
	Open          flexFloat64 `json:"open"`
	High          flexFloat64 `json:"high"`
	Low           flexFloat64 `json:"low"`
	Close         flexFloat64 `json:"close"`
	Volume        flexFloat64 `json:"volume"`
	PreviousClose flexFloat64 `json:"previousClose"`
	Change        flexFloat64 `json:"change"`
	ChangePct     flexFloat64 `json:"change_p"`
}

// fundamentalsResponse holds the fundamentals fields used for quotes
type fundamentalsResponse struct {
	Highlights struct {
		MarketCapitalization flexFloat64 `json:"MarketCapitalization"`
	} `json:"Highlights"`
	Technicals struct {
		Beta         flexFloat64 `json:"Beta"`
		WeekHigh52   flexFloat64 `json:"52WeekHigh"`
		WeekLow52    flexFloat64 `json:"52WeekLow"`
		ShortPercent flexFloat64 `json:"ShortPercent"` // fraction of float
	} `json:"Technicals"`
	Earnings struct {
		History map[string]struct {
			ReportDate string `json:"reportDate"`
		} `json:"History"`
	} `json:"Earnings"`
}

// GetQuote returns a live quote enriched with fundamentals. The price is
// required; fundamentals and average volume are best effort and left absent
// when their requests fail.
func (c *Client) GetQuote(ctx context.Context, ticker string) (*models.Quote, error) {
	sym := c.symbol(ticker)

	var rt realTimeResponse
	if err := c.get(ctx, "/real-time/"+sym, nil, &rt); err != nil {
		return nil, err
	}
	if rt.Close <= 0 {
		return nil, fmt.Errorf("no price in real-time quote for %s", sym)
	}

	raw := models.RawQuote{
		Ticker:        strings.ToUpper(ticker),
		Price:         float64(rt.Close),
		PreviousClose: float64(rt.PreviousClose),
		DayChange:     float64(rt.Change),
		DayChangePct:  float64(rt.ChangePct),
		Timestamp:     c.now().UTC(),
	}
	if rt.Timestamp > 0 {
		raw.Timestamp = time.Unix(int64(rt.Timestamp), 0).UTC()
	}

	var fund fundamentalsResponse
	if err := c.get(ctx, "/fundamentals/"+sym, nil, &fund); err != nil {
		c.logger.Warn().Str("ticker", sym).Err(err).Msg("Fundamentals unavailable for quote")
	} else {
		raw.MarketCap = float64(fund.Highlights.MarketCapitalization)
		raw.Beta = float64(fund.Technicals.Beta)
		raw.FiftyTwoWeekHigh = float64(fund.Technicals.WeekHigh52)
		raw.FiftyTwoWeekLow = float64(fund.Technicals.WeekLow52)
		raw.ShortPercentOfFloat = float64(fund.Technicals.ShortPercent) * 100
		raw.NextEarningsDate = nextReportDate(fund, c.now().UTC())
	}

	if avg, err := c.averageVolume(ctx, ticker); err != nil {
		c.logger.Debug().Str("ticker", sym).Err(err).Msg("Average volume unavailable")
	} else {
		raw.AverageVolume = avg
	}

	q := models.NewQuote(raw)
	return &q, nil
}

// averageVolume is the mean volume over the trailing sessions
func (c *Client) averageVolume(ctx context.Context, ticker string) (float64, error) {
	to := c.now().UTC()
	// Calendar window wide enough to cover the sessions across holidays
	from := to.AddDate(0, 0, -averageVolumeSessions*2)

	points, err := c.GetHistoricalData(ctx, ticker, from, to)
	if err != nil {
		return 0, err
	}
	if len(points) > averageVolumeSessions {
		points = points[len(points)-averageVolumeSessions:]
	}

	var sum float64
	var n int
	for _, p := range points {
		if p.Volume > 0 {
			sum += float64(p.Volume)
			n++
		}
	}
	if n == 0 {
		return 0, fmt.Errorf("no volume data")
	}
	return sum / float64(n), nil
}

// nextReportDate returns the earliest earnings report on or after today
func nextReportDate(fund fundamentalsResponse, now time.Time) string {
	today := now.Format(dateLayout)
	next := ""
	for _, e := range fund.Earnings.History {
		if e.ReportDate == "" || e.ReportDate < today {
			continue
		}
		if next == "" || e.ReportDate < next {
			next = e.ReportDate
		}
	}
	return next
}

// Ensure Client implements MarketDataClient
var _ interfaces.MarketDataClient = (*Client)(nil)
