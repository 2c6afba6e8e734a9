package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/alin/internal/app"
	"github.com/bobmcallan/alin/internal/common"
	"github.com/bobmcallan/alin/internal/interfaces"
	"github.com/bobmcallan/alin/internal/models"
	"github.com/bobmcallan/alin/internal/storage/memory"
)

type fakeMarket struct {
	mu             sync.Mutex
	failingQuotes  map[string]bool
	failingHistory map[string]bool
	historyCalls   int
}

func (f *fakeMarket) GetHistoricalData(ctx context.Context, ticker string, from, to time.Time) ([]models.PricePoint, error) {
	f.mu.Lock()
	f.historyCalls++
	f.mu.Unlock()
	if f.failingHistory[ticker] {
		return nil, errors.New("provider unavailable")
	}
	var points []models.PricePoint
	price := 100.0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		points = append(points, models.PricePoint{Date: d, Open: price, High: price + 1, Low: price - 1, Close: price, Volume: 1000})
		price++
	}
	return points, nil
}

func (f *fakeMarket) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.historyCalls
}

func (f *fakeMarket) GetQuote(ctx context.Context, ticker string) (*models.Quote, error) {
	if f.failingQuotes[ticker] {
		return nil, errors.New("provider unavailable")
	}
	return &models.Quote{Price: 110, DayChangePct: 1, MarketCap: models.Float(5e11), Beta: models.Float(1.1)}, nil
}

type fakeLLM struct{}

func (fakeLLM) Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	return "Steady week for the fund.", nil
}

func (fakeLLM) Provider() string { return "fake" }

func newTestServer(t *testing.T, market *fakeMarket, llm interfaces.LLMClient) *Server {
	t.Helper()
	config := common.NewDefaultConfig()
	config.Storage.Backend = common.BackendMemory

	a, err := app.Build(context.Background(), config, common.NewSilentLogger(), memory.NewStore(), market, llm)
	require.NoError(t, err)
	t.Cleanup(a.Close)

	s := NewServer(a, nil)
	s.now = func() time.Time { return time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	decode(t, rec, &resp)
	assert.NotEmpty(t, resp.Error)
	return resp.Code
}

func TestHealthAndVersion(t *testing.T) {
	s := newTestServer(t, &fakeMarket{}, nil)

	rec := do(t, s, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var health map[string]string
	decode(t, rec, &health)
	assert.Equal(t, "ok", health["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))

	rec = do(t, s, http.MethodGet, "/api/version", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var version map[string]string
	decode(t, rec, &version)
	assert.Equal(t, common.GetVersion(), version["version"])

	rec = do(t, s, http.MethodPost, "/api/health", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, CodeMethod, errorCode(t, rec))
}

func TestCorrelationIDIsEchoed(t *testing.T) {
	s := newTestServer(t, &fakeMarket{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	req.Header.Set("X-Request-ID", "abc123")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "abc123", rec.Header().Get("X-Correlation-ID"))
}

func TestETFHistory_CachedByRange(t *testing.T) {
	market := &fakeMarket{}
	s := newTestServer(t, market, nil)

	rec := do(t, s, http.MethodGet, "/api/etf/history?from=2025-01-02&to=2025-01-10", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		From   string              `json:"from"`
		To     string              `json:"to"`
		Points []models.PricePoint `json:"points"`
	}
	decode(t, rec, &body)
	assert.Equal(t, "2025-01-02", body.From)
	require.Len(t, body.Points, 9)
	assert.Greater(t, body.Points[0].Close, 0.0)

	calls := market.calls()
	rec = do(t, s, http.MethodGet, "/api/etf/history?from=2025-01-02&to=2025-01-10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, calls, market.calls(), "second request is served from cache")
}

func TestETFHistory_BadRange(t *testing.T) {
	s := newTestServer(t, &fakeMarket{}, nil)

	rec := do(t, s, http.MethodGet, "/api/etf/history?from=2025/01/02", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeBadRequest, errorCode(t, rec))

	rec = do(t, s, http.MethodGet, "/api/etf/history?from=2025-02-01&to=2025-01-01", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestETFChart(t *testing.T) {
	s := newTestServer(t, &fakeMarket{}, nil)

	rec := do(t, s, http.MethodGet, "/api/etf/chart.png?from=2025-01-02&to=2025-02-01", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "\x89PNG"))

	rec = do(t, s, http.MethodGet, "/api/etf/chart.png?from=2025-01-02&to=2025-01-02", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestETFBenchmarks_FailedListed(t *testing.T) {
	s := newTestServer(t, &fakeMarket{failingHistory: map[string]bool{"QQQ": true}}, nil)

	rec := do(t, s, http.MethodGet, "/api/etf/benchmarks?tickers=spy,qqq&from=2025-01-02&to=2025-01-10", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		ETF        []models.PricePoint            `json:"etf"`
		Benchmarks map[string][]models.PricePoint `json:"benchmarks"`
		Failed     []string                       `json:"failed"`
	}
	decode(t, rec, &body)
	assert.Equal(t, []string{"QQQ"}, body.Failed)
	require.Contains(t, body.Benchmarks, "SPY")
	assert.Equal(t, 0.0, body.Benchmarks["SPY"][0].Close)
	require.NotEmpty(t, body.ETF)
	assert.Equal(t, 0.0, body.ETF[0].Close)
}

func TestETF_QuoteFailureIsBadGateway(t *testing.T) {
	s := newTestServer(t, &fakeMarket{failingQuotes: map[string]bool{"NVDA": true}}, nil)

	rec := do(t, s, http.MethodGet, "/api/etf", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, CodeUpstream, errorCode(t, rec))
}

func TestETF_Priced(t *testing.T) {
	s := newTestServer(t, &fakeMarket{}, nil)

	rec := do(t, s, http.MethodGet, "/api/etf", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Portfolio     models.PricedPortfolio `json:"portfolio"`
		InceptionDate string                 `json:"inception_date"`
	}
	decode(t, rec, &body)
	assert.Equal(t, "2025-01-02", body.InceptionDate)
	assert.NotEmpty(t, body.Portfolio.Holdings)
	assert.Greater(t, body.Portfolio.Summary.TotalValue, 0.0)
}

func TestPortfolioHoldingsLifecycle(t *testing.T) {
	s := newTestServer(t, &fakeMarket{}, nil)

	rec := do(t, s, http.MethodGet, "/api/portfolios/me", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, CodeNotFound, errorCode(t, rec))

	rec = do(t, s, http.MethodPost, "/api/portfolios/me/holdings", `{"ticker":"nvda","shares":10,"cost_basis":100,"category":"ai_compute"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, s, http.MethodPost, "/api/portfolios/me/holdings", `{"ticker":"NVDA","shares":10,"cost_basis":120}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var p models.Portfolio
	decode(t, rec, &p)
	require.Contains(t, p.Holdings, "NVDA")
	assert.Equal(t, 20.0, p.Holdings["NVDA"].Shares)
	assert.InDelta(t, 110.0, *p.Holdings["NVDA"].CostBasis, 1e-9)

	rec = do(t, s, http.MethodPut, "/api/portfolios/me/holdings/nvda", `{"shares":5}`)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &p)
	assert.Equal(t, 5.0, p.Holdings["NVDA"].Shares)

	rec = do(t, s, http.MethodGet, "/api/portfolios/me?price=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var priced models.PricedPortfolio
	decode(t, rec, &priced)
	require.Len(t, priced.Holdings, 1)
	assert.Equal(t, 550.0, priced.Holdings[0].Value)

	rec = do(t, s, http.MethodGet, "/api/portfolios/me/aggregate", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var agg models.AggregatedPortfolio
	decode(t, rec, &agg)
	assert.Equal(t, []string{"me", models.PublicPortfolioID}, agg.Sources)

	rec = do(t, s, http.MethodDelete, "/api/portfolios/me/holdings/NVDA", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodDelete, "/api/portfolios/me/holdings/NVDA", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPortfolioHoldings_Validation(t *testing.T) {
	s := newTestServer(t, &fakeMarket{}, nil)

	rec := do(t, s, http.MethodPost, "/api/portfolios/me/holdings", `{"ticker":"NVDA","shares":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeValidation, errorCode(t, rec))

	rec = do(t, s, http.MethodPost, "/api/portfolios/me/holdings", `{"ticker":"NVDA","shares":1,"category":"crypto"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/portfolios/me/holdings", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeBadRequest, errorCode(t, rec))

	rec = do(t, s, http.MethodPost, "/api/portfolios/alin/holdings", `{"ticker":"NVDA","shares":1}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, CodeReadOnly, errorCode(t, rec))

	rec = do(t, s, http.MethodGet, "/api/portfolios/me/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInsightsEndpoints(t *testing.T) {
	s := newTestServer(t, &fakeMarket{}, nil)

	rec := do(t, s, http.MethodGet, "/api/etf/insights", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var insights models.Insights
	decode(t, rec, &insights)
	assert.NotNil(t, insights.Alerts)
	assert.NotEmpty(t, insights.Health.Bucket)

	rec = do(t, s, http.MethodGet, "/api/portfolios/ghost/insights", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSignals(t *testing.T) {
	s := newTestServer(t, &fakeMarket{failingHistory: map[string]bool{"AMD": true}}, nil)

	rec := do(t, s, http.MethodPost, "/api/signals", `{"tickers":["nvda","AMD"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result models.SignalsResult
	decode(t, rec, &result)
	require.Len(t, result.Signals, 1)
	assert.Equal(t, "NVDA", result.Signals[0].Ticker)
	assert.Contains(t, result.Errors, "AMD")

	rec = do(t, s, http.MethodPost, "/api/signals", `{"tickers":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/signals", `{"tickers":["../etc"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetrics(t *testing.T) {
	s := newTestServer(t, &fakeMarket{failingQuotes: map[string]bool{"BAD": true}}, nil)

	rec := do(t, s, http.MethodGet, "/api/metrics/nvda", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Ticker  string                 `json:"ticker"`
		Metrics []models.MetricHistory `json:"metrics"`
	}
	decode(t, rec, &body)
	assert.Equal(t, "NVDA", body.Ticker)
	require.Len(t, body.Metrics, len(models.TrackedMetrics))
	assert.Equal(t, models.MetricMarketCap, body.Metrics[0].Metric)
	assert.True(t, body.Metrics[0].BuildingHistory)
	assert.Equal(t, 1, body.Metrics[0].DataPoints)

	rec = do(t, s, http.MethodGet, "/api/metrics/BAD", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/metrics/", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCommentary(t *testing.T) {
	s := newTestServer(t, &fakeMarket{}, fakeLLM{})

	rec := do(t, s, http.MethodPost, "/api/commentary/alin", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var c models.Commentary
	decode(t, rec, &c)
	assert.Equal(t, "Steady week for the fund.", c.Text)
	assert.False(t, c.Cached)

	rec = do(t, s, http.MethodPost, "/api/commentary/alin", "")
	decode(t, rec, &c)
	assert.True(t, c.Cached)

	rec = do(t, s, http.MethodPost, "/api/commentary/alin?refresh=true", "")
	decode(t, rec, &c)
	assert.False(t, c.Cached)
}

func TestCommentary_NoProvider(t *testing.T) {
	s := newTestServer(t, &fakeMarket{}, nil)

	rec := do(t, s, http.MethodPost, "/api/commentary/alin", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, CodeUnavailable, errorCode(t, rec))
}

func TestCollectionsAndThesis(t *testing.T) {
	s := newTestServer(t, &fakeMarket{}, nil)

	rec := do(t, s, http.MethodGet, "/api/collections", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var collections []models.Collection
	decode(t, rec, &collections)
	require.NotEmpty(t, collections)

	rec = do(t, s, http.MethodGet, "/api/collections/"+collections[0].Slug, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var c models.Collection
	decode(t, rec, &c)
	assert.Equal(t, collections[0].Title, c.Title)

	rec = do(t, s, http.MethodGet, "/api/collections/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/thesis", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var thesis models.Thesis
	decode(t, rec, &thesis)
	assert.NotEmpty(t, thesis.Sections)
}

func TestValidateTicker(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"nvda", "NVDA", true},
		{" BRK.B ", "BRK.B", true},
		{"", "", false},
		{"../etc/passwd", "", false},
		{"NV DA", "", false},
		{"ABCDEFGHIJKLM", "", false},
	}
	for _, tt := range tests {
		got, ok := validateTicker(tt.input)
		assert.Equal(t, tt.ok, ok, tt.input)
		if tt.ok {
			assert.Equal(t, tt.want, got)
		}
	}
}
