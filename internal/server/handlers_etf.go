package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/bobmcallan/alin/internal/models"
	"github.com/bobmcallan/alin/internal/services/valuation"
)

// defaultBenchmarks are compared against $ALIN when no tickers are given
var defaultBenchmarks = []string{"SPY", "QQQ", "SMH"}

const maxBenchmarks = 10

// handleETF returns the public portfolio priced at live quotes.
func (s *Server) handleETF(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	priced, err := s.app.PortfolioService.PricePortfolio(r.Context(), models.PublicPortfolioID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	alloc := s.app.ValuationService.Allocation()
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"portfolio":             priced,
		"inception_date":        alloc.InceptionDate.Format(dateLayout),
		"index_inception_price": alloc.IndexInceptionPrice,
		"allocation":            alloc.Entries,
	})
}

// handleETFHistory handles GET /api/etf/history?from&to
func (s *Server) handleETFHistory(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	start, end, err := s.parseDateRange(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error(), CodeBadRequest)
		return
	}

	points, err := s.etfHistory(r.Context(), start, end)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"from":   start.Format(dateLayout),
		"to":     end.Format(dateLayout),
		"points": points,
	})
}

// handleETFChart renders the index close over the range as a PNG.
func (s *Server) handleETFChart(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	start, end, err := s.parseDateRange(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error(), CodeBadRequest)
		return
	}

	points, err := s.etfHistory(r.Context(), start, end)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	png, err := valuation.RenderIndexChart(points)
	if err != nil {
		WriteError(w, http.StatusUnprocessableEntity, err.Error(), CodeInsufficient)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// handleETFBenchmarks handles GET /api/etf/benchmarks?tickers=SPY,QQQ&from&to.
// The index and every benchmark are returned as percent return over the
// range; benchmarks that fail to load are listed under "failed".
func (s *Server) handleETFBenchmarks(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	start, end, err := s.parseDateRange(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error(), CodeBadRequest)
		return
	}

	tickers := defaultBenchmarks
	if raw := r.URL.Query().Get("tickers"); raw != "" {
		tickers = nil
		for _, t := range strings.Split(raw, ",") {
			if t = strings.ToUpper(strings.TrimSpace(t)); t != "" {
				tickers = append(tickers, t)
			}
		}
	}
	if len(tickers) > maxBenchmarks {
		WriteError(w, http.StatusBadRequest, "at most 10 benchmark tickers are allowed", CodeBadRequest)
		return
	}

	points, err := s.etfHistory(r.Context(), start, end)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	series, failed, err := s.app.ValuationService.CompareBenchmarks(r.Context(), tickers, start, end)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if failed == nil {
		failed = []string{}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"from":       start.Format(dateLayout),
		"to":         end.Format(dateLayout),
		"etf":        valuation.NormalizeToReturn(points),
		"benchmarks": series,
		"failed":     failed,
	})
}

// handleETFInsights returns insights for the public portfolio.
func (s *Server) handleETFInsights(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	s.writeInsights(w, r, models.PublicPortfolioID)
}

// etfHistory serves the synthetic index from the response cache, computing
// it on a miss. Failures are not cached.
func (s *Server) etfHistory(ctx context.Context, start, end time.Time) ([]models.PricePoint, error) {
	key := start.Format(dateLayout) + "|" + end.Format(dateLayout)
	if points, ok := s.history.Get(key); ok {
		return points, nil
	}

	points, err := s.app.ValuationService.CalculateHistoricalETFPrices(ctx, start, end)
	if err != nil {
		return nil, err
	}
	s.history.Set(key, points, s.app.Config.Cache.GetHistoryTTL())
	return points, nil
}
