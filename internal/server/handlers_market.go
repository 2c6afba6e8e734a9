package server

import (
	"net/http"
	"regexp"
	"strings"
)

// signalsRequest is the body of POST /api/signals
type signalsRequest struct {
	Tickers []string `json:"tickers" validate:"required,min=1,max=50,dive,required,max=12"`
}

var tickerPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9.\-]{0,11}$`)

// validateTicker normalizes a path ticker and rejects anything that is not
// a plain symbol.
func validateTicker(raw string) (string, bool) {
	ticker := strings.ToUpper(strings.TrimSpace(raw))
	return ticker, tickerPattern.MatchString(ticker)
}

// handleSignals generates technical signals for the requested tickers.
func (s *Server) handleSignals(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req signalsRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	tickers := make([]string, 0, len(req.Tickers))
	for _, raw := range req.Tickers {
		ticker, ok := validateTicker(raw)
		if !ok {
			WriteError(w, http.StatusBadRequest, "invalid ticker: "+raw, CodeValidation)
			return
		}
		tickers = append(tickers, ticker)
	}

	result, err := s.app.SignalService.GenerateSignals(r.Context(), tickers)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// handleMetrics handles GET /api/metrics/{ticker}: records today's
// snapshot and returns the trailing-year history of every tracked metric.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	ticker, ok := validateTicker(PathParam(r, "/api/metrics/", ""))
	if !ok {
		WriteError(w, http.StatusBadRequest, "valid ticker is required in path", CodeBadRequest)
		return
	}

	histories, err := s.app.MetricService.TickerMetricHistories(r.Context(), ticker)
	if err != nil {
		WriteError(w, http.StatusBadGateway, err.Error(), CodeUpstream)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"ticker":  ticker,
		"metrics": histories,
	})
}
