package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bobmcallan/alin/internal/common"
	"github.com/bobmcallan/alin/internal/services/commentary"
	"github.com/bobmcallan/alin/internal/services/portfolio"
	"github.com/bobmcallan/alin/internal/signals"
)

const dateLayout = "2006-01-02"

// defaultRangeDays is the history window used when no from date is given
const defaultRangeDays = 90

// handleHealth reports liveness and storage reachability.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{"status": "ok", "storage": "ok"}
	if err := s.app.Store.Ping(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Health check: storage unreachable")
		status["status"] = "degraded"
		status["storage"] = "unreachable"
	}
	WriteJSON(w, http.StatusOK, status)
}

// handleVersion returns build information.
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}

// writeServiceError maps service errors onto HTTP status codes.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, portfolio.ErrPortfolioNotFound), errors.Is(err, portfolio.ErrHoldingNotFound):
		WriteError(w, http.StatusNotFound, err.Error(), CodeNotFound)
	case errors.Is(err, portfolio.ErrInvalidHolding):
		WriteError(w, http.StatusBadRequest, err.Error(), CodeValidation)
	case errors.Is(err, portfolio.ErrQuoteFailed):
		WriteError(w, http.StatusBadGateway, err.Error(), CodeUpstream)
	case errors.Is(err, signals.ErrInsufficientHistory):
		WriteError(w, http.StatusUnprocessableEntity, err.Error(), CodeInsufficient)
	case errors.Is(err, commentary.ErrNoProvider):
		WriteError(w, http.StatusServiceUnavailable, err.Error(), CodeUnavailable)
	case errors.Is(err, context.DeadlineExceeded):
		WriteError(w, http.StatusGatewayTimeout, "Request timed out", CodeUpstream)
	default:
		s.logger.Error().Err(err).Msg("Request failed")
		WriteError(w, http.StatusInternalServerError, err.Error(), CodeInternal)
	}
}

// parseDateRange reads from/to query parameters. to defaults to today and
// from to defaultRangeDays before to.
func (s *Server) parseDateRange(r *http.Request) (time.Time, time.Time, error) {
	q := r.URL.Query()

	end := s.now().UTC().Truncate(24 * time.Hour)
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("to must be YYYY-MM-DD")
		}
		end = t
	}

	start := end.AddDate(0, 0, -defaultRangeDays)
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return time.Time{}, time.Time{}, errors.New("from must be YYYY-MM-DD")
		}
		start = t
	}

	if end.Before(start) {
		return time.Time{}, time.Time{}, errors.New("to must not be before from")
	}
	return start, end, nil
}
