package server

import (
	"net/http"
	"strings"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)

	// $ALIN fund
	mux.HandleFunc("/api/etf", s.handleETF)
	mux.HandleFunc("/api/etf/history", s.handleETFHistory)
	mux.HandleFunc("/api/etf/chart.png", s.handleETFChart)
	mux.HandleFunc("/api/etf/benchmarks", s.handleETFBenchmarks)
	mux.HandleFunc("/api/etf/insights", s.handleETFInsights)

	// Portfolios
	mux.HandleFunc("/api/portfolios/", s.routePortfolios)

	// Signals and metrics
	mux.HandleFunc("/api/signals", s.handleSignals)
	mux.HandleFunc("/api/metrics/", s.handleMetrics)

	// Commentary
	mux.HandleFunc("/api/commentary/", s.handleCommentary)

	// Curated content
	mux.HandleFunc("/api/collections", s.handleCollectionList)
	mux.HandleFunc("/api/collections/", s.handleCollection)
	mux.HandleFunc("/api/thesis", s.handleThesis)
}

// routePortfolios dispatches /api/portfolios/{id}/* to the appropriate handler.
func (s *Server) routePortfolios(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/portfolios/"), "/")
	if path == "" {
		WriteError(w, http.StatusBadRequest, "portfolio id is required in path", CodeBadRequest)
		return
	}

	parts := strings.Split(path, "/")
	id := parts[0]

	switch {
	case len(parts) == 1:
		s.handlePortfolioGet(w, r, id)
	case len(parts) == 2 && parts[1] == "holdings":
		s.handleHoldingAdd(w, r, id)
	case len(parts) == 3 && parts[1] == "holdings":
		s.handleHolding(w, r, id, parts[2])
	case len(parts) == 2 && parts[1] == "insights":
		s.handlePortfolioInsights(w, r, id)
	case len(parts) == 2 && parts[1] == "aggregate":
		s.handlePortfolioAggregate(w, r, id)
	default:
		WriteError(w, http.StatusNotFound, "Not found", CodeNotFound)
	}
}
