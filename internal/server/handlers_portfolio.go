package server

import (
	"net/http"

	"github.com/bobmcallan/alin/internal/models"
)

// holdingRequest is the body of POST /api/portfolios/{id}/holdings
type holdingRequest struct {
	Ticker    string   `json:"ticker" validate:"required,max=12"`
	Name      string   `json:"name" validate:"max=120"`
	Category  string   `json:"category" validate:"omitempty,oneof=ai_compute semiconductors cloud_software energy_infrastructure robotics data_networking"`
	Shares    float64  `json:"shares" validate:"gt=0"`
	CostBasis *float64 `json:"cost_basis" validate:"omitempty,gt=0"`
}

// sharesRequest is the body of PUT /api/portfolios/{id}/holdings/{ticker}
type sharesRequest struct {
	Shares float64 `json:"shares" validate:"gt=0"`
}

// handlePortfolioGet returns a stored portfolio, priced when price=true.
func (s *Server) handlePortfolioGet(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	if r.URL.Query().Get("price") == "true" {
		priced, err := s.app.PortfolioService.PricePortfolio(r.Context(), id)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, priced)
		return
	}

	p, err := s.app.PortfolioService.GetPortfolio(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

// handleHoldingAdd adds shares of a ticker, creating the portfolio on first use.
func (s *Server) handleHoldingAdd(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	if id == models.PublicPortfolioID {
		WriteError(w, http.StatusForbidden, "the public portfolio is read-only", CodeReadOnly)
		return
	}

	var req holdingRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	p, err := s.app.PortfolioService.AddHolding(r.Context(), id, models.Holding{
		Ticker:    req.Ticker,
		Name:      req.Name,
		Category:  models.Category(req.Category),
		Shares:    req.Shares,
		CostBasis: req.CostBasis,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, p)
}

// handleHolding updates or removes a single holding.
func (s *Server) handleHolding(w http.ResponseWriter, r *http.Request, id, ticker string) {
	if !RequireMethod(w, r, http.MethodPut, http.MethodDelete) {
		return
	}
	if id == models.PublicPortfolioID {
		WriteError(w, http.StatusForbidden, "the public portfolio is read-only", CodeReadOnly)
		return
	}

	if r.Method == http.MethodDelete {
		p, err := s.app.PortfolioService.RemoveHolding(r.Context(), id, ticker)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, p)
		return
	}

	var req sharesRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	p, err := s.app.PortfolioService.UpdateShares(r.Context(), id, ticker, req.Shares)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

// handlePortfolioInsights returns alerts, opportunities and health.
func (s *Server) handlePortfolioInsights(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	s.writeInsights(w, r, id)
}

// handlePortfolioAggregate merges a personal portfolio with $ALIN.
func (s *Server) handlePortfolioAggregate(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	agg, err := s.app.PortfolioService.AggregateForUser(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, agg)
}

func (s *Server) writeInsights(w http.ResponseWriter, r *http.Request, id string) {
	insights, err := s.app.InsightService.PortfolioInsights(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, insights)
}
