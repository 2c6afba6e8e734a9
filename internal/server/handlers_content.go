package server

import (
	"net/http"
	"strconv"
)

// handleCommentary handles POST /api/commentary/{portfolioID}?refresh=true
func (s *Server) handleCommentary(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	id := PathParam(r, "/api/commentary/", "")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "portfolio id is required in path", CodeBadRequest)
		return
	}

	refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))

	c, err := s.app.CommentaryService.Generate(r.Context(), id, refresh)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, c)
}

// handleCollectionList returns every curated collection.
func (s *Server) handleCollectionList(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, s.app.Seed.Collections)
}

// handleCollection returns one collection by slug.
func (s *Server) handleCollection(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	slug := PathParam(r, "/api/collections/", "")
	c, ok := s.app.Seed.Collection(slug)
	if !ok {
		WriteError(w, http.StatusNotFound, "collection not found: "+slug, CodeNotFound)
		return
	}
	WriteJSON(w, http.StatusOK, c)
}

// handleThesis returns the fund thesis.
func (s *Server) handleThesis(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, s.app.Seed.Thesis)
}
