package web

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type addLocationRequest struct {
	Name string `json:"name"`
}

// handleListLocations returns all warehouse locations.
func (s *Server) handleListLocations(w http.ResponseWriter, r *http.Request) {
	list, err := s.locations.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]locationJSON, 0, len(list))
	for _, l := range list {
		out = append(out, toLocationJSON(l))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleAddLocation creates a new warehouse location.
func (s *Server) handleAddLocation(w http.ResponseWriter, r *http.Request) {
	var req addLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	loc, err := s.locations.Add(r.Context(), req.Name)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toLocationJSON(loc))
}

// handleDeleteLocation removes a warehouse location.
func (s *Server) handleDeleteLocation(w http.ResponseWriter, r *http.Request) {
	if err := s.locations.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
