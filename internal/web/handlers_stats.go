package web

import "net/http"

// handleStats returns the dashboard overview counts and the monthly
// record series.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	overview, err := s.stats.Fetch(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}
