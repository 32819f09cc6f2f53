package web

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/moridelogica/backoffice/internal/domain"
	"github.com/moridelogica/backoffice/internal/users"
)

type createUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

type updateUserRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// handleListUsers returns all staff profiles. The initial password column
// is only included for admin callers.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	profile, _ := profileFrom(r.Context())

	list, err := s.users.List(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	out := make([]userJSON, 0, len(list))
	for _, u := range list {
		out = append(out, toUserJSON(u, profile.IsAdmin()))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleCreateUser registers a new staff account and profile.
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	profile, _ := profileFrom(r.Context())
	created, err := s.users.Create(r.Context(), users.CreateInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserJSON(created, profile.IsAdmin()))
}

// handleUpdateUser replaces a staff profile's editable fields.
func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	profile, _ := profileFrom(r.Context())
	updated, err := s.users.Update(r.Context(), chi.URLParam(r, "id"), users.UpdateInput{
		Email: req.Email,
		Name:  req.Name,
		Role:  domain.Role(req.Role),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserJSON(updated, profile.IsAdmin()))
}

// handleDeleteUser removes a staff account and profile. Admin only.
func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	profile, _ := profileFrom(r.Context())
	if err := s.users.Delete(r.Context(), profile, chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
