package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/moridelogica/backoffice/internal/auth"
	"github.com/moridelogica/backoffice/internal/domain"
	"github.com/moridelogica/backoffice/internal/store"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string   `json:"token"`
	User  userJSON `json:"user"`
}

// handleLogin signs in with email and password and returns a bearer token
// plus the caller's profile.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	session, err := s.provider.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	profile, err := s.users.Get(r.Context(), session.User.UID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) && !errors.Is(err, domain.ErrNotFound) {
			writeServiceError(w, err)
			return
		}
		profile = domain.UserProfile{
			UID:   session.User.UID,
			Email: session.User.Email,
			Role:  domain.RoleWarehouseStaff,
		}
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token: session.Token,
		User:  toUserJSON(profile, profile.IsAdmin()),
	})
}

// handleLogout invalidates the caller's session token.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.provider.SignOut(r.Context(), bearerToken(r)); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "signed out"})
}

// handleMe returns the authenticated user's profile.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	profile, ok := profileFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, auth.UserMessage(auth.ErrNoSession))
		return
	}
	writeJSON(w, http.StatusOK, toUserJSON(profile, profile.IsAdmin()))
}

type passwordResetRequest struct {
	Email string `json:"email"`
}

// handlePasswordReset starts a password reset for the given email. The
// response message matches what the sign-in screen shows.
func (s *Server) handlePasswordReset(w http.ResponseWriter, r *http.Request) {
	var req passwordResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "Please enter your email address first.")
		return
	}

	if err := s.provider.SendPasswordReset(r.Context(), req.Email); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Password reset email sent! Check your inbox.",
	})
}
