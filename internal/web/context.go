package web

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/moridelogica/backoffice/internal/auth"
	"github.com/moridelogica/backoffice/internal/domain"
	"github.com/moridelogica/backoffice/internal/store"
)

type contextKey int

const profileKey contextKey = iota

// profileFrom returns the authenticated user's profile from the request
// context. The second return is false outside requireSession.
func profileFrom(ctx context.Context) (domain.UserProfile, bool) {
	p, ok := ctx.Value(profileKey).(domain.UserProfile)
	return p, ok
}

// bearerToken extracts the token from an Authorization: Bearer header.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// requireSession resolves the bearer token to a user profile and stores
// it in the request context. Accounts without a stored profile still get
// through with a minimal warehouse-staff profile, so a half-provisioned
// user can at least sign in and be fixed up by an admin.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, auth.UserMessage(auth.ErrNoSession))
			return
		}

		user, err := s.provider.CurrentUser(r.Context(), token)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		profile, err := s.users.Get(r.Context(), user.UID)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) && !errors.Is(err, domain.ErrNotFound) {
				writeServiceError(w, err)
				return
			}
			profile = domain.UserProfile{
				UID:   user.UID,
				Email: user.Email,
				Role:  domain.RoleWarehouseStaff,
			}
		}

		ctx := context.WithValue(r.Context(), profileKey, profile)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
