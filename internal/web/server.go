// Package web provides the HTTP server and JSON handlers for the back
// office.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/moridelogica/backoffice/internal/auth"
	"github.com/moridelogica/backoffice/internal/config"
	"github.com/moridelogica/backoffice/internal/domain"
	"github.com/moridelogica/backoffice/internal/exchange"
	"github.com/moridelogica/backoffice/internal/locations"
	"github.com/moridelogica/backoffice/internal/records"
	"github.com/moridelogica/backoffice/internal/stats"
	"github.com/moridelogica/backoffice/internal/store"
	"github.com/moridelogica/backoffice/internal/users"
)

// Server is the HTTP server for the back-office API.
type Server struct {
	cfg       *config.Config
	provider  auth.Provider
	records   *records.Service
	importer  *exchange.Importer
	locations *locations.Service
	users     *users.Service
	stats     *stats.Service

	router *chi.Mux
	server *http.Server

	// now supplies the clock for export filenames; swapped in tests.
	now func() time.Time
}

// NewServer creates a new Server instance.
func NewServer(
	cfg *config.Config,
	provider auth.Provider,
	recordSvc *records.Service,
	importer *exchange.Importer,
	locationSvc *locations.Service,
	userSvc *users.Service,
	statsSvc *stats.Service,
) *Server {
	s := &Server{
		cfg:       cfg,
		provider:  provider,
		records:   recordSvc,
		importer:  importer,
		locations: locationSvc,
		users:     userSvc,
		stats:     statsSvc,
		router:    chi.NewRouter(),
		now:       time.Now,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))

	s.router.Use(securityHeaders)

	if s.cfg.Rate.Enabled {
		limiter := newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute)
		s.router.Use(limiter.middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Unauthenticated
		r.Post("/login", s.handleLogin)
		r.Post("/password-reset", s.handlePasswordReset)

		// Everything else requires a session
		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)

			r.Post("/logout", s.handleLogout)
			r.Get("/me", s.handleMe)

			r.Get("/stats", s.handleStats)

			r.Get("/records", s.handleListRecords)
			r.Post("/records", s.handleCreateRecord)
			r.Get("/records/export", s.handleExportRecords)
			r.Post("/records/import", s.handleImportRecords)
			r.Get("/records/{id}", s.handleGetRecord)
			r.Put("/records/{id}", s.handleUpdateRecord)
			r.Delete("/records/{id}", s.handleDeleteRecord)

			r.Get("/locations", s.handleListLocations)
			r.Post("/locations", s.handleAddLocation)
			r.Delete("/locations/{id}", s.handleDeleteLocation)

			r.Get("/users", s.handleListUsers)
			r.Post("/users", s.handleCreateUser)
			r.Put("/users/{id}", s.handleUpdateUser)
			r.Delete("/users/{id}", s.handleDeleteUser)
		})
	})
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// rateLimiter implements a simple token bucket rate limiter per IP.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int           // requests per window
	window   time.Duration // time window
}

type visitor struct {
	tokens    int
	lastReset time.Time
}

// newRateLimiter creates a rate limiter with the specified rate per window.
func newRateLimiter(rate int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
	}
	go rl.cleanup()
	return rl
}

// cleanup removes stale visitor entries every minute.
func (rl *rateLimiter) cleanup() {
	for {
		time.Sleep(time.Minute)
		rl.mu.Lock()
		for ip, v := range rl.visitors {
			if time.Since(v.lastReset) > rl.window*2 {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// allow checks if the request should be allowed and consumes a token if so.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		rl.visitors[ip] = &visitor{
			tokens:    rl.rate - 1,
			lastReset: time.Now(),
		}
		return true
	}

	if time.Since(v.lastReset) > rl.window {
		v.tokens = rl.rate - 1
		v.lastReset = time.Now()
		return true
	}

	if v.tokens <= 0 {
		return false
	}

	v.tokens--
	return true
}

// middleware returns an HTTP middleware that rate limits by IP.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(r.RemoteAddr) {
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeJSON encodes v as JSON with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode", "error", err)
	}
}

// writeServiceError converts a service error to its HTTP response. All
// errors surface to the client as a message; validation and permission
// failures keep their text, everything else is classified by sentinel.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, unwrapMessage(err))
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, unwrapMessage(err))
	case errors.Is(err, store.ErrNotFound), errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrEmailInUse):
		writeError(w, http.StatusBadRequest, auth.UserMessage(err))
	case errors.Is(err, auth.ErrUserNotFound),
		errors.Is(err, auth.ErrWrongPassword),
		errors.Is(err, auth.ErrNoSession):
		writeError(w, http.StatusUnauthorized, auth.UserMessage(err))
	case errors.Is(err, auth.ErrNetwork):
		writeError(w, http.StatusBadGateway, auth.UserMessage(err))
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// unwrapMessage extracts the human-readable part from a wrapped sentinel
// error, e.g. "users: create: validation error: name is required" →
// "name is required".
func unwrapMessage(err error) string {
	msg := err.Error()
	for _, sentinel := range []string{
		domain.ErrValidation.Error() + ": ",
		domain.ErrForbidden.Error() + ": ",
	} {
		if i := strings.Index(msg, sentinel); i >= 0 {
			return msg[i+len(sentinel):]
		}
	}
	return msg
}
