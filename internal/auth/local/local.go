// Package local implements auth.Provider on the accounts table: bcrypt
// password hashes in Postgres, bearer session tokens held in memory. A
// restart therefore signs everyone out, which is acceptable for a
// single-tenant back office.
package local

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/moridelogica/backoffice/internal/auth"
	"github.com/moridelogica/backoffice/internal/store/postgres"
)

// MinPasswordLen matches the advisory minimum the interface enforces.
const MinPasswordLen = 6

// uniqueViolation is the Postgres error code for duplicate keys.
const uniqueViolation = "23505"

// Provider is the local authentication backend.
type Provider struct {
	db         postgres.DBTX
	sessionTTL time.Duration

	mu       sync.Mutex
	sessions map[string]session
}

type session struct {
	user      auth.User
	expiresAt time.Time
}

// New creates a Provider backed by the given database handle.
func New(db postgres.DBTX, sessionTTL time.Duration) *Provider {
	return &Provider{
		db:         db,
		sessionTTL: sessionTTL,
		sessions:   make(map[string]session),
	}
}

var _ auth.Provider = (*Provider)(nil)

// SignIn implements auth.Provider.
func (p *Provider) SignIn(ctx context.Context, email, password string) (auth.Session, error) {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return auth.Session{}, auth.ErrInvalidEmail
	}

	var uid, hash string
	err := p.db.QueryRow(ctx, `
		SELECT uid, password_hash FROM accounts WHERE email = $1
	`, email).Scan(&uid, &hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return auth.Session{}, auth.ErrUserNotFound
	}
	if err != nil {
		return auth.Session{}, fmt.Errorf("%w: %v", auth.ErrNetwork, err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return auth.Session{}, auth.ErrWrongPassword
	}

	user := auth.User{UID: uid, Email: email}
	token := uuid.NewString()

	p.mu.Lock()
	p.pruneLocked()
	p.sessions[token] = session{user: user, expiresAt: time.Now().Add(p.sessionTTL)}
	p.mu.Unlock()

	return auth.Session{Token: token, User: user}, nil
}

// SignOut implements auth.Provider.
func (p *Provider) SignOut(_ context.Context, token string) error {
	p.mu.Lock()
	delete(p.sessions, token)
	p.mu.Unlock()
	return nil
}

// CurrentUser implements auth.Provider.
func (p *Provider) CurrentUser(_ context.Context, token string) (auth.User, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.sessions[token]
	if !ok || time.Now().After(s.expiresAt) {
		delete(p.sessions, token)
		return auth.User{}, auth.ErrNoSession
	}
	return s.user, nil
}

// CreateAccount implements auth.Provider.
func (p *Provider) CreateAccount(ctx context.Context, email, password string) (auth.User, error) {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return auth.User{}, auth.ErrInvalidEmail
	}
	if len(password) < MinPasswordLen {
		return auth.User{}, auth.ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return auth.User{}, fmt.Errorf("auth: hash password: %w", err)
	}

	uid := uuid.NewString()
	_, err = p.db.Exec(ctx, `
		INSERT INTO accounts (uid, email, password_hash) VALUES ($1, $2, $3)
	`, uid, email, string(hash))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return auth.User{}, auth.ErrEmailInUse
		}
		return auth.User{}, fmt.Errorf("%w: %v", auth.ErrNetwork, err)
	}

	return auth.User{UID: uid, Email: email}, nil
}

// SendPasswordReset implements auth.Provider. There is no mailer wired up;
// the reset token is generated and logged so an operator can hand it over
// out of band.
func (p *Provider) SendPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return auth.ErrInvalidEmail
	}

	var uid string
	err := p.db.QueryRow(ctx, `SELECT uid FROM accounts WHERE email = $1`, email).Scan(&uid)
	if errors.Is(err, pgx.ErrNoRows) {
		return auth.ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: %v", auth.ErrNetwork, err)
	}

	slog.Info("password reset requested", "uid", uid, "reset_token", uuid.NewString())
	return nil
}

// DeleteAccount implements auth.Provider.
func (p *Provider) DeleteAccount(ctx context.Context, uid string) error {
	if _, err := p.db.Exec(ctx, `DELETE FROM accounts WHERE uid = $1`, uid); err != nil {
		return fmt.Errorf("%w: %v", auth.ErrNetwork, err)
	}

	p.mu.Lock()
	for token, s := range p.sessions {
		if s.user.UID == uid {
			delete(p.sessions, token)
		}
	}
	p.mu.Unlock()
	return nil
}

// pruneLocked drops expired sessions. Caller holds the mutex.
func (p *Provider) pruneLocked() {
	now := time.Now()
	for token, s := range p.sessions {
		if now.After(s.expiresAt) {
			delete(p.sessions, token)
		}
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	if email == "" {
		return false
	}
	_, err := mail.ParseAddress(email)
	return err == nil
}
