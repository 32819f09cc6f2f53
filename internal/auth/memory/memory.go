// Package memory is an in-memory auth.Provider for tests. Passwords are
// kept as-is; nothing here is suitable for production.
package memory

import (
	"context"
	"net/mail"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/moridelogica/backoffice/internal/auth"
)

// Provider holds accounts and sessions in maps.
type Provider struct {
	mu        sync.Mutex
	accounts  map[string]account // keyed by email
	sessions  map[string]auth.User
	ResetSent []string // emails passed to SendPasswordReset, for assertions
}

type account struct {
	uid      string
	password string
}

// New returns an empty provider.
func New() *Provider {
	return &Provider{
		accounts: make(map[string]account),
		sessions: make(map[string]auth.User),
	}
}

var _ auth.Provider = (*Provider)(nil)

// Seed registers an account directly and returns its UID.
func (p *Provider) Seed(email, password string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	uid := uuid.NewString()
	p.accounts[strings.ToLower(email)] = account{uid: uid, password: password}
	return uid
}

// SignIn implements auth.Provider.
func (p *Provider) SignIn(_ context.Context, email, password string) (auth.Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return auth.Session{}, auth.ErrInvalidEmail
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	acct, ok := p.accounts[email]
	if !ok {
		return auth.Session{}, auth.ErrUserNotFound
	}
	if acct.password != password {
		return auth.Session{}, auth.ErrWrongPassword
	}

	user := auth.User{UID: acct.uid, Email: email}
	token := uuid.NewString()
	p.sessions[token] = user
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
	user, ok := p.sessions[token]
	if !ok {
		return auth.User{}, auth.ErrNoSession
	}
	return user, nil
}

// CreateAccount implements auth.Provider.
func (p *Provider) CreateAccount(_ context.Context, email, password string) (auth.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return auth.User{}, auth.ErrInvalidEmail
	}
	if len(password) < 6 {
		return auth.User{}, auth.ErrWeakPassword
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.accounts[email]; exists {
		return auth.User{}, auth.ErrEmailInUse
	}
	uid := uuid.NewString()
	p.accounts[email] = account{uid: uid, password: password}
	return auth.User{UID: uid, Email: email}, nil
}

// SendPasswordReset implements auth.Provider.
func (p *Provider) SendPasswordReset(_ context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.accounts[email]; !ok {
		return auth.ErrUserNotFound
	}
	p.ResetSent = append(p.ResetSent, email)
	return nil
}

// DeleteAccount implements auth.Provider.
func (p *Provider) DeleteAccount(_ context.Context, uid string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for email, acct := range p.accounts {
		if acct.uid == uid {
			delete(p.accounts, email)
		}
	}
	for token, user := range p.sessions {
		if user.UID == uid {
			delete(p.sessions, token)
		}
	}
	return nil
}
