// Package auth defines the authentication provider the back office signs
// staff in against, and the mapping from provider failure kinds to the
// fixed user-facing messages the interface shows.
package auth

import (
	"context"
	"errors"
)

// Failure kinds. Services and handlers match with errors.Is; UserMessage
// turns each into its display message.
var (
	ErrInvalidEmail  = errors.New("auth: invalid email")
	ErrUserNotFound  = errors.New("auth: user not found")
	ErrWrongPassword = errors.New("auth: wrong password")
	ErrNetwork       = errors.New("auth: network failure")
	ErrEmailInUse    = errors.New("auth: email already in use")
	ErrWeakPassword  = errors.New("auth: weak password")
	ErrNoSession     = errors.New("auth: no session")
)

// User is an authenticated identity.
type User struct {
	UID   string
	Email string
}

// Session is a signed-in user plus the bearer token that proves it.
type Session struct {
	Token string
	User  User
}

// Provider is the authentication backend.
type Provider interface {
	// SignIn authenticates credentials and opens a session.
	SignIn(ctx context.Context, email, password string) (Session, error)

	// SignOut invalidates the session token. Unknown tokens are a no-op.
	SignOut(ctx context.Context, token string) error

	// CurrentUser resolves a session token, or ErrNoSession.
	CurrentUser(ctx context.Context, token string) (User, error)

	// CreateAccount registers a new account without signing it in.
	CreateAccount(ctx context.Context, email, password string) (User, error)

	// SendPasswordReset starts a password reset for the account.
	SendPasswordReset(ctx context.Context, email string) error

	// DeleteAccount removes the account, invalidating its sessions.
	DeleteAccount(ctx context.Context, uid string) error
}

// UserMessage maps a provider failure to the message the interface shows.
// Unmapped errors fall through with their raw message.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidEmail):
		return "Invalid email format."
	case errors.Is(err, ErrUserNotFound):
		return "No account found with this email."
	case errors.Is(err, ErrWrongPassword):
		return "Incorrect password."
	case errors.Is(err, ErrNetwork):
		return "Network error. Check your connection."
	case errors.Is(err, ErrEmailInUse):
		return "This email is already in use."
	case errors.Is(err, ErrWeakPassword):
		return "Password is too weak."
	case errors.Is(err, ErrNoSession):
		return "Not signed in."
	default:
		return err.Error()
	}
}
