// Package users manages staff profiles together with their auth provider
// accounts. Creating a user registers the account first, then writes the
// profile document keyed by the new account's UID.
package users

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/moridelogica/backoffice/internal/auth"
	"github.com/moridelogica/backoffice/internal/domain"
	"github.com/moridelogica/backoffice/internal/store"
)

// CreateInput is the new-user form.
type CreateInput struct {
	Email    string
	Password string
	Name     string
	Role     domain.Role
}

// UpdateInput replaces a profile's editable fields in full.
type UpdateInput struct {
	Email string
	Name  string
	Role  domain.Role
}

// Service manages the Users collection and its provider accounts.
type Service struct {
	store    store.Store
	provider auth.Provider
	log      *slog.Logger

	// storeInitialPassword replicates the legacy behavior of persisting
	// the plaintext first password on the profile. Off unless the
	// operator explicitly turns it on.
	storeInitialPassword bool
}

// NewService constructs a Service.
func NewService(st store.Store, provider auth.Provider, storeInitialPassword bool, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:                st,
		provider:             provider,
		log:                  log,
		storeInitialPassword: storeInitialPassword,
	}
}

// Create validates the form, registers the auth account, and writes the
// profile. Provider failures carry their auth error kind for message
// mapping.
func (s *Service) Create(ctx context.Context, in CreateInput) (domain.UserProfile, error) {
	if strings.TrimSpace(in.Email) == "" || in.Password == "" || strings.TrimSpace(in.Name) == "" {
		return domain.UserProfile{}, fmt.Errorf("%w: email, password, and name are required", domain.ErrValidation)
	}
	if len(in.Password) < 6 {
		return domain.UserProfile{}, fmt.Errorf("%w: password must be at least 6 characters", domain.ErrValidation)
	}
	if in.Role == "" {
		in.Role = domain.RoleWarehouseStaff
	}
	if !domain.ValidRole(in.Role) {
		return domain.UserProfile{}, fmt.Errorf("%w: unknown role %q", domain.ErrValidation, in.Role)
	}

	account, err := s.provider.CreateAccount(ctx, in.Email, in.Password)
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("users: create account: %w", err)
	}

	profile := domain.UserProfile{
		UID:   account.UID,
		Email: account.Email,
		Name:  in.Name,
		Role:  in.Role,
	}
	if s.storeInitialPassword {
		profile.InitialPassword = in.Password
	}

	if _, err := s.store.Create(ctx, store.Users, profile.Document(), store.WithID(account.UID)); err != nil {
		return domain.UserProfile{}, fmt.Errorf("users: create profile: %w", err)
	}

	s.log.Info("user created", "uid", account.UID, "role", string(in.Role))
	return profile, nil
}

// List returns all profiles.
func (s *Service) List(ctx context.Context) ([]domain.UserProfile, error) {
	docs, err := s.store.List(ctx, store.Users)
	if err != nil {
		return nil, fmt.Errorf("users: list: %w", err)
	}
	out := make([]domain.UserProfile, 0, len(docs))
	for _, doc := range docs {
		profile := domain.UserProfileFromDocument(doc.ID, doc.Data)
		if profile.UID == "" {
			profile.UID = doc.ID
		}
		out = append(out, profile)
	}
	return out, nil
}

// Get returns one profile by UID.
func (s *Service) Get(ctx context.Context, uid string) (domain.UserProfile, error) {
	doc, err := s.store.Get(ctx, store.Users, uid)
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("users: get %s: %w", uid, err)
	}
	profile := domain.UserProfileFromDocument(doc.ID, doc.Data)
	if profile.UID == "" {
		profile.UID = doc.ID
	}
	return profile, nil
}

// Update replaces the profile's email, name, and role. All three are
// required, matching the edit form.
func (s *Service) Update(ctx context.Context, uid string, in UpdateInput) (domain.UserProfile, error) {
	if strings.TrimSpace(in.Email) == "" || strings.TrimSpace(in.Name) == "" || in.Role == "" {
		return domain.UserProfile{}, fmt.Errorf("%w: email, role, and name are required for update", domain.ErrValidation)
	}
	if !domain.ValidRole(in.Role) {
		return domain.UserProfile{}, fmt.Errorf("%w: unknown role %q", domain.ErrValidation, in.Role)
	}

	current, err := s.Get(ctx, uid)
	if err != nil {
		return domain.UserProfile{}, err
	}

	current.Email = in.Email
	current.Name = in.Name
	current.Role = in.Role

	if err := s.store.Update(ctx, store.Users, uid, current.Document()); err != nil {
		return domain.UserProfile{}, fmt.Errorf("users: update %s: %w", uid, err)
	}
	return current, nil
}

// Delete removes a profile and its provider account. Only admins may
// delete users.
func (s *Service) Delete(ctx context.Context, actor domain.UserProfile, uid string) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: only admins can delete users", domain.ErrForbidden)
	}
	if err := s.store.Delete(ctx, store.Users, uid); err != nil {
		return fmt.Errorf("users: delete %s: %w", uid, err)
	}
	if err := s.provider.DeleteAccount(ctx, uid); err != nil {
		// The profile is gone; losing the orphaned account is logged,
		// not fatal.
		s.log.Warn("users: delete account failed", "uid", uid, "error", err)
	}
	s.log.Info("user deleted", "uid", uid, "by", actor.UID)
	return nil
}
