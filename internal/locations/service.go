// Package locations implements the location list: add, list, delete.
// Locations have no update operation.
package locations

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/moridelogica/backoffice/internal/domain"
	"github.com/moridelogica/backoffice/internal/store"
)

// Service manages the locations collection.
type Service struct {
	store store.Store
	log   *slog.Logger

	// now is swapped in tests.
	now func() time.Time
}

// NewService constructs a Service.
func NewService(st store.Store, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: st, log: log, now: time.Now}
}

// Add creates a location. The name must be non-blank.
func (s *Service) Add(ctx context.Context, name string) (domain.Location, error) {
	if strings.TrimSpace(name) == "" {
		return domain.Location{}, fmt.Errorf("%w: location name cannot be empty", domain.ErrValidation)
	}

	loc := domain.Location{
		Name:      name,
		CreatedAt: s.now().Format(time.RFC3339),
	}
	id, err := s.store.Create(ctx, store.Locations, loc.Document())
	if err != nil {
		return domain.Location{}, fmt.Errorf("locations: add: %w", err)
	}
	loc.ID = id
	return loc, nil
}

// List returns all locations.
func (s *Service) List(ctx context.Context) ([]domain.Location, error) {
	docs, err := s.store.List(ctx, store.Locations)
	if err != nil {
		return nil, fmt.Errorf("locations: list: %w", err)
	}
	out := make([]domain.Location, 0, len(docs))
	for _, doc := range docs {
		out = append(out, domain.LocationFromDocument(doc.ID, doc.Data))
	}
	return out, nil
}

// Delete removes a location by ID.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, store.Locations, id); err != nil {
		return fmt.Errorf("locations: delete %s: %w", id, err)
	}
	s.log.Info("location deleted", "id", id)
	return nil
}
