// Package records implements the shipment record operations: listing,
// create/update/delete, and the in-memory filters the records view applies
// to a fetched list.
package records

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/moridelogica/backoffice/internal/domain"
	"github.com/moridelogica/backoffice/internal/store"
)

// Service is the record service. Deletes are gated on the caller's role.
type Service struct {
	store store.Store
	log   *slog.Logger
}

// NewService constructs a Service.
func NewService(st store.Store, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: st, log: log}
}

// List fetches every record, newest first.
func (s *Service) List(ctx context.Context) ([]domain.Record, error) {
	docs, err := s.store.List(ctx, store.Records, store.OrderByCreatedDesc())
	if err != nil {
		return nil, fmt.Errorf("records: list: %w", err)
	}
	out := make([]domain.Record, 0, len(docs))
	for _, doc := range docs {
		out = append(out, domain.RecordFromDocument(doc.ID, doc.Data, doc.CreatedAt))
	}
	return out, nil
}

// Get fetches one record by ID.
func (s *Service) Get(ctx context.Context, id string) (domain.Record, error) {
	doc, err := s.store.Get(ctx, store.Records, id)
	if err != nil {
		return domain.Record{}, fmt.Errorf("records: get %s: %w", id, err)
	}
	return domain.RecordFromDocument(doc.ID, doc.Data, doc.CreatedAt), nil
}

// Create stores a new record. When the record carries a creation date (a
// replayed CSV row) that date is kept; otherwise the store assigns the
// server time.
func (s *Service) Create(ctx context.Context, r domain.Record) (domain.Record, error) {
	var opts []store.CreateOption
	if !r.CreatedAt.IsZero() {
		opts = append(opts, store.WithCreatedAt(r.CreatedAt))
	}

	id, err := s.store.Create(ctx, store.Records, r.Document(), opts...)
	if err != nil {
		return domain.Record{}, fmt.Errorf("records: create: %w", err)
	}
	r.ID = id
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	return r, nil
}

// Update replaces the record document in full.
func (s *Service) Update(ctx context.Context, id string, r domain.Record) error {
	if err := s.store.Update(ctx, store.Records, id, r.Document()); err != nil {
		return fmt.Errorf("records: update %s: %w", id, err)
	}
	return nil
}

// Delete removes a record. Only admins may delete.
func (s *Service) Delete(ctx context.Context, actor domain.UserProfile, id string) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: only admins can delete records", domain.ErrForbidden)
	}
	if err := s.store.Delete(ctx, store.Records, id); err != nil {
		return fmt.Errorf("records: delete %s: %w", id, err)
	}
	s.log.Info("record deleted", "id", id, "by", actor.UID)
	return nil
}

// FilterByDateRange narrows records to the closed interval [start, end],
// where end is inclusive through 23:59:59.999 of its calendar day. An
// inverted range is an error so the caller leaves its current view
// untouched. Records without a usable creation date never match.
func FilterByDateRange(records []domain.Record, start, end time.Time) ([]domain.Record, error) {
	if start.After(end) {
		return nil, fmt.Errorf("%w: start date is after end date", domain.ErrValidation)
	}

	endOfDay := time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59,
		int(999*time.Millisecond), end.Location())

	out := make([]domain.Record, 0, len(records))
	for _, r := range records {
		if r.CreatedAt.IsZero() {
			continue
		}
		if r.CreatedAt.Before(start) || r.CreatedAt.After(endOfDay) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// FilterByText narrows records to those whose AWB number, destination, or
// payment status contains the query, case-insensitively. A blank query
// returns the input unchanged.
func FilterByText(records []domain.Record, query string) []domain.Record {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return records
	}

	out := make([]domain.Record, 0, len(records))
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.AWBNumber), query) ||
			strings.Contains(strings.ToLower(r.Destination), query) ||
			strings.Contains(strings.ToLower(r.EffectivePaymentStatus()), query) {
			out = append(out, r)
		}
	}
	return out
}
