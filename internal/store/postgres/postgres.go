// Package postgres implements store.Store on a single JSONB-backed
// documents table. The collection name is a column, document bodies are
// JSONB, and created_at defaults to the server clock so creation timestamps
// are store-native.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/moridelogica/backoffice/internal/store"
)

// DBTX is the subset of pgx operations the store needs. Satisfied by both
// *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Store is the Postgres-backed document store.
type Store struct {
	db DBTX
}

// New wraps a pool (or transaction) as a document store.
func New(db DBTX) *Store {
	return &Store{db: db}
}

// NewFromPool is a convenience constructor for main.
func NewFromPool(pool *pgxpool.Pool) *Store {
	return New(pool)
}

var _ store.Store = (*Store)(nil)

// Create implements store.Store. A nil CreatedAt option falls through to
// the column default (now()).
func (s *Store) Create(ctx context.Context, collection string, data map[string]any, opts ...store.CreateOption) (string, error) {
	var o store.CreateOptions
	for _, opt := range opts {
		opt(&o)
	}

	id := o.ID
	if id == "" {
		id = uuid.NewString()
	}

	var createdAt *time.Time
	if !o.CreatedAt.IsZero() {
		createdAt = &o.CreatedAt
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO documents (id, collection, data, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data
	`, id, collection, data, createdAt)
	if err != nil {
		return "", fmt.Errorf("store: create %s: %w", collection, err)
	}
	return id, nil
}

// Get implements store.Store.
func (s *Store) Get(ctx context.Context, collection, id string) (store.Document, error) {
	doc := store.Document{ID: id}
	err := s.db.QueryRow(ctx, `
		SELECT data, created_at FROM documents
		WHERE collection = $1 AND id = $2
	`, collection, id).Scan(&doc.Data, &doc.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.Document{}, store.ErrNotFound
	}
	if err != nil {
		return store.Document{}, fmt.Errorf("store: get %s/%s: %w", collection, id, err)
	}
	return doc, nil
}

// List implements store.Store.
func (s *Store) List(ctx context.Context, collection string, opts ...store.ListOption) ([]store.Document, error) {
	var o store.ListOptions
	for _, opt := range opts {
		opt(&o)
	}

	query := `SELECT id, data, created_at FROM documents WHERE collection = $1 ORDER BY created_at`
	if o.OrderByCreatedDesc {
		query += ` DESC`
	}

	rows, err := s.db.Query(ctx, query, collection)
	if err != nil {
		return nil, fmt.Errorf("store: list %s: %w", collection, err)
	}
	defer rows.Close()

	var docs []store.Document
	for rows.Next() {
		var doc store.Document
		if err := rows.Scan(&doc.ID, &doc.Data, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan %s: %w", collection, err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list %s: %w", collection, err)
	}
	return docs, nil
}

// Update implements store.Store. The body is replaced in full; created_at
// is untouched.
func (s *Store) Update(ctx context.Context, collection, id string, data map[string]any) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE documents SET data = $3
		WHERE collection = $1 AND id = $2
	`, collection, id, data)
	if err != nil {
		return fmt.Errorf("store: update %s/%s: %w", collection, id, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Delete implements store.Store.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	tag, err := s.db.Exec(ctx, `
		DELETE FROM documents WHERE collection = $1 AND id = $2
	`, collection, id)
	if err != nil {
		return fmt.Errorf("store: delete %s/%s: %w", collection, id, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Count implements store.Store.
func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `
		SELECT count(*) FROM documents WHERE collection = $1
	`, collection).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("store: count %s: %w", collection, err)
	}
	return n, nil
}
