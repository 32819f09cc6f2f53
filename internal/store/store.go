// Package store defines the document store the back office persists into.
//
// The store is collection-scoped and schemaless: documents are arbitrary
// JSON objects plus a store-assigned ID and a server-side creation
// timestamp. Two implementations exist: postgres (JSONB-backed, the
// production store) and memory (tests and local development). Services
// receive the interface so tests can substitute the in-memory store.
package store

import (
	"context"
	"errors"
	"time"
)

// Collection names. These match the hosted database the legacy system used,
// including the inconsistent casing of "locations".
const (
	Records   = "Records"
	Locations = "locations"
	Users     = "Users"
)

// ErrNotFound is returned by Get, Update, and Delete when no document with
// the given ID exists in the collection.
var ErrNotFound = errors.New("store: document not found")

// Document is one stored document. CreatedAt is store-native: assigned by
// the server on create unless the caller overrides it.
type Document struct {
	ID        string
	Data      map[string]any
	CreatedAt time.Time
}

// ListOptions controls List queries.
type ListOptions struct {
	// OrderByCreatedDesc returns newest documents first.
	OrderByCreatedDesc bool
}

// ListOption mutates ListOptions.
type ListOption func(*ListOptions)

// OrderByCreatedDesc orders results newest-first on the creation timestamp.
func OrderByCreatedDesc() ListOption {
	return func(o *ListOptions) { o.OrderByCreatedDesc = true }
}

// CreateOptions controls Create.
type CreateOptions struct {
	// ID pins the document ID instead of letting the store assign one.
	// Used for profiles keyed by the auth account UID.
	ID string

	// CreatedAt overrides the server-assigned creation timestamp. CSV
	// import uses this so replayed rows keep their original dates.
	CreatedAt time.Time
}

// CreateOption mutates CreateOptions.
type CreateOption func(*CreateOptions)

// WithID pins the new document's ID.
func WithID(id string) CreateOption {
	return func(o *CreateOptions) { o.ID = id }
}

// WithCreatedAt overrides the creation timestamp.
func WithCreatedAt(t time.Time) CreateOption {
	return func(o *CreateOptions) { o.CreatedAt = t }
}

// Store is the collection-scoped document store.
type Store interface {
	// Create inserts a document and returns its ID.
	Create(ctx context.Context, collection string, data map[string]any, opts ...CreateOption) (string, error)

	// Get returns a single document or ErrNotFound.
	Get(ctx context.Context, collection, id string) (Document, error)

	// List returns all documents in a collection.
	List(ctx context.Context, collection string, opts ...ListOption) ([]Document, error)

	// Update replaces the document body in full. The creation timestamp is
	// untouched; there are no partial-patch semantics.
	Update(ctx context.Context, collection, id string, data map[string]any) error

	// Delete removes a document by ID.
	Delete(ctx context.Context, collection, id string) error

	// Count returns the number of documents in a collection.
	Count(ctx context.Context, collection string) (int, error)
}
