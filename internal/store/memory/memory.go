// Package memory provides an in-memory store.Store for tests and local
// development. It is safe for concurrent use.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/moridelogica/backoffice/internal/store"
)

// Store holds documents in a per-collection map guarded by a mutex.
type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]store.Document
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{collections: make(map[string]map[string]store.Document)}
}

var _ store.Store = (*Store)(nil)

// Create implements store.Store.
func (s *Store) Create(_ context.Context, collection string, data map[string]any, opts ...store.CreateOption) (string, error) {
	var o store.CreateOptions
	for _, opt := range opts {
		opt(&o)
	}

	id := o.ID
	if id == "" {
		id = uuid.NewString()
	}
	createdAt := o.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string]store.Document)
		s.collections[collection] = docs
	}
	docs[id] = store.Document{ID: id, Data: cloneData(data), CreatedAt: createdAt}
	return id, nil
}

// Get implements store.Store.
func (s *Store) Get(_ context.Context, collection, id string) (store.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return store.Document{}, store.ErrNotFound
	}
	doc.Data = cloneData(doc.Data)
	return doc, nil
}

// List implements store.Store.
func (s *Store) List(_ context.Context, collection string, opts ...store.ListOption) ([]store.Document, error) {
	var o store.ListOptions
	for _, opt := range opts {
		opt(&o)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]store.Document, 0, len(s.collections[collection]))
	for _, doc := range s.collections[collection] {
		doc.Data = cloneData(doc.Data)
		docs = append(docs, doc)
	}

	if o.OrderByCreatedDesc {
		sort.Slice(docs, func(i, j int) bool {
			return docs[i].CreatedAt.After(docs[j].CreatedAt)
		})
	} else {
		// Deterministic order for tests.
		sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	}
	return docs, nil
}

// Update implements store.Store.
func (s *Store) Update(_ context.Context, collection, id string, data map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return store.ErrNotFound
	}
	doc.Data = cloneData(data)
	s.collections[collection][id] = doc
	return nil
}

// Delete implements store.Store.
func (s *Store) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[collection][id]; !ok {
		return store.ErrNotFound
	}
	delete(s.collections[collection], id)
	return nil
}

// Count implements store.Store.
func (s *Store) Count(_ context.Context, collection string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collection]), nil
}

// cloneData shallow-copies document data so callers cannot mutate stored
// state through shared maps. Nested maps are copied one level deep, which
// covers the record sub-objects.
func cloneData(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	out := make(map[string]any, len(data))
	for k, v := range data {
		if m, ok := v.(map[string]any); ok {
			inner := make(map[string]any, len(m))
			for ik, iv := range m {
				inner[ik] = iv
			}
			out[k] = inner
			continue
		}
		out[k] = v
	}
	return out
}
