// Package memstore keeps documents in process memory. It backs the test
// suites and STORE_BACKEND=memory.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/parentplanner/server/store"
)

type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]store.Document
	now         func() time.Time
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		collections: make(map[string]map[string]store.Document),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the clock used for timestamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) table(collection string) map[string]store.Document {
	t, ok := s.collections[collection]
	if !ok {
		t = make(map[string]store.Document)
		s.collections[collection] = t
	}
	return t
}

func (s *Store) Create(_ context.Context, collection string, doc store.Document) (store.Document, error) {
	id := doc.ID()
	if id == "" {
		id = store.NewID()
	}
	rec := store.StripReserved(doc)
	now := s.now()
	rec[store.FieldID] = id
	rec[store.FieldCreatedAt] = now
	rec[store.FieldUpdatedAt] = now

	// Round-trip through JSON so records look exactly like the bolt backend's.
	normalized, err := store.Encode(rec)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.table(collection)[id] = normalized
	s.mu.Unlock()

	return normalized.Clone(), nil
}

func (s *Store) Get(_ context.Context, collection, id string) (store.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return doc.Clone(), nil
}

func (s *Store) Update(_ context.Context, collection, id string, fields store.Document) (store.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.collections[collection][id]
	if !ok {
		return nil, store.ErrNotFound
	}
	merged := store.Merge(existing, store.StripReserved(fields))
	merged[store.FieldID] = id
	merged[store.FieldUpdatedAt] = s.now()

	normalized, err := store.Encode(merged)
	if err != nil {
		return nil, err
	}
	s.collections[collection][id] = normalized
	return normalized.Clone(), nil
}

func (s *Store) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.collections[collection], id)
	return nil
}

func (s *Store) Query(_ context.Context, collection string, q store.Query) ([]store.Document, error) {
	s.mu.RLock()
	var out []store.Document
	for _, doc := range s.collections[collection] {
		if store.Matches(doc, q.Where) {
			out = append(out, doc.Clone())
		}
	}
	s.mu.RUnlock()

	// Map iteration is random; fall back to id order like the bolt cursor.
	store.Sort(out, append(append([]store.Order(nil), q.OrderBy...), store.Order{Field: store.FieldID}))
	return out, nil
}

func (s *Store) Close(context.Context) error {
	return nil
}
