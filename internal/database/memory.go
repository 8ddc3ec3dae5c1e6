package database

import (
	"context"
	"sort"
	"sync"

	"github.com/example/arabot/pkg/models"
)

// Compile-time check that MemoryStore implements the Store interface
var _ Store = (*MemoryStore)(nil)

// MemoryStore is a mutex-guarded in-memory Store used by tests across the
// repository. It mirrors the merge and increment semantics of the Mongo
// implementation.
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]map[string]map[string]interface{}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[string]map[string]interface{})}
}

// Get returns a copy of the fields of one document, or ErrNotFound.
func (s *MemoryStore) Get(ctx context.Context, collection, id string) (map[string]interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.data[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyFields(doc), nil
}

// Set writes fields to a document, creating it if needed.
func (s *MemoryStore) Set(ctx context.Context, collection, id string, fields map[string]interface{}, merge bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll := s.collection(collection)
	doc, ok := coll[id]
	if !ok || !merge {
		doc = make(map[string]interface{})
		coll[id] = doc
	}
	for k, v := range fields {
		doc[k] = v
	}
	return nil
}

// Increment atomically adds delta to a numeric field.
func (s *MemoryStore) Increment(ctx context.Context, collection, id, field string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	coll := s.collection(collection)
	doc, ok := coll[id]
	if !ok {
		doc = make(map[string]interface{})
		coll[id] = doc
	}
	doc[field] = models.AsInt(doc[field]) + delta
	return nil
}

// All returns every document in a collection, ordered by id for
// deterministic tests.
func (s *MemoryStore) All(ctx context.Context, collection string) ([]Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.data[collection]))
	for id := range s.data[collection] {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	docs := make([]Document, 0, len(ids))
	for _, id := range ids {
		docs = append(docs, Document{ID: id, Fields: copyFields(s.data[collection][id])})
	}
	return docs, nil
}

func (s *MemoryStore) collection(name string) map[string]map[string]interface{} {
	coll, ok := s.data[name]
	if !ok {
		coll = make(map[string]map[string]interface{})
		s.data[name] = coll
	}
	return coll
}

func copyFields(fields map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}
