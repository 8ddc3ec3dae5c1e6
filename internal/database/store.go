package database

import (
	"context"
	"errors"
)

// Collection names in the document store.
const (
	ConfigCollection = "config"
	UsersCollection  = "users"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("document not found")

// Document is one stored document together with its id.
type Document struct {
	ID     string
	Fields map[string]interface{}
}

// Store is the document store boundary: a namespaced key-document store with
// merge writes and atomic numeric increments. Every mutation targets exactly
// one document; there are no multi-document transactions.
type Store interface {
	// Get returns the fields of one document, or ErrNotFound.
	Get(ctx context.Context, collection, id string) (map[string]interface{}, error)
	// Set writes fields to a document, creating it if needed. With merge
	// set, existing fields not named in the write are left untouched;
	// without it the document is replaced wholesale.
	Set(ctx context.Context, collection, id string, fields map[string]interface{}, merge bool) error
	// Increment atomically adds delta to a numeric field, creating the
	// document and field as needed.
	Increment(ctx context.Context, collection, id, field string, delta int) error
	// All returns every document in a collection.
	All(ctx context.Context, collection string) ([]Document, error)
}
