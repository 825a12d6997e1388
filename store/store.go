// Package store defines the document store contract shared by every backend.
//
// A backend persists flat JSON-like records in named collections, keyed by
// the "id" field. Writes stamp "createdAt"/"updatedAt" from the backend's own
// clock; callers never set those fields.
package store

import (
	"context"
	"errors"
)

// Collection names.
const (
	Users       = "users"
	Activities  = "activities"
	Invitations = "invitations"
	Credentials = "credentials"
)

// Reserved fields managed by the store.
const (
	FieldID        = "id"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("document not found")

// Store is the document store adapter. Implementations must be safe for
// concurrent use; they provide no transactions and no compare-and-swap.
type Store interface {
	// Create assigns an id when the record has none and persists it.
	Create(ctx context.Context, collection string, doc Document) (Document, error)
	// Get returns the record or ErrNotFound.
	Get(ctx context.Context, collection, id string) (Document, error)
	// Update merges fields into an existing record and returns the result.
	Update(ctx context.Context, collection, id string, fields Document) (Document, error)
	// Delete removes the record. Deleting a missing record is not an error.
	Delete(ctx context.Context, collection, id string) error
	// Query returns every record matching q, ordered by q.OrderBy.
	Query(ctx context.Context, collection string, q Query) ([]Document, error)
	Close(ctx context.Context) error
}

// Predicate is an equality condition on a single field.
type Predicate struct {
	Field string
	Value any
}

// Order sorts results by one field.
type Order struct {
	Field string
	Desc  bool
}

type Query struct {
	Where   []Predicate
	OrderBy []Order
}

// Where starts a query with an equality predicate.
func Where(field string, value any) Query {
	return Query{Where: []Predicate{{Field: field, Value: value}}}
}

// OrderByDesc appends a descending sort key.
func (q Query) OrderByDesc(field string) Query {
	q.OrderBy = append(append([]Order(nil), q.OrderBy...), Order{Field: field, Desc: true})
	return q
}

// OrderByAsc appends an ascending sort key.
func (q Query) OrderByAsc(field string) Query {
	q.OrderBy = append(append([]Order(nil), q.OrderBy...), Order{Field: field})
	return q
}
