// Package docstore is the remote document store the entity services persist
// into: named collections of JSON documents keyed by a store-assigned id.
// Two implementations live here, a Postgres JSONB table and an in-memory map
// used by tests and the offline CLI.
package docstore

import (
	"context"
	"regexp"
)

// Op is a filter comparison operator.
type Op string

const (
	Eq  Op = "="
	Gt  Op = ">"
	Gte Op = ">="
	Lt  Op = "<"
	Lte Op = "<="
)

// Filter restricts a query to documents whose top-level Field compares to
// Value with Op. Value may be a string, a number, a bool or nil.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Order sorts query results by a top-level field.
type Order struct {
	Field string
	Desc  bool
}

// Query selects documents from one collection. Filters are ANDed. Results are
// sorted by OrderBy and then by document id ascending, so ties are stable.
type Query struct {
	Collection string
	Filters    []Filter
	OrderBy    []Order
	Limit      int // 0 means no limit
}

// Where returns a copy of q with an extra filter.
func (q Query) Where(field string, op Op, value any) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Field: field, Op: op, Value: value})
	return q
}

// Document is one stored record. The id is the store key and is never part
// of Data.
type Document struct {
	ID   string
	Data map[string]any
}

// Store is the document store contract the services depend on.
type Store interface {
	// NewID reserves a fresh document id in collection. Services call it
	// before uploading blobs so photo paths and the document share one id.
	NewID(ctx context.Context, collection string) (string, error)

	// Query returns every matching document in order.
	Query(ctx context.Context, q Query) ([]Document, error)

	// Get returns a single document. Returns domain.ErrNotFound if missing.
	Get(ctx context.Context, collection, id string) (Document, error)

	// Insert stores data under id and returns the id. An empty id asks the
	// store to assign one.
	Insert(ctx context.Context, collection, id string, data map[string]any) (string, error)

	// Update merges fields into the stored document's top-level keys.
	// A nil value stores null. Returns domain.ErrNotFound if missing.
	Update(ctx context.Context, collection, id string, fields map[string]any) error

	// Delete removes a document. Returns domain.ErrNotFound if missing.
	Delete(ctx context.Context, collection, id string) error
}

// Merge returns a new map holding base overlaid with patch at the top level.
// Neither argument is modified.
func Merge(base, patch map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(patch))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}

var fieldName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// validField reports whether name is safe to use as a top-level JSON key in
// generated SQL.
func validField(name string) bool {
	return fieldName.MatchString(name)
}

func validOp(op Op) bool {
	switch op {
	case Eq, Gt, Gte, Lt, Lte:
		return true
	}
	return false
}
