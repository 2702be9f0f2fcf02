package database

import (
	"context"

	"github.com/huynhanx03/go-repository/pkg/filter"
)

// Store is the primitive operation set a backend must provide. Each method is
// one backend round trip; the repository layers filters, timestamps,
// soft-delete rewriting and hooks on top without the store knowing.
//
// Filter translation happens inside the store: it receives the agnostic
// expression (already soft-delete-augmented) and renders its own native
// predicate. "Not found" is (nil, nil), never an error.
type Store interface {
	// Name identifies the collection/table for logs and error context.
	Name() string

	InsertOne(ctx context.Context, doc Entity) (Entity, error)
	InsertMany(ctx context.Context, docs []Entity) ([]Entity, error)

	FindOne(ctx context.Context, f filter.Expression, opts *FindOptions) (Entity, error)
	FindMany(ctx context.Context, f filter.Expression, opts *FindOptions) ([]Entity, error)

	// UpdateOne updates at most one record (callers scope f to the primary
	// key) and returns the updated record, or nil when nothing matched.
	UpdateOne(ctx context.Context, f filter.Expression, changes Entity) (Entity, error)
	UpdateMany(ctx context.Context, f filter.Expression, changes Entity) (int64, error)

	DeleteOne(ctx context.Context, f filter.Expression) (bool, error)
	DeleteMany(ctx context.Context, f filter.Expression) (int64, error)

	Count(ctx context.Context, f filter.Expression) (int64, error)
	Distinct(ctx context.Context, field string, f filter.Expression) ([]any, error)

	// Upsert updates the record(s) matching f with changes, inserting
	// merge(onInsert, changes) when nothing matches. Backends with a native
	// atomic upsert use it; others fall back to find-then-branch and carry
	// the documented race between the existence check and the write.
	Upsert(ctx context.Context, f filter.Expression, changes, onInsert Entity) (Entity, error)
}
