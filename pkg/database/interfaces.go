package database

import (
	"context"

	"github.com/huynhanx03/go-repository/pkg/filter"
)

// Repository is the uniform contract over both backing stores. All read
// methods treat "not found" as a nil result, never an error; errors are
// reserved for malformed input and backend failures.
type Repository interface {
	Create(ctx context.Context, data Entity) (Entity, error)
	FindByID(ctx context.Context, id any) (Entity, error)
	FindOne(ctx context.Context, f filter.Expression, opts *FindOptions) (Entity, error)
	FindAll(ctx context.Context, f filter.Expression, opts *FindOptions) ([]Entity, error)
	FindPage(ctx context.Context, req *PageRequest) (*Page, error)
	UpdateByID(ctx context.Context, id any, changes Entity) (Entity, error)
	DeleteByID(ctx context.Context, id any) (bool, error)
	Count(ctx context.Context, f filter.Expression) (int64, error)
	Exists(ctx context.Context, f filter.Expression) (bool, error)
	InsertMany(ctx context.Context, docs []Entity) ([]Entity, error)
	UpdateMany(ctx context.Context, f filter.Expression, changes Entity) (int64, error)
	DeleteMany(ctx context.Context, f filter.Expression) (int64, error)
	Upsert(ctx context.Context, f filter.Expression, data Entity) (Entity, error)
	Distinct(ctx context.Context, field string, f filter.Expression) ([]any, error)
	Select(ctx context.Context, fields []string, f filter.Expression, opts *FindOptions) ([]Entity, error)
}

// SoftDeleteRepository is the capability unlocked by Options.SoftDelete.
// Repositories built without it do not implement this interface, so callers
// feature-detect with a type assertion instead of calling no-ops:
//
//	if sd, ok := repo.(database.SoftDeleteRepository); ok { ... }
type SoftDeleteRepository interface {
	Repository

	// Restore clears the soft-delete field. Restoring a never-deleted
	// record is a no-op success.
	Restore(ctx context.Context, id any) (bool, error)
	RestoreMany(ctx context.Context, f filter.Expression) (int64, error)

	// FindDeleted scopes the filter to soft-deleted records only;
	// FindAllWithDeleted bypasses the implicit scope entirely.
	FindDeleted(ctx context.Context, f filter.Expression, opts *FindOptions) ([]Entity, error)
	FindAllWithDeleted(ctx context.Context, f filter.Expression, opts *FindOptions) ([]Entity, error)

	// HardDeleteByID and HardDeleteMany physically remove records,
	// bypassing the soft-delete rewrite.
	HardDeleteByID(ctx context.Context, id any) (bool, error)
	HardDeleteMany(ctx context.Context, f filter.Expression) (int64, error)
}
