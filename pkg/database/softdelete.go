package database

import (
	"context"
	"time"

	"github.com/huynhanx03/go-repository/pkg/filter"
)

// softDeleteRepository adds the soft-delete capability on top of the base
// repository. It is only constructed when Options.SoftDelete is set, so the
// extra surface is genuinely absent otherwise.
type softDeleteRepository struct {
	*baseRepository
}

var _ SoftDeleteRepository = (*softDeleteRepository)(nil)

// deletedScope limits f to soft-deleted records.
func (r *baseRepository) deletedScope(f filter.Expression) filter.Expression {
	return filter.With(f, r.opts.SoftDeleteField, filter.Clause{filter.OpNotNull: true})
}

// softDeleteOne rewrites a single delete into an update stamping the
// soft-delete field. The filter is scoped to live records, so deleting an
// already-deleted record reports false without erroring.
func (r *baseRepository) softDeleteOne(ctx context.Context, f filter.Expression) (bool, error) {
	payload, err := r.runBefore(ctx, r.opts.Hooks.BeforeDelete, Entity{r.opts.SoftDeleteField: r.now()})
	if err != nil {
		return false, err
	}
	updated, err := r.store.UpdateOne(ctx, r.scope(f), payload)
	if err != nil {
		return false, r.fail("deleteById", err)
	}
	ok := updated != nil
	if err := runAfter(ctx, r.opts.Hooks.AfterDelete, ok); err != nil {
		return ok, err
	}
	return ok, nil
}

func (r *baseRepository) softDeleteMany(ctx context.Context, f filter.Expression) (int64, error) {
	payload, err := r.runBefore(ctx, r.opts.Hooks.BeforeDelete, Entity{r.opts.SoftDeleteField: r.now()})
	if err != nil {
		return 0, err
	}
	n, err := r.store.UpdateMany(ctx, r.scope(f), payload)
	if err != nil {
		return 0, r.fail("deleteMany", err)
	}
	if err := runAfter(ctx, r.opts.Hooks.AfterDelete, n); err != nil {
		return n, err
	}
	return n, nil
}

// Restore clears the soft-delete field. The primary-key filter is not scoped,
// so restoring a never-deleted record succeeds and leaves the field null.
func (r *softDeleteRepository) Restore(ctx context.Context, id any) (bool, error) {
	defer r.observe("restore", time.Now())

	f, err := r.pkFilter(id)
	if err != nil {
		return false, err
	}
	payload, err := r.runBefore(ctx, r.opts.Hooks.BeforeUpdate, r.restorePayload())
	if err != nil {
		return false, err
	}
	updated, err := r.store.UpdateOne(ctx, f, payload)
	if err != nil {
		return false, r.fail("restore", err)
	}
	ok := updated != nil
	if err := runAfter(ctx, r.opts.Hooks.AfterUpdate, ok); err != nil {
		return ok, err
	}
	return ok, nil
}

// RestoreMany clears the soft-delete field on every soft-deleted record
// matching f, so the returned count is the number actually restored.
func (r *softDeleteRepository) RestoreMany(ctx context.Context, f filter.Expression) (int64, error) {
	defer r.observe("restoreMany", time.Now())

	payload, err := r.runBefore(ctx, r.opts.Hooks.BeforeUpdate, r.restorePayload())
	if err != nil {
		return 0, err
	}
	n, err := r.store.UpdateMany(ctx, r.deletedScope(f), payload)
	if err != nil {
		return 0, r.fail("restoreMany", err)
	}
	if err := runAfter(ctx, r.opts.Hooks.AfterUpdate, n); err != nil {
		return n, err
	}
	return n, nil
}

// restorePayload writes a native null, not a sentinel timestamp.
func (r *softDeleteRepository) restorePayload() Entity {
	payload := Entity{r.opts.SoftDeleteField: nil}
	if r.opts.Timestamps {
		payload[r.opts.UpdatedAtField] = r.now()
	}
	return payload
}

func (r *softDeleteRepository) FindDeleted(ctx context.Context, f filter.Expression, opts *FindOptions) ([]Entity, error) {
	defer r.observe("findDeleted", time.Now())

	docs, err := r.store.FindMany(ctx, r.deletedScope(f), opts)
	if err != nil {
		return nil, r.fail("findDeleted", err)
	}
	return docs, nil
}

func (r *softDeleteRepository) FindAllWithDeleted(ctx context.Context, f filter.Expression, opts *FindOptions) ([]Entity, error) {
	defer r.observe("findAllWithDeleted", time.Now())

	if f == nil {
		f = filter.Expression{}
	}
	docs, err := r.store.FindMany(ctx, f, opts)
	if err != nil {
		return nil, r.fail("findAllWithDeleted", err)
	}
	return docs, nil
}

// HardDeleteByID physically removes the record, bypassing the soft-delete
// rewrite and its implicit scope.
func (r *softDeleteRepository) HardDeleteByID(ctx context.Context, id any) (bool, error) {
	defer r.observe("hardDeleteById", time.Now())

	f, err := r.pkFilter(id)
	if err != nil {
		return false, err
	}
	if _, err := r.runBefore(ctx, r.opts.Hooks.BeforeDelete, Entity{}); err != nil {
		return false, err
	}
	ok, err := r.store.DeleteOne(ctx, f)
	if err != nil {
		return false, r.fail("hardDeleteById", err)
	}
	if err := runAfter(ctx, r.opts.Hooks.AfterDelete, ok); err != nil {
		return ok, err
	}
	return ok, nil
}

func (r *softDeleteRepository) HardDeleteMany(ctx context.Context, f filter.Expression) (int64, error) {
	defer r.observe("hardDeleteMany", time.Now())

	if f == nil {
		f = filter.Expression{}
	}
	if _, err := r.runBefore(ctx, r.opts.Hooks.BeforeDelete, Entity{}); err != nil {
		return 0, err
	}
	n, err := r.store.DeleteMany(ctx, f)
	if err != nil {
		return 0, r.fail("hardDeleteMany", err)
	}
	if err := runAfter(ctx, r.opts.Hooks.AfterDelete, n); err != nil {
		return n, err
	}
	return n, nil
}
