package database

import "context"

// HookContext is handed to before-hooks.
type HookContext struct {
	// Data is the partial entity about to be written, after timestamp and
	// soft-delete stamping, so hooks observe (and may override) those fields.
	Data Entity
	// Repository is the repository executing the operation.
	Repository Repository
}

// BeforeHook runs before the primitive backend call. A non-nil returned
// Entity is shallow-merged over the pending data. A returned error aborts the
// operation; the primitive call never executes.
type BeforeHook func(ctx context.Context, hc *HookContext) (Entity, error)

// AfterHook runs after the primitive call with the operation result: an
// Entity (or nil when not found), []Entity for bulk creates, bool for
// delete/restore, int64 for bulk counts. Its error surfaces to the caller,
// but the primitive effect has already committed.
type AfterHook func(ctx context.Context, result any) error

// Hooks holds the six lifecycle callbacks. Soft-delete variants reuse the
// same pairs: soft delete runs the delete pair, restore runs the update pair.
type Hooks struct {
	BeforeCreate BeforeHook
	AfterCreate  AfterHook
	BeforeUpdate BeforeHook
	AfterUpdate  AfterHook
	BeforeDelete BeforeHook
	AfterDelete  AfterHook
}

// runBefore applies a before-hook to data, returning the merged payload.
func (r *baseRepository) runBefore(ctx context.Context, hook BeforeHook, data Entity) (Entity, error) {
	if hook == nil {
		return data, nil
	}
	patch, err := hook(ctx, &HookContext{Data: data, Repository: r.self})
	if err != nil {
		return nil, err
	}
	if patch != nil {
		data.Merge(patch)
	}
	return data, nil
}

func runAfter(ctx context.Context, hook AfterHook, result any) error {
	if hook == nil {
		return nil
	}
	return hook(ctx, result)
}
