// Package database implements the backend-neutral repository layer: the
// cross-cutting policy (timestamps, soft delete), the hook pipeline and the
// public Repository contract, composed around a backend's primitive Store.
package database

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/huynhanx03/go-repository/pkg/filter"
)

type baseRepository struct {
	store Store
	opts  Options
	log   *zap.Logger

	// self is the outermost repository value (the soft-delete wrapper when
	// enabled) so hooks always see the full capability set.
	self Repository

	// now is swapped out in tests.
	now func() time.Time
}

// NewRepository composes the cross-cutting policy and hook pipeline around a
// backend store. Options are copied; the repository never mutates or exposes
// them afterwards. When opts.SoftDelete is set, the returned value also
// implements SoftDeleteRepository.
func NewRepository(store Store, opts *Options) (Repository, error) {
	if store == nil {
		return nil, ErrNotConnected
	}
	var o Options
	if opts != nil {
		o = *opts
	}
	o.setDefaults()
	if err := o.validate(); err != nil {
		return nil, err
	}

	base := &baseRepository{
		store: store,
		opts:  o,
		log:   o.Logger.With(zap.String("store", store.Name())),
		now:   func() time.Time { return time.Now().UTC() },
	}
	if !o.SoftDelete {
		base.self = base
		return base, nil
	}
	sd := &softDeleteRepository{baseRepository: base}
	base.self = sd
	return sd, nil
}

// pkFilter builds the primary-key equality filter for id.
func (r *baseRepository) pkFilter(id any) (filter.Expression, error) {
	if id == nil {
		return nil, ErrInvalidID
	}
	if s, ok := id.(string); ok && s == "" {
		return nil, ErrInvalidID
	}
	return filter.Expression{r.opts.PrimaryKey: id}, nil
}

// scope ANDs the implicit "not soft-deleted" clause into f. Augmentation
// happens here, before the store translates the expression.
func (r *baseRepository) scope(f filter.Expression) filter.Expression {
	if !r.opts.SoftDelete {
		if f == nil {
			return filter.Expression{}
		}
		return f
	}
	return filter.With(f, r.opts.SoftDeleteField, filter.Clause{filter.OpIsNull: true})
}

// stampCreate injects createdAt/updatedAt into a copy of data, keeping any
// caller-supplied values.
func (r *baseRepository) stampCreate(data Entity) Entity {
	doc := data.Clone()
	if !r.opts.Timestamps {
		return doc
	}
	now := r.now()
	if _, ok := doc[r.opts.CreatedAtField]; !ok {
		doc[r.opts.CreatedAtField] = now
	}
	if _, ok := doc[r.opts.UpdatedAtField]; !ok {
		doc[r.opts.UpdatedAtField] = now
	}
	return doc
}

// stampUpdate sets updatedAt on a copy of changes. createdAt is never touched
// on update paths.
func (r *baseRepository) stampUpdate(changes Entity) Entity {
	doc := changes.Clone()
	if r.opts.Timestamps {
		doc[r.opts.UpdatedAtField] = r.now()
	}
	return doc
}

func (r *baseRepository) fail(op string, err error) error {
	r.log.Error("repository operation failed", zap.String("op", op), zap.Error(err))
	return err
}

func (r *baseRepository) observe(op string, start time.Time) {
	r.log.Debug("repository operation", zap.String("op", op), zap.Duration("took", time.Since(start)))
}

func (r *baseRepository) Create(ctx context.Context, data Entity) (Entity, error) {
	defer r.observe("create", time.Now())

	doc, err := r.runBefore(ctx, r.opts.Hooks.BeforeCreate, r.stampCreate(data))
	if err != nil {
		return nil, err
	}
	created, err := r.store.InsertOne(ctx, doc)
	if err != nil {
		return nil, r.fail("create", err)
	}
	if err := runAfter(ctx, r.opts.Hooks.AfterCreate, created); err != nil {
		return created, err
	}
	return created, nil
}

func (r *baseRepository) FindByID(ctx context.Context, id any) (Entity, error) {
	defer r.observe("findById", time.Now())

	f, err := r.pkFilter(id)
	if err != nil {
		return nil, err
	}
	doc, err := r.store.FindOne(ctx, r.scope(f), nil)
	if err != nil {
		return nil, r.fail("findById", err)
	}
	return doc, nil
}

func (r *baseRepository) FindOne(ctx context.Context, f filter.Expression, opts *FindOptions) (Entity, error) {
	defer r.observe("findOne", time.Now())

	doc, err := r.store.FindOne(ctx, r.scope(f), opts)
	if err != nil {
		return nil, r.fail("findOne", err)
	}
	return doc, nil
}

func (r *baseRepository) FindAll(ctx context.Context, f filter.Expression, opts *FindOptions) ([]Entity, error) {
	defer r.observe("findAll", time.Now())

	docs, err := r.store.FindMany(ctx, r.scope(f), opts)
	if err != nil {
		return nil, r.fail("findAll", err)
	}
	return docs, nil
}

// FindPage runs the count and the fetch with the same augmented filter. When
// nothing matches, the fetch round trip is skipped.
func (r *baseRepository) FindPage(ctx context.Context, req *PageRequest) (*Page, error) {
	defer r.observe("findPage", time.Now())

	if req == nil {
		req = &PageRequest{}
	}
	page, limit := req.normalize(r.opts.DefaultLimit)
	f := r.scope(req.Filter)

	total, err := r.store.Count(ctx, f)
	if err != nil {
		return nil, r.fail("findPage", err)
	}

	result := &Page{
		Items:      []Entity{},
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages(total, limit),
	}
	if total == 0 {
		return result, nil
	}

	items, err := r.store.FindMany(ctx, f, &FindOptions{
		Sort:   req.Sort,
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return nil, r.fail("findPage", err)
	}
	if items != nil {
		result.Items = items
	}
	return result, nil
}

func (r *baseRepository) UpdateByID(ctx context.Context, id any, changes Entity) (Entity, error) {
	defer r.observe("updateById", time.Now())

	f, err := r.pkFilter(id)
	if err != nil {
		return nil, err
	}
	doc, err := r.runBefore(ctx, r.opts.Hooks.BeforeUpdate, r.stampUpdate(changes))
	if err != nil {
		return nil, err
	}
	if len(doc) == 0 {
		return nil, fmt.Errorf("%w: empty change set", ErrValidation)
	}
	updated, err := r.store.UpdateOne(ctx, r.scope(f), doc)
	if err != nil {
		return nil, r.fail("updateById", err)
	}
	if err := runAfter(ctx, r.opts.Hooks.AfterUpdate, afterResult(updated)); err != nil {
		return updated, err
	}
	return updated, nil
}

func (r *baseRepository) DeleteByID(ctx context.Context, id any) (bool, error) {
	defer r.observe("deleteById", time.Now())

	f, err := r.pkFilter(id)
	if err != nil {
		return false, err
	}
	if r.opts.SoftDelete {
		return r.softDeleteOne(ctx, f)
	}

	if _, err := r.runBefore(ctx, r.opts.Hooks.BeforeDelete, Entity{}); err != nil {
		return false, err
	}
	ok, err := r.store.DeleteOne(ctx, f)
	if err != nil {
		return false, r.fail("deleteById", err)
	}
	if err := runAfter(ctx, r.opts.Hooks.AfterDelete, ok); err != nil {
		return ok, err
	}
	return ok, nil
}

func (r *baseRepository) Count(ctx context.Context, f filter.Expression) (int64, error) {
	defer r.observe("count", time.Now())

	n, err := r.store.Count(ctx, r.scope(f))
	if err != nil {
		return 0, r.fail("count", err)
	}
	return n, nil
}

func (r *baseRepository) Exists(ctx context.Context, f filter.Expression) (bool, error) {
	defer r.observe("exists", time.Now())

	doc, err := r.store.FindOne(ctx, r.scope(f), &FindOptions{Fields: []string{r.opts.PrimaryKey}})
	if err != nil {
		return false, r.fail("exists", err)
	}
	return doc != nil, nil
}

// InsertMany persists the whole batch in one backend round trip. An empty
// batch returns an empty slice without touching the backend.
func (r *baseRepository) InsertMany(ctx context.Context, docs []Entity) ([]Entity, error) {
	defer r.observe("insertMany", time.Now())

	if len(docs) == 0 {
		return []Entity{}, nil
	}
	prepared := make([]Entity, len(docs))
	for i, d := range docs {
		doc, err := r.runBefore(ctx, r.opts.Hooks.BeforeCreate, r.stampCreate(d))
		if err != nil {
			return nil, err
		}
		prepared[i] = doc
	}
	created, err := r.store.InsertMany(ctx, prepared)
	if err != nil {
		return nil, r.fail("insertMany", err)
	}
	if err := runAfter(ctx, r.opts.Hooks.AfterCreate, created); err != nil {
		return created, err
	}
	return created, nil
}

func (r *baseRepository) UpdateMany(ctx context.Context, f filter.Expression, changes Entity) (int64, error) {
	defer r.observe("updateMany", time.Now())

	doc, err := r.runBefore(ctx, r.opts.Hooks.BeforeUpdate, r.stampUpdate(changes))
	if err != nil {
		return 0, err
	}
	if len(doc) == 0 {
		return 0, fmt.Errorf("%w: empty change set", ErrValidation)
	}
	n, err := r.store.UpdateMany(ctx, r.scope(f), doc)
	if err != nil {
		return 0, r.fail("updateMany", err)
	}
	if err := runAfter(ctx, r.opts.Hooks.AfterUpdate, n); err != nil {
		return n, err
	}
	return n, nil
}

func (r *baseRepository) DeleteMany(ctx context.Context, f filter.Expression) (int64, error) {
	defer r.observe("deleteMany", time.Now())

	if r.opts.SoftDelete {
		return r.softDeleteMany(ctx, f)
	}

	if _, err := r.runBefore(ctx, r.opts.Hooks.BeforeDelete, Entity{}); err != nil {
		return 0, err
	}
	n, err := r.store.DeleteMany(ctx, r.scope(f))
	if err != nil {
		return 0, r.fail("deleteMany", err)
	}
	if err := runAfter(ctx, r.opts.Hooks.AfterDelete, n); err != nil {
		return n, err
	}
	return n, nil
}

// Upsert updates the record(s) matching f, inserting the merged filter
// literals and data when nothing matches. The document backend does this in
// one atomic primitive; the relational backend falls back to
// find-then-branch, carrying a documented race between check and write.
func (r *baseRepository) Upsert(ctx context.Context, f filter.Expression, data Entity) (Entity, error) {
	defer r.observe("upsert", time.Now())

	changes, err := r.runBefore(ctx, r.opts.Hooks.BeforeUpdate, r.stampUpdate(data))
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return nil, fmt.Errorf("%w: empty change set", ErrValidation)
	}

	// Equality literals from the filter seed the inserted record; fields the
	// update already carries stay out to avoid conflicting writes.
	onInsert := Entity{}
	for field, value := range f {
		if _, isClause := value.(filter.Clause); isClause {
			continue
		}
		if _, isMap := value.(map[string]any); isMap {
			continue
		}
		if _, taken := changes[field]; !taken {
			onInsert[field] = value
		}
	}
	if r.opts.Timestamps {
		if _, taken := changes[r.opts.CreatedAtField]; !taken {
			onInsert[r.opts.CreatedAtField] = r.now()
		}
	}

	doc, err := r.store.Upsert(ctx, r.scope(f), changes, onInsert)
	if err != nil {
		return nil, r.fail("upsert", err)
	}
	if err := runAfter(ctx, r.opts.Hooks.AfterUpdate, afterResult(doc)); err != nil {
		return doc, err
	}
	return doc, nil
}

func (r *baseRepository) Distinct(ctx context.Context, field string, f filter.Expression) ([]any, error) {
	defer r.observe("distinct", time.Now())

	if field == "" {
		return nil, fmt.Errorf("%w: distinct requires a field name", ErrValidation)
	}
	vals, err := r.store.Distinct(ctx, field, r.scope(f))
	if err != nil {
		return nil, r.fail("distinct", err)
	}
	return vals, nil
}

func (r *baseRepository) Select(ctx context.Context, fields []string, f filter.Expression, opts *FindOptions) ([]Entity, error) {
	defer r.observe("select", time.Now())

	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: select requires at least one field", ErrValidation)
	}
	var o FindOptions
	if opts != nil {
		o = *opts
	}
	o.Fields = fields
	docs, err := r.store.FindMany(ctx, r.scope(f), &o)
	if err != nil {
		return nil, r.fail("select", err)
	}
	return docs, nil
}

// afterResult keeps a nil Entity a plain nil so after-hooks can test
// `result == nil` for the not-found case.
func afterResult(doc Entity) any {
	if doc == nil {
		return nil
	}
	return doc
}
