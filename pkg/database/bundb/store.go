// Package bundb implements the relational backend of the repository layer on
// top of the Bun query builder. PostgreSQL, MySQL and SQLite dialects are
// supported; single-row update read-back uses RETURNING where the dialect has
// it and a keyed follow-up select otherwise (MySQL).
package bundb

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/huynhanx03/go-repository/pkg/database"
	"github.com/huynhanx03/go-repository/pkg/filter"
)

const backendName = "bundb"

// DefaultPrimaryKey is the relational identifier column.
const DefaultPrimaryKey = "id"

// sqlStore provides the primitive operation set over one table. db is either
// the root *bun.DB or a bun.Tx when transaction-bound. Missing primary keys
// are filled with UUIDs on insert, so every returned entity is addressable.
type sqlStore struct {
	db           bun.IDB
	table        string
	pk           string
	hasReturning bool
}

var _ database.Store = (*sqlStore)(nil)

func (s *sqlStore) Name() string { return s.table }

func (s *sqlStore) InsertOne(ctx context.Context, doc database.Entity) (database.Entity, error) {
	out := doc.Clone()
	if _, ok := out[s.pk]; !ok {
		out[s.pk] = uuid.NewString()
	}
	m := map[string]any(out)
	if _, err := s.db.NewInsert().Model(&m).Table(s.table).Exec(ctx); err != nil {
		return nil, database.WrapBackend(backendName, "insertOne", err)
	}
	return out, nil
}

// InsertMany persists the batch with one multi-row INSERT. Bun's map models
// are single-row only, so the statement is composed by hand: columns are the
// sorted union of the batch's fields and absent fields insert NULL.
func (s *sqlStore) InsertMany(ctx context.Context, docs []database.Entity) ([]database.Entity, error) {
	if len(docs) == 0 {
		return []database.Entity{}, nil
	}
	out := make([]database.Entity, len(docs))
	colSet := map[string]struct{}{}
	for i, d := range docs {
		doc := d.Clone()
		if _, ok := doc[s.pk]; !ok {
			doc[s.pk] = uuid.NewString()
		}
		out[i] = doc
		for k := range doc {
			colSet[k] = struct{}{}
		}
	}
	cols := make([]string, 0, len(colSet))
	for c := range colSet {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	var b strings.Builder
	args := make([]any, 0, 1+len(cols)*(len(out)+1))
	b.WriteString("INSERT INTO ? (")
	args = append(args, bun.Ident(s.table))
	for i, c := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("?")
		args = append(args, bun.Ident(c))
	}
	b.WriteString(") VALUES")
	for ri, row := range out {
		if ri > 0 {
			b.WriteString(",")
		}
		b.WriteString(" (")
		for ci, c := range cols {
			if ci > 0 {
				b.WriteString(", ")
			}
			b.WriteString("?")
			args = append(args, row[c])
		}
		b.WriteString(")")
	}
	if _, err := s.db.NewRaw(b.String(), args...).Exec(ctx); err != nil {
		return nil, database.WrapBackend(backendName, "insertMany", err)
	}
	return out, nil
}

func (s *sqlStore) FindOne(ctx context.Context, f filter.Expression, opts *database.FindOptions) (database.Entity, error) {
	var o database.FindOptions
	if opts != nil {
		o = *opts
	}
	o.Limit = 1
	docs, err := s.FindMany(ctx, f, &o)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return docs[0], nil
}

func (s *sqlStore) FindMany(ctx context.Context, f filter.Expression, opts *database.FindOptions) ([]database.Entity, error) {
	wheres, err := Translate(f)
	if err != nil {
		return nil, err
	}
	q := s.db.NewSelect().Table(s.table)
	for _, w := range wheres {
		q = q.Where(w.Expr, w.Args...)
	}
	if opts != nil {
		if len(opts.Fields) > 0 {
			q = q.Column(opts.Fields...)
		}
		for _, so := range opts.Sort {
			if so.Field == "" {
				continue
			}
			if so.Order == -1 {
				q = q.OrderExpr("? DESC", bun.Ident(so.Field))
			} else {
				q = q.OrderExpr("? ASC", bun.Ident(so.Field))
			}
		}
		if opts.Limit > 0 {
			q = q.Limit(opts.Limit)
		}
		if opts.Offset > 0 {
			q = q.Offset(opts.Offset)
		}
	}

	var rows []map[string]any
	if err := q.Scan(ctx, &rows); err != nil {
		return nil, database.WrapBackend(backendName, "select", err)
	}
	out := make([]database.Entity, len(rows))
	for i, r := range rows {
		out[i] = database.Entity(r)
	}
	return out, nil
}

// UpdateOne updates the (at most one, key-scoped by the caller) matching row
// and returns it, or nil when nothing matched.
func (s *sqlStore) UpdateOne(ctx context.Context, f filter.Expression, changes database.Entity) (database.Entity, error) {
	wheres, err := Translate(f)
	if err != nil {
		return nil, err
	}
	m := map[string]any(changes.Clone())
	q := s.db.NewUpdate().Model(&m).Table(s.table)
	for _, w := range wheres {
		q = q.Where(w.Expr, w.Args...)
	}

	if s.hasReturning {
		var row map[string]any
		if _, err := q.Returning("*").Exec(ctx, &row); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, nil
			}
			return nil, database.WrapBackend(backendName, "updateOne", err)
		}
		return database.Entity(row), nil
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return nil, database.WrapBackend(backendName, "updateOne", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, nil
	}
	// Read back by key: the original filter may no longer match the updated
	// row (soft delete flips the implicit scope).
	readback := f
	if id, ok := f[s.pk]; ok {
		readback = filter.Expression{s.pk: id}
	}
	return s.FindOne(ctx, readback, nil)
}

func (s *sqlStore) UpdateMany(ctx context.Context, f filter.Expression, changes database.Entity) (int64, error) {
	wheres, err := Translate(f)
	if err != nil {
		return 0, err
	}
	m := map[string]any(changes.Clone())
	q := s.db.NewUpdate().Model(&m).Table(s.table)
	for _, w := range wheres {
		q = q.Where(w.Expr, w.Args...)
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return 0, database.WrapBackend(backendName, "updateMany", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, database.WrapBackend(backendName, "updateMany", err)
	}
	return n, nil
}

func (s *sqlStore) DeleteOne(ctx context.Context, f filter.Expression) (bool, error) {
	n, err := s.DeleteMany(ctx, f)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *sqlStore) DeleteMany(ctx context.Context, f filter.Expression) (int64, error) {
	wheres, err := Translate(f)
	if err != nil {
		return 0, err
	}
	q := s.db.NewDelete().Table(s.table)
	for _, w := range wheres {
		q = q.Where(w.Expr, w.Args...)
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return 0, database.WrapBackend(backendName, "deleteMany", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, database.WrapBackend(backendName, "deleteMany", err)
	}
	return n, nil
}

func (s *sqlStore) Count(ctx context.Context, f filter.Expression) (int64, error) {
	wheres, err := Translate(f)
	if err != nil {
		return 0, err
	}
	q := s.db.NewSelect().Table(s.table)
	for _, w := range wheres {
		q = q.Where(w.Expr, w.Args...)
	}
	n, err := q.Count(ctx)
	if err != nil {
		return 0, database.WrapBackend(backendName, "count", err)
	}
	return int64(n), nil
}

func (s *sqlStore) Distinct(ctx context.Context, field string, f filter.Expression) ([]any, error) {
	wheres, err := Translate(f)
	if err != nil {
		return nil, err
	}
	q := s.db.NewSelect().
		ColumnExpr("DISTINCT ? AS ?", bun.Ident(field), bun.Ident(field)).
		Table(s.table)
	for _, w := range wheres {
		q = q.Where(w.Expr, w.Args...)
	}
	var rows []map[string]any
	if err := q.Scan(ctx, &rows); err != nil {
		return nil, database.WrapBackend(backendName, "distinct", err)
	}
	out := make([]any, 0, len(rows))
	for _, r := range rows {
		out = append(out, r[field])
	}
	return out, nil
}

// Upsert is find-then-branch: SQL has no generic atomic upsert for arbitrary
// filters (ON CONFLICT needs a unique constraint). The window between the
// existence check and the write is a documented limitation; concurrent
// upserts on the same key may both insert.
func (s *sqlStore) Upsert(ctx context.Context, f filter.Expression, changes, onInsert database.Entity) (database.Entity, error) {
	found, err := s.FindOne(ctx, f, nil)
	if err != nil {
		return nil, err
	}
	if found != nil {
		return s.UpdateOne(ctx, filter.Expression{s.pk: found[s.pk]}, changes)
	}
	doc := onInsert.Clone()
	doc.Merge(changes)
	return s.InsertOne(ctx, doc)
}
