package database

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/huynhanx03/go-repository/pkg/filter"
)

// memStore is an in-memory Store used to exercise the orchestrator without a
// backend. It evaluates the agnostic expression directly and counts calls so
// tests can assert on round trips.
type memStore struct {
	pk    string
	rows  []Entity
	calls map[string]int
	seq   int
}

func newMemStore(pk string) *memStore {
	return &memStore{pk: pk, calls: map[string]int{}}
}

func (m *memStore) Name() string { return "mem" }

func (m *memStore) called(op string) { m.calls[op]++ }

func (m *memStore) InsertOne(_ context.Context, doc Entity) (Entity, error) {
	m.called("insertOne")
	return m.insert(doc), nil
}

func (m *memStore) insert(doc Entity) Entity {
	row := doc.Clone()
	if _, ok := row[m.pk]; !ok {
		m.seq++
		row[m.pk] = fmt.Sprintf("mem-%d", m.seq)
	}
	m.rows = append(m.rows, row)
	return row.Clone()
}

func (m *memStore) InsertMany(_ context.Context, docs []Entity) ([]Entity, error) {
	m.called("insertMany")
	out := make([]Entity, len(docs))
	for i, d := range docs {
		out[i] = m.insert(d)
	}
	return out, nil
}

func (m *memStore) FindOne(_ context.Context, f filter.Expression, opts *FindOptions) (Entity, error) {
	m.called("findOne")
	for _, row := range m.rows {
		if m.match(row, f) {
			return project(row, opts), nil
		}
	}
	return nil, nil
}

func (m *memStore) FindMany(_ context.Context, f filter.Expression, opts *FindOptions) ([]Entity, error) {
	m.called("findMany")
	out := []Entity{}
	for _, row := range m.rows {
		if m.match(row, f) {
			out = append(out, row.Clone())
		}
	}
	if opts != nil {
		for i := len(opts.Sort) - 1; i >= 0; i-- {
			so := opts.Sort[i]
			sort.SliceStable(out, func(a, b int) bool {
				if so.Order == -1 {
					return less(out[b][so.Field], out[a][so.Field])
				}
				return less(out[a][so.Field], out[b][so.Field])
			})
		}
		if opts.Offset > 0 {
			if opts.Offset >= len(out) {
				out = []Entity{}
			} else {
				out = out[opts.Offset:]
			}
		}
		if opts.Limit > 0 && opts.Limit < len(out) {
			out = out[:opts.Limit]
		}
		for i := range out {
			out[i] = project(out[i], opts)
		}
	}
	return out, nil
}

func (m *memStore) UpdateOne(_ context.Context, f filter.Expression, changes Entity) (Entity, error) {
	m.called("updateOne")
	for _, row := range m.rows {
		if m.match(row, f) {
			row.Merge(changes)
			return row.Clone(), nil
		}
	}
	return nil, nil
}

func (m *memStore) UpdateMany(_ context.Context, f filter.Expression, changes Entity) (int64, error) {
	m.called("updateMany")
	var n int64
	for _, row := range m.rows {
		if m.match(row, f) {
			row.Merge(changes)
			n++
		}
	}
	return n, nil
}

func (m *memStore) DeleteOne(_ context.Context, f filter.Expression) (bool, error) {
	m.called("deleteOne")
	for i, row := range m.rows {
		if m.match(row, f) {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) DeleteMany(_ context.Context, f filter.Expression) (int64, error) {
	m.called("deleteMany")
	kept := m.rows[:0]
	var n int64
	for _, row := range m.rows {
		if m.match(row, f) {
			n++
			continue
		}
		kept = append(kept, row)
	}
	m.rows = kept
	return n, nil
}

func (m *memStore) Count(_ context.Context, f filter.Expression) (int64, error) {
	m.called("count")
	var n int64
	for _, row := range m.rows {
		if m.match(row, f) {
			n++
		}
	}
	return n, nil
}

func (m *memStore) Distinct(_ context.Context, field string, f filter.Expression) ([]any, error) {
	m.called("distinct")
	seen := map[any]struct{}{}
	out := []any{}
	for _, row := range m.rows {
		if !m.match(row, f) {
			continue
		}
		v := row[field]
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out, nil
}

func (m *memStore) Upsert(_ context.Context, f filter.Expression, changes, onInsert Entity) (Entity, error) {
	m.called("upsert")
	for _, row := range m.rows {
		if m.match(row, f) {
			row.Merge(changes)
			return row.Clone(), nil
		}
	}
	doc := onInsert.Clone()
	doc.Merge(changes)
	return m.insert(doc), nil
}

func project(row Entity, opts *FindOptions) Entity {
	if opts == nil || len(opts.Fields) == 0 {
		return row.Clone()
	}
	out := Entity{}
	for _, f := range opts.Fields {
		if v, ok := row[f]; ok {
			out[f] = v
		}
	}
	return out
}

func (m *memStore) match(row Entity, f filter.Expression) bool {
	for field, value := range f {
		for token, operand := range filter.ClauseOf(value) {
			if !matches(row, field, token, operand) {
				return false
			}
		}
	}
	return true
}

func matches(row Entity, field, token string, operand any) bool {
	value, present := row[field]
	isNull := !present || value == nil

	switch token {
	case filter.OpEq:
		if operand == nil {
			return isNull
		}
		return eq(value, operand)
	case filter.OpNe:
		if operand == nil {
			return !isNull
		}
		return !eq(value, operand)
	case filter.OpGt:
		return !isNull && less(operand, value)
	case filter.OpGte:
		return !isNull && !less(value, operand)
	case filter.OpLt:
		return !isNull && less(value, operand)
	case filter.OpLte:
		return !isNull && !less(operand, value)
	case filter.OpIn:
		vals, _ := filter.Sequence(operand)
		for _, v := range vals {
			if eq(value, v) {
				return true
			}
		}
		return false
	case filter.OpNin:
		vals, _ := filter.Sequence(operand)
		for _, v := range vals {
			if eq(value, v) {
				return false
			}
		}
		return true
	case filter.OpLike:
		pattern, _ := operand.(string)
		s, _ := value.(string)
		needle := strings.ToLower(strings.Trim(pattern, "%"))
		return strings.Contains(strings.ToLower(s), needle)
	case filter.OpIsNull:
		return isNull == filter.Bool(operand)
	case filter.OpNotNull:
		return isNull != filter.Bool(operand)
	case filter.OpExists:
		return present == filter.Bool(operand)
	default:
		return false
	}
}

func eq(a, b any) bool {
	if af, aok := toFloat(a); aok {
		bf, bok := toFloat(b)
		return bok && af == bf
	}
	if at, aok := a.(time.Time); aok {
		bt, bok := b.(time.Time)
		return bok && at.Equal(bt)
	}
	return a == b
}

func less(a, b any) bool {
	if af, aok := toFloat(a); aok {
		bf, bok := toFloat(b)
		return bok && af < bf
	}
	if at, aok := a.(time.Time); aok {
		bt, bok := b.(time.Time)
		return bok && at.Before(bt)
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	return aok && bok && as < bs
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
