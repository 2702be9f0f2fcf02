package bundb

import (
	"fmt"
	"sort"

	"github.com/uptrace/bun"

	"github.com/huynhanx03/go-repository/pkg/database"
	"github.com/huynhanx03/go-repository/pkg/filter"
)

// Where is one native predicate fragment. Fragments are AND-combined by the
// query builder, matching the flat AND semantics of the expression.
type Where struct {
	Expr string
	Args []any
}

// Translate renders the backend-agnostic expression into SQL fragments.
// Pure: the expression is never mutated. Fields and operator tokens are
// visited in sorted order so the generated SQL is deterministic.
func Translate(f filter.Expression) ([]Where, error) {
	fields := make([]string, 0, len(f))
	for field := range f {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var out []Where
	for _, field := range fields {
		clause := filter.ClauseOf(f[field])
		if len(clause) == 0 {
			return nil, fmt.Errorf("%w: empty clause on field %q", database.ErrValidation, field)
		}
		tokens := make([]string, 0, len(clause))
		for token := range clause {
			tokens = append(tokens, token)
		}
		sort.Strings(tokens)

		for _, token := range tokens {
			w, err := translateClause(field, token, clause[token])
			if err != nil {
				return nil, err
			}
			if w != nil {
				out = append(out, *w)
			}
		}
	}
	return out, nil
}

func translateClause(field, token string, operand any) (*Where, error) {
	col := bun.Ident(field)

	switch token {
	case filter.OpEq:
		if operand == nil {
			return &Where{Expr: "? IS NULL", Args: []any{col}}, nil
		}
		return &Where{Expr: "? = ?", Args: []any{col, operand}}, nil
	case filter.OpNe:
		if operand == nil {
			return &Where{Expr: "? IS NOT NULL", Args: []any{col}}, nil
		}
		return &Where{Expr: "? <> ?", Args: []any{col, operand}}, nil
	case filter.OpGt:
		return &Where{Expr: "? > ?", Args: []any{col, operand}}, nil
	case filter.OpGte:
		return &Where{Expr: "? >= ?", Args: []any{col, operand}}, nil
	case filter.OpLt:
		return &Where{Expr: "? < ?", Args: []any{col, operand}}, nil
	case filter.OpLte:
		return &Where{Expr: "? <= ?", Args: []any{col, operand}}, nil
	case filter.OpIn:
		vals, ok := filter.Sequence(operand)
		if !ok {
			return nil, fmt.Errorf("%w: in operand on field %q must be a sequence",
				database.ErrValidation, field)
		}
		// An empty IN list must select zero rows, not drop the filter.
		if len(vals) == 0 {
			return &Where{Expr: "1 = 0"}, nil
		}
		return &Where{Expr: "? IN (?)", Args: []any{col, bun.In(vals)}}, nil
	case filter.OpNin:
		vals, ok := filter.Sequence(operand)
		if !ok {
			return nil, fmt.Errorf("%w: nin operand on field %q must be a sequence",
				database.ErrValidation, field)
		}
		// An empty NOT IN list matches every row: no fragment at all.
		if len(vals) == 0 {
			return nil, nil
		}
		return &Where{Expr: "? NOT IN (?)", Args: []any{col, bun.In(vals)}}, nil
	case filter.OpLike:
		pattern, ok := operand.(string)
		if !ok {
			return nil, fmt.Errorf("%w: like operand on field %q must be a string",
				database.ErrValidation, field)
		}
		return &Where{Expr: "LOWER(?) LIKE LOWER(?)", Args: []any{col, pattern}}, nil
	case filter.OpIsNull:
		if filter.Bool(operand) {
			return &Where{Expr: "? IS NULL", Args: []any{col}}, nil
		}
		return &Where{Expr: "? IS NOT NULL", Args: []any{col}}, nil
	case filter.OpNotNull:
		if filter.Bool(operand) {
			return &Where{Expr: "? IS NOT NULL", Args: []any{col}}, nil
		}
		return &Where{Expr: "? IS NULL", Args: []any{col}}, nil
	case filter.OpExists:
		// Columns always exist in a relational schema; presence degrades to
		// the null check.
		if filter.Bool(operand) {
			return &Where{Expr: "? IS NOT NULL", Args: []any{col}}, nil
		}
		return &Where{Expr: "? IS NULL", Args: []any{col}}, nil
	default:
		return nil, &filter.UnsupportedOperatorError{Field: field, Operator: token}
	}
}
