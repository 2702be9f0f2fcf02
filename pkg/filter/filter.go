// Package filter defines the backend-agnostic query expression shared by all
// repository backends. An Expression maps field names to either a literal
// (equality shortcut) or a Clause mapping operator tokens to operands.
// Translation into a native predicate is owned by each backend package.
package filter

import (
	"fmt"
	"reflect"
)

// Supported operator tokens.
const (
	OpEq      = "eq"
	OpNe      = "ne"
	OpGt      = "gt"
	OpGte     = "gte"
	OpLt      = "lt"
	OpLte     = "lte"
	OpIn      = "in"
	OpNin     = "nin"
	OpLike    = "like"
	OpIsNull  = "isNull"
	OpNotNull = "notNull"
	OpExists  = "exists"
)

// Expression maps a field name to a literal value or a Clause.
// Multiple fields are AND-combined.
type Expression map[string]any

// Clause maps an operator token to its operand. At most one Clause per field.
type Clause map[string]any

var operators = map[string]struct{}{
	OpEq: {}, OpNe: {}, OpGt: {}, OpGte: {}, OpLt: {}, OpLte: {},
	OpIn: {}, OpNin: {}, OpLike: {}, OpIsNull: {}, OpNotNull: {}, OpExists: {},
}

// IsOperator reports whether token is a recognized operator.
func IsOperator(token string) bool {
	_, ok := operators[token]
	return ok
}

// UnsupportedOperatorError is returned when an Expression carries an operator
// token no backend understands. Unknown tokens are never silently ignored.
type UnsupportedOperatorError struct {
	Field    string
	Operator string
}

func (e *UnsupportedOperatorError) Error() string {
	return fmt.Sprintf("filter: unsupported operator %q on field %q", e.Operator, e.Field)
}

// ClauseOf normalizes the value stored for a field: a literal becomes an
// equality Clause, an existing Clause (or raw map) is returned as-is.
func ClauseOf(value any) Clause {
	switch v := value.(type) {
	case Clause:
		return v
	case map[string]any:
		return Clause(v)
	default:
		return Clause{OpEq: v}
	}
}

// With returns a copy of expr with an additional clause on field, overriding
// any caller-supplied clause for the same field. Used by the soft-delete
// policy to AND its scope into every filter before translation.
func With(expr Expression, field string, clause Clause) Expression {
	out := make(Expression, len(expr)+1)
	for k, v := range expr {
		out[k] = v
	}
	out[field] = clause
	return out
}

// Sequence converts an `in`/`nin` operand into a []any. The second return is
// false when the operand is not a slice or array.
func Sequence(operand any) ([]any, bool) {
	if operand == nil {
		return nil, false
	}
	if vals, ok := operand.([]any); ok {
		return vals, true
	}
	rv := reflect.ValueOf(operand)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// Bool coerces a null/presence-check operand. A nil operand defaults to true
// so `{"isNull": nil}` reads as "is null".
func Bool(operand any) bool {
	if operand == nil {
		return true
	}
	b, ok := operand.(bool)
	return !ok || b
}
