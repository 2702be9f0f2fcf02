package mongodb

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/huynhanx03/go-repository/pkg/database"
	"github.com/huynhanx03/go-repository/pkg/filter"
)

// Translate renders the backend-agnostic expression into a bson predicate.
// Pure: the expression is never mutated. Fragments for one field collapse
// into a single operator document, which MongoDB ANDs natively, matching the
// flat AND across fields.
func Translate(f filter.Expression, idField string) (bson.M, error) {
	pred := bson.M{}
	for field, value := range f {
		clause := filter.ClauseOf(value)
		if len(clause) == 0 {
			return nil, fmt.Errorf("%w: empty clause on field %q", database.ErrValidation, field)
		}
		ops := bson.M{}
		for token, operand := range clause {
			switch token {
			case filter.OpEq:
				ops["$eq"] = normalizeID(field, idField, operand)
			case filter.OpNe:
				ops["$ne"] = normalizeID(field, idField, operand)
			case filter.OpGt:
				ops["$gt"] = operand
			case filter.OpGte:
				ops["$gte"] = operand
			case filter.OpLt:
				ops["$lt"] = operand
			case filter.OpLte:
				ops["$lte"] = operand
			case filter.OpIn, filter.OpNin:
				vals, ok := filter.Sequence(operand)
				if !ok {
					return nil, fmt.Errorf("%w: %s operand on field %q must be a sequence",
						database.ErrValidation, token, field)
				}
				normalized := make([]any, len(vals))
				for i := range vals {
					normalized[i] = normalizeID(field, idField, vals[i])
				}
				// An empty $in matches nothing and an empty $nin matches
				// everything, which is exactly the contract.
				if token == filter.OpIn {
					ops["$in"] = normalized
				} else {
					ops["$nin"] = normalized
				}
			case filter.OpLike:
				pattern, ok := operand.(string)
				if !ok {
					return nil, fmt.Errorf("%w: like operand on field %q must be a string",
						database.ErrValidation, field)
				}
				ops["$regex"] = primitive.Regex{Pattern: pattern, Options: "i"}
			case filter.OpIsNull:
				if filter.Bool(operand) {
					ops["$eq"] = nil
				} else {
					ops["$ne"] = nil
				}
			case filter.OpNotNull:
				if filter.Bool(operand) {
					ops["$ne"] = nil
				} else {
					ops["$eq"] = nil
				}
			case filter.OpExists:
				ops["$exists"] = filter.Bool(operand)
			default:
				return nil, &filter.UnsupportedOperatorError{Field: field, Operator: token}
			}
		}
		pred[field] = ops
	}
	return pred, nil
}

// normalizeID converts hex strings targeting the identifier field into
// ObjectIDs so callers can filter by the string form the API layer carries.
func normalizeID(field, idField string, value any) any {
	if field != idField {
		return value
	}
	s, ok := value.(string)
	if !ok {
		return value
	}
	if oid, err := primitive.ObjectIDFromHex(s); err == nil {
		return oid
	}
	return value
}

func buildSort(sorts []database.Sort) bson.D {
	out := bson.D{}
	for _, s := range sorts {
		if s.Field == "" {
			continue
		}
		order := 1
		if s.Order == -1 {
			order = -1
		}
		out = append(out, bson.E{Key: s.Field, Value: order})
	}
	return out
}

func buildProjection(fields []string) bson.D {
	out := bson.D{}
	for _, f := range fields {
		if f == "" {
			continue
		}
		out = append(out, bson.E{Key: f, Value: 1})
	}
	return out
}
