package mongodb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/huynhanx03/go-repository/pkg/database"
	"github.com/huynhanx03/go-repository/pkg/filter"
)

func TestTranslate_ShorthandEquality(t *testing.T) {
	pred, err := Translate(filter.Expression{"name": "alice"}, "_id")
	require.NoError(t, err)
	assert.Equal(t, bson.M{"name": bson.M{"$eq": "alice"}}, pred)
}

func TestTranslate_ComparisonClause(t *testing.T) {
	pred, err := Translate(filter.Expression{
		"age": filter.Clause{filter.OpGte: 18, filter.OpLt: 65},
	}, "_id")
	require.NoError(t, err)
	assert.Equal(t, bson.M{"age": bson.M{"$gte": 18, "$lt": 65}}, pred)
}

func TestTranslate_InAndNin(t *testing.T) {
	pred, err := Translate(filter.Expression{
		"status": filter.Clause{filter.OpIn: []string{"active", "trial"}},
	}, "_id")
	require.NoError(t, err)
	assert.Equal(t, bson.M{"status": bson.M{"$in": []any{"active", "trial"}}}, pred)

	pred, err = Translate(filter.Expression{
		"status": filter.Clause{filter.OpNin: []any{"banned"}},
	}, "_id")
	require.NoError(t, err)
	assert.Equal(t, bson.M{"status": bson.M{"$nin": []any{"banned"}}}, pred)
}

func TestTranslate_EmptyIn(t *testing.T) {
	// Empty $in matches nothing; empty $nin matches everything. Both render
	// as-is and Mongo applies those semantics natively.
	pred, err := Translate(filter.Expression{
		"status": filter.Clause{filter.OpIn: []string{}},
	}, "_id")
	require.NoError(t, err)
	assert.Equal(t, bson.M{"status": bson.M{"$in": []any{}}}, pred)
}

func TestTranslate_InRequiresSequence(t *testing.T) {
	_, err := Translate(filter.Expression{
		"status": filter.Clause{filter.OpIn: "active"},
	}, "_id")
	assert.ErrorIs(t, err, database.ErrValidation)
}

func TestTranslate_Like(t *testing.T) {
	pred, err := Translate(filter.Expression{
		"name": filter.Clause{filter.OpLike: "^ali"},
	}, "_id")
	require.NoError(t, err)
	assert.Equal(t, bson.M{"name": bson.M{"$regex": primitive.Regex{Pattern: "^ali", Options: "i"}}}, pred)

	_, err = Translate(filter.Expression{
		"name": filter.Clause{filter.OpLike: 42},
	}, "_id")
	assert.ErrorIs(t, err, database.ErrValidation)
}

func TestTranslate_NullChecks(t *testing.T) {
	pred, err := Translate(filter.Expression{
		"deletedAt": filter.Clause{filter.OpIsNull: true},
	}, "_id")
	require.NoError(t, err)
	assert.Equal(t, bson.M{"deletedAt": bson.M{"$eq": nil}}, pred)

	pred, err = Translate(filter.Expression{
		"deletedAt": filter.Clause{filter.OpNotNull: true},
	}, "_id")
	require.NoError(t, err)
	assert.Equal(t, bson.M{"deletedAt": bson.M{"$ne": nil}}, pred)

	pred, err = Translate(filter.Expression{
		"deletedAt": filter.Clause{filter.OpIsNull: false},
	}, "_id")
	require.NoError(t, err)
	assert.Equal(t, bson.M{"deletedAt": bson.M{"$ne": nil}}, pred)
}

func TestTranslate_Exists(t *testing.T) {
	pred, err := Translate(filter.Expression{
		"nickname": filter.Clause{filter.OpExists: false},
	}, "_id")
	require.NoError(t, err)
	assert.Equal(t, bson.M{"nickname": bson.M{"$exists": false}}, pred)
}

func TestTranslate_EmptyClause(t *testing.T) {
	_, err := Translate(filter.Expression{"age": filter.Clause{}}, "_id")
	assert.ErrorIs(t, err, database.ErrValidation)
}

func TestTranslate_UnsupportedOperator(t *testing.T) {
	_, err := Translate(filter.Expression{
		"age": filter.Clause{"between": []int{1, 2}},
	}, "_id")

	var uo *filter.UnsupportedOperatorError
	require.ErrorAs(t, err, &uo)
	assert.Equal(t, "age", uo.Field)
	assert.Equal(t, "between", uo.Operator)
}

func TestTranslate_NormalizesObjectID(t *testing.T) {
	oid := primitive.NewObjectID()

	pred, err := Translate(filter.Expression{"_id": oid.Hex()}, "_id")
	require.NoError(t, err)
	assert.Equal(t, bson.M{"_id": bson.M{"$eq": oid}}, pred)

	// Inside sequences too.
	pred, err = Translate(filter.Expression{
		"_id": filter.Clause{filter.OpIn: []string{oid.Hex()}},
	}, "_id")
	require.NoError(t, err)
	assert.Equal(t, bson.M{"_id": bson.M{"$in": []any{oid}}}, pred)

	// Non-hex strings and other fields stay untouched.
	pred, err = Translate(filter.Expression{"_id": "custom-key"}, "_id")
	require.NoError(t, err)
	assert.Equal(t, bson.M{"_id": bson.M{"$eq": "custom-key"}}, pred)

	pred, err = Translate(filter.Expression{"ref": oid.Hex()}, "_id")
	require.NoError(t, err)
	assert.Equal(t, bson.M{"ref": bson.M{"$eq": oid.Hex()}}, pred)
}

func TestTranslate_DoesNotMutateInput(t *testing.T) {
	f := filter.Expression{"age": filter.Clause{filter.OpGte: 18}}
	_, err := Translate(f, "_id")
	require.NoError(t, err)
	assert.Equal(t, filter.Expression{"age": filter.Clause{filter.OpGte: 18}}, f)
}

func TestBuildSort(t *testing.T) {
	d := buildSort([]database.Sort{
		{Field: "createdAt", Order: -1},
		{Field: "name"},
		{Field: ""},
	})
	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}, {Key: "name", Value: 1}}, d)
}

func TestBuildProjection(t *testing.T) {
	d := buildProjection([]string{"name", "", "email"})
	assert.Equal(t, bson.D{{Key: "name", Value: 1}, {Key: "email", Value: 1}}, d)
}
