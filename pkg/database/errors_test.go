package database

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/huynhanx03/go-repository/pkg/filter"
)

func TestWrapBackend(t *testing.T) {
	assert.Nil(t, WrapBackend("mongodb", "findOne", nil))

	native := errors.New("connection reset")
	err := WrapBackend("mongodb", "findOne", native)

	var be *BackendError
	assert.ErrorAs(t, err, &be)
	assert.Equal(t, "mongodb", be.Backend)
	assert.Equal(t, "findOne", be.Op)
	assert.ErrorIs(t, err, native, "the native cause survives unwrapping")
}

func TestWrapBackend_SentinelsPassThrough(t *testing.T) {
	for _, sentinel := range []error{ErrNotConnected, ErrInvalidID, ErrValidation} {
		err := WrapBackend("bundb", "updateOne", sentinel)
		assert.Same(t, sentinel, err)
	}
}

func TestWrapBackend_FilterErrorPassesThrough(t *testing.T) {
	uo := &filter.UnsupportedOperatorError{Field: "age", Operator: "between"}
	err := WrapBackend("bundb", "findMany", uo)
	assert.Same(t, error(uo), err)
}

func TestWrapBackend_NoDoubleWrap(t *testing.T) {
	inner := WrapBackend("mongodb", "count", errors.New("timeout"))
	outer := WrapBackend("mongodb", "findPage", inner)
	assert.Same(t, inner, outer)
}

func TestEntityCloneAndMerge(t *testing.T) {
	orig := Entity{"name": "alice", "age": 30}
	clone := orig.Clone()
	clone["name"] = "bob"
	assert.Equal(t, "alice", orig["name"])

	orig.Merge(Entity{"age": 31, "city": "hanoi"})
	assert.Equal(t, Entity{"name": "alice", "age": 31, "city": "hanoi"}, orig)

	var nilEntity Entity
	clone = nilEntity.Clone()
	assert.NotNil(t, clone, "cloning nil yields a stampable entity")
	assert.Empty(t, clone)
}
