package database

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const (
	defaultCreatedAtField  = "createdAt"
	defaultUpdatedAtField  = "updatedAt"
	defaultSoftDeleteField = "deletedAt"
	defaultPageLimit       = 20
)

var validate = validator.New()

// Options configures a repository. Immutable once the repository is
// constructed: NewRepository copies the struct and resolved defaults in.
type Options struct {
	// PrimaryKey is the identifier field. Backend factories default it
	// ("id" for relational tables, "_id" for document collections).
	PrimaryKey string `validate:"required"`

	// Timestamps enables createdAt/updatedAt stamping.
	Timestamps     bool
	CreatedAtField string
	UpdatedAtField string

	// SoftDelete rewrites deletes into updates of SoftDeleteField and scopes
	// every read to non-deleted records. It also unlocks the
	// SoftDeleteRepository capability on the constructed repository.
	SoftDelete      bool
	SoftDeleteField string

	// DefaultLimit is the page size used when a PageRequest carries none.
	DefaultLimit int `validate:"min=0"`

	Hooks  Hooks
	Logger *zap.Logger
}

func (o *Options) setDefaults() {
	if o.CreatedAtField == "" {
		o.CreatedAtField = defaultCreatedAtField
	}
	if o.UpdatedAtField == "" {
		o.UpdatedAtField = defaultUpdatedAtField
	}
	if o.SoftDeleteField == "" {
		o.SoftDeleteField = defaultSoftDeleteField
	}
	if o.DefaultLimit <= 0 {
		o.DefaultLimit = defaultPageLimit
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

func (o *Options) validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

// Sort is one ordering rule. Order follows the teacher convention:
// 1 (or 0) ascending, -1 descending.
type Sort struct {
	Field string
	Order int
}

// FindOptions tunes read operations. A nil *FindOptions is valid everywhere.
type FindOptions struct {
	Sort   []Sort
	Limit  int
	Offset int
	// Fields projects the result to the named fields when non-empty.
	Fields []string
}
