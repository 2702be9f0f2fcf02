package database

import (
	"errors"
	"fmt"

	"github.com/huynhanx03/go-repository/pkg/filter"
)

var (
	// ErrNotConnected is returned when an operation is attempted against a
	// nil or closed backend handle, before any network round trip.
	ErrNotConnected = errors.New("database: not connected")

	// ErrInvalidID is returned for nil or empty identifiers.
	ErrInvalidID = errors.New("database: invalid identifier")

	// ErrValidation is returned for malformed input: empty field names,
	// non-sequence operands for in/nin, empty change sets, bad options.
	ErrValidation = errors.New("database: validation failed")
)

// BackendError wraps a native store error. The cause is preserved through
// Unwrap so driver-specific checks (errors.Is/As) keep working.
type BackendError struct {
	Backend string
	Op      string
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Backend, e.Op, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// WrapBackend annotates a native error with the backend and operation name.
// Sentinel and filter errors pass through untouched so the taxonomy stays flat.
func WrapBackend(backend, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotConnected) || errors.Is(err, ErrInvalidID) || errors.Is(err, ErrValidation) {
		return err
	}
	var uo *filter.UnsupportedOperatorError
	if errors.As(err, &uo) {
		return err
	}
	var be *BackendError
	if errors.As(err, &be) {
		return err
	}
	return &BackendError{Backend: backend, Op: op, Err: err}
}
