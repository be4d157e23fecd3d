package core

import (
	"errors"
	"fmt"
)

// ErrBalanceNotInitialized is returned by every read of the balance before
// the first SetInitialBalance. Callers branch on it to route into setup.
var ErrBalanceNotInitialized = errors.New("cash flow balance has not been initialized, please set an initial balance")

// ValidationError reports a caller-supplied field that violates a rule.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s", e.Field, e.Reason)
}

// NotFoundError reports a missing resource.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with id '%s' not found", e.Resource, e.ID)
}

// StorageError wraps an unexpected persistence failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation '%s' failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsStorage reports whether err is or wraps a StorageError.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// IsDomain reports whether err belongs to the ledger's own taxonomy and must
// be surfaced as-is rather than wrapped as a storage failure.
func IsDomain(err error) bool {
	return IsValidation(err) || IsNotFound(err) || IsStorage(err) ||
		errors.Is(err, ErrBalanceNotInitialized)
}
