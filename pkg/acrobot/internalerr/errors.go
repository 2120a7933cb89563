// Package internalerr defines the sentinel errors shared across the
// bot's packages. Callers wrap them with %w and match with errors.Is.
package internalerr

import "errors"

var (
	// ErrNotFound reports a lookup that matched no acronym, scope, or
	// author.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput reports a record missing a required field.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDuplicate reports an acronym whose name is already held by an
	// enabled entry in the same scope.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrStoreUnavailable reports a store that could not be opened or
	// prepared.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrInvalidConfig reports a configuration that parsed but failed
	// validation.
	ErrInvalidConfig = errors.New("invalid configuration")
)
