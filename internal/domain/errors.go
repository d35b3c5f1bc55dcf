package domain

import "errors"

var (
	// ErrValidation marks a record missing a required field.
	ErrValidation = errors.New("validation failed")

	// ErrDuplicate marks a uniqueness-constraint collision surfaced to callers
	// that must not treat it as silent success (e.g. double-subscribing).
	ErrDuplicate = errors.New("already exists")
)
