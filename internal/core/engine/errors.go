package engine

import "errors"

var (
	// ErrUserRequired is returned when no user id is supplied.
	ErrUserRequired = errors.New("user id is required")
	// ErrUnknownTask is returned for task ids missing from the catalog.
	ErrUnknownTask = errors.New("unknown task")
)
