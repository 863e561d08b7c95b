package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the
	// store. This is the generic version of the entity-specific not found
	// errors (e.g., ErrTaskNotFound, ErrOwnerNotFound).
	ErrNotFound = errors.New("entity not found")

	// ErrUpdateFailed is returned when a record mutation fails, for example
	// because the underlying store rejected the write.
	ErrUpdateFailed = errors.New("update failed")

	// Entity-specific "not found" errors

	// ErrTaskNotFound indicates that the requested task record does not exist.
	ErrTaskNotFound = fmt.Errorf("%w: task", ErrNotFound)

	// ErrOwnerNotFound indicates that the requested owner does not exist in
	// the owner directory.
	ErrOwnerNotFound = fmt.Errorf("%w: owner", ErrNotFound)

	// ErrPlanNotFound indicates that the requested plan does not exist.
	ErrPlanNotFound = fmt.Errorf("%w: plan", ErrNotFound)
)
