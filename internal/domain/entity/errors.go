package entity

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain layer operations.
var (
	// ErrNotFound indicates that a requested entity was not found
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicateURL indicates that an article with the same URL already
	// exists. Discovery treats this as an expected outcome of racing runs
	// and swallows it.
	ErrDuplicateURL = errors.New("article URL already exists")

	// ErrInvalidState indicates an unknown or disallowed lifecycle state.
	ErrInvalidState = errors.New("invalid article state")
)

// ConflictError reports a rejected state transition, carrying the record id
// and the transition that was attempted.
type ConflictError struct {
	ID    int64
	State ArticleState
}

// Error returns a formatted message describing the rejected transition.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("article %d is no longer pending, cannot transition to %q", e.ID, e.State)
}
