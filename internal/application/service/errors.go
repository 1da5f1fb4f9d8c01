package service

import "fmt"

// ValidationError indicates a request that can never succeed as given:
// malformed amounts, unknown categories, duplicate active rules,
// match amounts exceeding a remaining balance, or transfer pairings
// that violate the sign/account constraints.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// NewValidationError formats a validation failure.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// OwnershipError indicates the entity exists but belongs to another user.
type OwnershipError struct {
	Entity string
	ID     string
}

func (e *OwnershipError) Error() string {
	return fmt.Sprintf("%s %s does not belong to the requesting user", e.Entity, e.ID)
}

// StateConflictError indicates the entity is in a state that forbids the
// operation right now: matching an already-matched plan, unmatching a
// plan that is not matched, or pairing an already-paired transaction.
type StateConflictError struct {
	Msg string
}

func (e *StateConflictError) Error() string {
	return e.Msg
}

// NewStateConflictError formats a state conflict.
func NewStateConflictError(format string, args ...any) *StateConflictError {
	return &StateConflictError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError indicates the referenced entity does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}
