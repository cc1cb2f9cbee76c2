/*
errors.go - Centralized error types for the ledger engines

PURPOSE:
  All error types in one place for consistency and discoverability.
  Every engine operation returns either a success value or one of these.

ERROR CATEGORIES:
  1. Validation errors  - Bad input (empty reason, non-positive amount, ...)
  2. Not-found errors   - Unknown member / due entry / record id
  3. Authorization errors - Actor lacks the required role
  4. Persistence errors - Store read/write failures (fatal)

USAGE:
  Callers match with errors.Is / errors.As:

    if errors.Is(err, ledger.ErrUnauthorized) { ... }
    var vErr *ledger.ValidationError
    if errors.As(err, &vErr) { ... }
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the base of all bad-input failures.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a referenced member or record doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized is returned when the actor lacks the required role.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrPersistence is returned when the backing store fails. Fatal: the
	// operation gives no partial-state guarantee beyond "collections not yet
	// written keep their prior in-memory value".
	ErrPersistence = errors.New("persistence failure")

	// ErrDuplicateApartment is returned when registering a member with an
	// apartment number that is already taken. Apartment uniqueness is a hard
	// invariant.
	ErrDuplicateApartment = errors.New("apartment already registered")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError provides details about a rejected input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NotFoundError identifies the missing entity.
type NotFoundError struct {
	Kind string // "member", "due entry", "receipt", ...
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// AuthorizationError records which action the actor was denied.
type AuthorizationError struct {
	ActorID string
	Action  string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("actor %s is not allowed to %s", e.ActorID, e.Action)
}

func (e *AuthorizationError) Unwrap() error { return ErrUnauthorized }

// ExcessPaymentError is returned when a payment exceeds the outstanding
// amount on a due entry. The at-most-full-payment invariant: paidAmount
// never exceeds the amount due.
type ExcessPaymentError struct {
	MemberID    string
	Month       MonthKey
	Outstanding Amount
	Requested   Amount
}

func (e *ExcessPaymentError) Error() string {
	return fmt.Sprintf("payment %v exceeds outstanding %v for %s in %s",
		e.Requested, e.Outstanding, e.MemberID, e.Month)
}

func (e *ExcessPaymentError) Unwrap() error { return ErrValidation }

// PersistenceError wraps a store failure with the collection key involved.
type PersistenceError struct {
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure on %q: %v", e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return ErrPersistence }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrDuplicateApartment)
}

// IsNotFound returns true if the error indicates a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
