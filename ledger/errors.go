/*
errors.go - Centralized error types for the ledger engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Validation errors are returned synchronously before any mutation;
  persistence errors wrap the underlying cause.

ERROR CATEGORIES:
  1. Validation errors - Rejected input, state untouched, caller retries
  2. Not-found errors  - Referenced record does not exist
  3. Persistence errors - The backing repository failed

USAGE:
  if errors.Is(err, ledger.ErrAccountNotFound) { ... }

  var pf *ledger.PersistenceError
  if errors.As(err, &pf) { log(pf.Cause) }
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
	// ErrInvalidAmount is returned when a transaction or series amount is
	// zero or negative. Amounts are always positive; the sign is implied
	// by the transaction type.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrAccountNotFound is returned when a referenced source account
	// does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrTargetAccountNotFound is returned when a transfer references a
	// missing target account.
	ErrTargetAccountNotFound = errors.New("target account not found")

	// ErrCategoryNotFound is returned when a non-transfer transaction
	// references a missing category.
	ErrCategoryNotFound = errors.New("category not found")

	// ErrTransactionNotFound is returned by update/delete for unknown ids.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrIDMismatch is returned when an update's payload id does not match
	// the record being replaced.
	ErrIDMismatch = errors.New("transaction id mismatch")

	// ErrCannotRemoveRecurringLink is returned when an update tries to
	// strip a transaction's link to its recurring series.
	ErrCannotRemoveRecurringLink = errors.New("cannot remove recurring series link")

	// ErrCannotDeleteProtected is returned when deleting a system-generated
	// entry such as a deposit interest accrual.
	ErrCannotDeleteProtected = errors.New("cannot delete protected transaction")

	// ErrSeriesNotFound is returned for unknown recurring series ids.
	ErrSeriesNotFound = errors.New("recurring series not found")

	// ErrInvalidSeriesData is returned when a recurring series definition
	// fails validation.
	ErrInvalidSeriesData = errors.New("invalid recurring series data")

	// ErrInvalidStartDate is returned when a series start date cannot be
	// parsed.
	ErrInvalidStartDate = errors.New("invalid start date")

	// ErrInvalidStatusTransition is returned for subscription status
	// changes the state machine forbids (e.g. leaving archived).
	ErrInvalidStatusTransition = errors.New("invalid subscription status transition")

	// ErrPersistenceFailed is returned when the backing repository fails
	// during a synchronous save. Never silently falls back to another
	// storage path.
	ErrPersistenceFailed = errors.New("persistence failed")

	// ErrImportNotActive is returned by FinishImport without BeginImport.
	ErrImportNotActive = errors.New("no import in progress")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// PersistenceError wraps a repository failure with the entity that failed.
type PersistenceError struct {
	Entity string
	Cause  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failed for %s: %v", e.Entity, e.Cause)
}

func (e *PersistenceError) Unwrap() error { return ErrPersistenceFailed }

// InvalidStartDateError carries the unparseable raw value.
type InvalidStartDateError struct {
	Raw   string
	Cause error
}

func (e *InvalidStartDateError) Error() string {
	return fmt.Sprintf("invalid start date %q: %v", e.Raw, e.Cause)
}

func (e *InvalidStartDateError) Unwrap() error { return ErrInvalidStartDate }

// StatusTransitionError carries the rejected transition.
type StatusTransitionError struct {
	From SubscriptionStatus
	To   SubscriptionStatus
}

func (e *StatusTransitionError) Error() string {
	return fmt.Sprintf("invalid subscription status transition %s -> %s", e.From, e.To)
}

func (e *StatusTransitionError) Unwrap() error { return ErrInvalidStatusTransition }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidation reports whether the error is due to invalid caller input:
// fix and retry. The in-memory state is guaranteed untouched.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrIDMismatch) ||
		errors.Is(err, ErrCannotRemoveRecurringLink) ||
		errors.Is(err, ErrCannotDeleteProtected) ||
		errors.Is(err, ErrInvalidSeriesData) ||
		errors.Is(err, ErrInvalidStartDate) ||
		errors.Is(err, ErrInvalidStatusTransition) ||
		IsNotFound(err)
}

// IsNotFound reports whether the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrTargetAccountNotFound) ||
		errors.Is(err, ErrCategoryNotFound) ||
		errors.Is(err, ErrTransactionNotFound) ||
		errors.Is(err, ErrSeriesNotFound)
}

// IsPersistence reports whether the error came from the backing store.
func IsPersistence(err error) bool {
	return errors.Is(err, ErrPersistenceFailed)
}
