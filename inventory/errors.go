/*
errors.go - Centralized error types for the stock engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The API layer maps these onto HTTP statuses; the core only classifies,
  it never decides presentation and never swallows an error.

ERROR CATEGORIES:
  1. Validation errors - Malformed input, rejected before any mutation
  2. Not-found errors  - References to unknown documents/products/warehouses
  3. Conflict errors   - Re-completion and overdraft rejections
  4. Inconsistency     - Ledger replay no longer matches the live index

USAGE:
  Callers classify with the helpers:

    if inventory.IsConflict(err) {
        // benign no-op for retries
    }
*/
package inventory

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the base of all input validation failures.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyCompleted is returned when completion is requested on a Done
	// document. Safe to treat as a no-op: nothing was mutated.
	ErrAlreadyCompleted = errors.New("document already completed")

	// ErrOverdraft is returned when a completion would drive a stock key
	// negative and the engine's policy rejects that.
	ErrOverdraft = errors.New("insufficient stock")

	// ErrInconsistency is returned when the ledger replay no longer
	// reproduces the live index. Fatal; indicates a serialization bug.
	ErrInconsistency = errors.New("ledger inconsistent with stock index")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError describes a malformed field or line.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NotFoundError identifies which record was missing.
type NotFoundError struct {
	Kind string // "product", "warehouse", "receipt", ...
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// AlreadyCompletedError reports a rejected re-completion.
type AlreadyCompletedError struct {
	DocType DocType
	DocID   DocID
}

func (e *AlreadyCompletedError) Error() string {
	return fmt.Sprintf("%s %s already completed", e.DocType, e.DocID)
}

func (e *AlreadyCompletedError) Unwrap() error { return ErrAlreadyCompleted }

// OverdraftError provides details about a rejected negative outcome.
type OverdraftError struct {
	Key       StockKey
	Available Quantity
	Requested Quantity
}

func (e *OverdraftError) Error() string {
	return fmt.Sprintf("insufficient stock at %s: available %s, requested %s",
		e.Key, e.Available, e.Requested)
}

func (e *OverdraftError) Unwrap() error { return ErrOverdraft }

// InconsistencyError pinpoints the first key whose replayed quantity
// diverges from the live index.
type InconsistencyError struct {
	Key      StockKey
	Replayed Quantity
	Live     Quantity
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("replay mismatch at %s: ledger says %s, index says %s",
		e.Key, e.Replayed, e.Live)
}

func (e *InconsistencyError) Unwrap() error { return ErrInconsistency }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict returns true for errors retries may safely treat as no-ops.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyCompleted) || errors.Is(err, ErrOverdraft)
}
