package models

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Error classes surfaced by the ledger. Every concrete error below unwraps to
// exactly one of them, so callers branch with errors.Is.
var (
	// ErrReferenceNotFound: an account, security or event id does not resolve.
	ErrReferenceNotFound = errors.New("reference not found")
	// ErrConstraintViolation: the request is well formed but the ledger state
	// forbids it (e.g. selling more than is held).
	ErrConstraintViolation = errors.New("domain constraint violation")
	// ErrInvariantViolation: the caller asked for something that can only
	// happen through a programming error (double retract, mismatched reapply).
	ErrInvariantViolation = errors.New("invariant violation")
	// ErrInvalidEvent: the payload itself is malformed.
	ErrInvalidEvent = errors.New("invalid event")
)

// NotFoundError names the missing entity.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrReferenceNotFound }

// NotFound returns a *NotFoundError for entity/id.
func NotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// OversoldError reports a sell (or a retracted buy) that would leave a
// position with negative quantity.
type OversoldError struct {
	Account   string
	Security  string
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *OversoldError) Error() string {
	return fmt.Sprintf("oversold: %s in account %s requested %s, available %s",
		e.Security, e.Account, e.Requested.String(), e.Available.String())
}

func (e *OversoldError) Unwrap() error { return ErrConstraintViolation }

// InvariantError reports a retract/reapply against mismatched stored state.
type InvariantError struct {
	Op     string
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

func (e *InvariantError) Unwrap() error { return ErrInvariantViolation }

// ValidationError reports a malformed field on an event or reference payload.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidEvent }

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
