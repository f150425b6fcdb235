package ledger

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindInsufficientStock             Kind = "insufficient_stock"
	KindInsufficientPayment           Kind = "insufficient_payment"
	KindShiftAlreadyOpen              Kind = "shift_already_open"
	KindShiftNotActive                Kind = "shift_not_active"
	KindShiftNotFound                 Kind = "shift_not_found"
	KindAlreadyReconciled             Kind = "already_reconciled"
	KindZeroSalesConfirmationRequired Kind = "zero_sales_confirmation_required"
	KindNegativeCashCounted           Kind = "negative_cash_counted"
	KindWrongPin                      Kind = "wrong_pin"
	KindInvalidOrderState             Kind = "invalid_order_state"
	KindNoActiveShift                 Kind = "no_active_shift"
	KindExceedsDrawerCash             Kind = "exceeds_drawer_cash"
	KindNotFound                      Kind = "not_found"
	KindValidation                    Kind = "validation"
	KindPersistence                   Kind = "persistence"
)

// Error is a user-facing ledger failure. The operation that returned it left
// the tenant's state unchanged.
type Error struct {
	Kind    Kind
	Message string
	Detail  map[string]any
	cause   error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches any *Error of the same kind, so callers can compare against the
// package sentinels with errors.Is.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == e.Kind
}

// Retryable reports whether the caller may safely repeat the operation.
func (e *Error) Retryable() bool {
	return e.Kind == KindPersistence
}

var (
	ErrInsufficientStock             = &Error{Kind: KindInsufficientStock, Message: "insufficient stock"}
	ErrInsufficientPayment           = &Error{Kind: KindInsufficientPayment, Message: "amount received is less than grand total"}
	ErrShiftAlreadyOpen              = &Error{Kind: KindShiftAlreadyOpen, Message: "seller already has an open shift"}
	ErrShiftNotActive                = &Error{Kind: KindShiftNotActive, Message: "shift is not active"}
	ErrShiftNotFound                 = &Error{Kind: KindShiftNotFound, Message: "shift not found"}
	ErrAlreadyReconciled             = &Error{Kind: KindAlreadyReconciled, Message: "shift already reconciled"}
	ErrZeroSalesConfirmationRequired = &Error{Kind: KindZeroSalesConfirmationRequired, Message: "shift has no sales; confirmation required to close"}
	ErrNegativeCashCounted           = &Error{Kind: KindNegativeCashCounted, Message: "counted cash cannot be negative"}
	ErrWrongPin                      = &Error{Kind: KindWrongPin, Message: "wrong pin"}
	ErrInvalidOrderState             = &Error{Kind: KindInvalidOrderState, Message: "production order is not pending"}
	ErrNoActiveShift                 = &Error{Kind: KindNoActiveShift, Message: "no active shift"}
	ErrExceedsDrawerCash             = &Error{Kind: KindExceedsDrawerCash, Message: "exceeds current cash"}
	ErrNotFound                      = &Error{Kind: KindNotFound, Message: "not found"}
	ErrValidation                    = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrPersistence                   = &Error{Kind: KindPersistence, Message: "could not persist changes, nothing was applied"}
)

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func invalid(format string, args ...any) *Error {
	return newError(KindValidation, format, args...)
}

func notFound(what, id string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s %q not found", what, id), Detail: map[string]any{"id": id}}
}

// PersistenceError wraps a storage failure after which the in-memory state was
// rolled back.
func PersistenceError(cause error) *Error {
	return &Error{Kind: KindPersistence, Message: ErrPersistence.Message, cause: cause}
}

// ValidationError reports a rejected input checked outside the ledger.
func ValidationError(cause error) *Error {
	return &Error{Kind: KindValidation, Message: cause.Error(), cause: cause}
}

// KindOf returns the ledger kind carried by err, or "" for foreign errors.
func KindOf(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return ""
}
