package errors

import "errors"

var (
	ErrValidation        = errors.New("invalid request")
	ErrInvalidTransition = errors.New("state transition is not allowed")
	ErrNotFound          = errors.New("resource not found")
	ErrConflict          = errors.New("conflict")

	ErrOrderNotFound   = errors.New("order not found")
	ErrInvoiceNotFound = errors.New("invoice not found")
	ErrOrderImmutable  = errors.New("completed order totals are frozen")
	ErrMoneyMismatch   = errors.New("currency mismatch")
	ErrNegativeTotal   = errors.New("order total must not be negative")

	ErrRepositoryInvariantBroke = errors.New("repository invariant violated")
)
