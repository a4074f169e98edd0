package errors

import "errors"

var (
	ErrValidation        = errors.New("invalid request")
	ErrInvalidTransition = errors.New("state transition is not allowed")
	ErrNotFound          = errors.New("resource not found")
	ErrForbidden         = errors.New("actor is not allowed to perform this action")
	ErrConflict          = errors.New("concurrent modification conflict")

	ErrMembershipNotFound = errors.New("membership not found")

	// ErrGateway wraps payment provider failures. Callers distinguish it
	// from declines and validation problems: the money state is unknown
	// until the provider answers.
	ErrGateway = errors.New("payment gateway error")

	// ErrRefundPending marks a cancellation that succeeded while the
	// gateway refund did not. The membership stays cancelled and the
	// refund must be retried.
	ErrRefundPending = errors.New("membership cancelled, refund pending")
)
