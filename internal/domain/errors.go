package domain

import "fmt"

// ErrorKind classifies engine failures so callers can branch on the
// category without parsing messages.
type ErrorKind string

const (
	KindInsufficientInventory ErrorKind = "INSUFFICIENT_INVENTORY"
	KindInvalidTransition     ErrorKind = "INVALID_TRANSITION"
	KindInvalidDuration       ErrorKind = "INVALID_DURATION"
	KindNoApplicableRate      ErrorKind = "NO_APPLICABLE_RATE"
	KindOverpaymentNotAllowed ErrorKind = "OVERPAYMENT_NOT_ALLOWED"
	KindInvalidQuantity       ErrorKind = "INVALID_QUANTITY"
	KindConcurrencyConflict   ErrorKind = "CONCURRENCY_CONFLICT"
	KindNotFound              ErrorKind = "NOT_FOUND"
)

// Error is the single error type crossing the engine boundary. Two errors
// match under errors.Is when their kinds are equal, so the exported
// sentinels below work as targets regardless of message.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrInsufficientInventory = &Error{Kind: KindInsufficientInventory}
	ErrInvalidTransition     = &Error{Kind: KindInvalidTransition}
	ErrInvalidDuration       = &Error{Kind: KindInvalidDuration}
	ErrNoApplicableRate      = &Error{Kind: KindNoApplicableRate}
	ErrOverpaymentNotAllowed = &Error{Kind: KindOverpaymentNotAllowed}
	ErrInvalidQuantity       = &Error{Kind: KindInvalidQuantity}
	ErrConcurrencyConflict   = &Error{Kind: KindConcurrencyConflict}
	ErrNotFound              = &Error{Kind: KindNotFound}
)

// Errorf builds a kinded error with a formatted message.
func Errorf(kind ErrorKind, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
