package order

import (
	"errors"
	"fmt"
)

var (
	ErrOrderNotFound        = errors.New("order not found")
	ErrVersionConflict      = errors.New("order was modified concurrently")
	ErrDuplicateOrderNumber = errors.New("order number already exists")
)

// ValidationError covers malformed or semantically invalid input: empty item
// lists, non-positive quantities, negative prices, unknown status tokens.
// Callers should not retry these.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

func validationErrorf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// InvalidTransitionError carries both ends of the rejected edge so the caller
// can explain the rejection.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}
