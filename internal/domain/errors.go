package domain

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrConcertNotFound         = errors.New("concert not found")
	ErrInsufficientInventory   = errors.New("not enough tickets remaining")
	ErrInvalidQuantity         = errors.New("invalid quantity")
	ErrInvalidTicketTransition = errors.New("invalid ticket transition")
	ErrReservationClosed       = errors.New("reservation already completed or cancelled")
	ErrPaymentFailed           = errors.New("payment failed")
	ErrPaymentUnavailable      = errors.New("payment provider unavailable")
	ErrPaymentOutcomeUnknown   = errors.New("payment outcome unknown")
	ErrEmptyOrder              = errors.New("order has no tickets")
	ErrInvalidID               = errors.New("invalid id")
)

// ValidationError reports malformed input field by field.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
