package booking

import (
	"errors"
	"fmt"
)

var (
	ErrSessionNotFound   = errors.New("checkout session not found or expired")
	ErrUnavailable       = errors.New("room is not available for the selected dates")
	ErrPaymentIncomplete = errors.New("payment has not succeeded")
	ErrAmountMismatch    = errors.New("payment amount does not match the quote")
	ErrAlreadyConfirmed  = errors.New("checkout session is already confirmed")
	ErrSessionBusy       = errors.New("checkout session is being processed")
)

// ValidationError reports a rejected wizard field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
