package service

import (
	"errors"
	"fmt"

	"gitlab.com/dirk.krummacker/contact-manager/internal/store"
)

var (
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when the requested contact does not exist.
	ErrNotFound = errors.New("contact not found")
)

// ValidationError describes why a request was rejected before reaching the store. Message is
// meant to be shown to API clients.
type ValidationError struct {
	Field   string
	Message string
	Cause   error
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func (e *ValidationError) Unwrap() error { return e.Cause }

// translate maps store errors onto the service errors. Errors without a mapping are returned as
// they are and end up as internal errors.
func translate(err error, id int64) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("contact %d: %w", id, ErrNotFound)
	case errors.Is(err, store.ErrConstraint):
		return &ValidationError{Message: "contact violates a column constraint", Cause: err}
	}
	return err
}
