// Package apperror defines the application's error vocabulary.
//
// SENTINEL ERRORS + TYPED ERRORS:
// The package exposes a handful of sentinel values (ErrNotFound, ErrValidation, ...)
// and one typed error, *AppError, which wraps a sentinel and carries a
// human-readable message plus, for validation failures, the form field at fault.
//
// Callers check the CATEGORY with errors.Is(err, apperror.ErrValidation) and
// pull out the DETAILS with errors.As(err, &appErr). Handlers use the category
// to pick a redirect code or HTTP status; they never parse message strings.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrSuspended    = errors.New("account suspended")
)

// AppError is a domain error with a message that is safe to show to users.
type AppError struct {
	Err     error  // sentinel category
	Message string // Human-readable error message
	Field   string // Optional: form field causing the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized covers both "no such account" and "wrong password". Login must
// not reveal which of the two happened.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

func Suspended(email string) *AppError {
	return &AppError{
		Err:     ErrSuspended,
		Message: fmt.Sprintf("account %s is suspended", email),
	}
}

// FieldOf returns the form field recorded on a validation error anywhere in
// err's chain, or "" if there is none.
func FieldOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}
