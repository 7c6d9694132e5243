// Package apperror defines the domain error taxonomy shared by every layer.
//
// Services and repositories return these errors; only the HTTP boundary
// (internal/respond) knows how they map to status codes.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("Validation Error")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
)

// AUTHENTICATION FAILURE KINDS:
// All three wrap ErrUnauthorized, so errors.Is(err, ErrUnauthorized) matches
// any of them while callers that log or count failures can still tell them apart.
var (
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	ErrInvalidToken       = fmt.Errorf("%w: invalid token", ErrUnauthorized)
	ErrTokenExpired       = fmt.Errorf("%w: token expired", ErrUnauthorized)
	ErrMissingToken       = fmt.Errorf("%w: missing token", ErrUnauthorized)
)

type AppError struct {
	Err     error    // actual error
	Message string   // Human-readable error message
	Field   string   // Optional: field causing the error
	Details []string // Optional: one message per failed field
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
		Details: []string{message},
	}
}

// FieldError is one failed constraint on one request field.
type FieldError struct {
	Field   string
	Message string
}

// Invalid bundles several field failures into a single validation error.
// Field is only set when exactly one field failed.
func Invalid(fields []FieldError) *AppError {
	e := &AppError{
		Err:     ErrValidation,
		Message: ErrValidation.Error(),
		Details: make([]string, 0, len(fields)),
	}
	for _, f := range fields {
		e.Details = append(e.Details, f.Message)
	}
	if len(fields) == 1 {
		e.Field = fields[0].Field
	}
	return e
}

// Duplicate reports a uniqueness violation on the named field
// (e.g. "email" or "nickname").
func Duplicate(field string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: "Duplicate field value entered",
		Field:   field,
	}
}

// Unauthorized wraps one of the authentication failure kinds above with the
// message the client will see.
func Unauthorized(kind error, message string) *AppError {
	return &AppError{
		Err:     kind,
		Message: message,
	}
}
