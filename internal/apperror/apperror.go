package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
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

func Conflict(resource, key string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s already exists with %s", resource, key),
	}
}

// Unauthorized returns an AppError for any authentication failure.
// HTTP handlers map this to 401.
//
// All token and credential failures funnel through here with deliberately
// vague messages: bad signature, expired token, wrong scope, unknown user
// and wrong password must be indistinguishable from the outside.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}
