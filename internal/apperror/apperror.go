package apperror

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrValidation  = errors.New("Validation Error")
	ErrConflict    = errors.New("conflict")
	ErrRateLimited = errors.New("rate limited")
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

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s conflict with id %s", resource, id),
	}
}

// RateLimited returns an AppError telling the caller to slow down.
// HTTP handlers map this to 429 Too Many Requests.
func RateLimited() *AppError {
	return &AppError{
		Err:     ErrRateLimited,
		Message: "rate limit exceeded",
	}
}

// ValidationErrors collects every field that failed validation in one request,
// so a form can show all problems at once instead of one per round trip.
//
// MULTI-ERROR UNWRAPPING:
// Unwrap() []error (Go 1.20+) lets errors.Is and errors.As look inside each
// collected field error. errors.Is(v, ErrValidation) is true for any non-empty v.
type ValidationErrors struct {
	Fields []*AppError
}

// Add records a failed field. Returns the receiver so calls can be chained.
func (v *ValidationErrors) Add(field, message string) *ValidationErrors {
	v.Fields = append(v.Fields, ValidationFailed(field, message))
	return v
}

// Empty reports whether no field has failed.
func (v *ValidationErrors) Empty() bool {
	return v == nil || len(v.Fields) == 0
}

// OrNil returns v as an error only when it holds at least one field error.
// This avoids the classic typed-nil-in-interface trap when returning it.
func (v *ValidationErrors) OrNil() error {
	if v.Empty() {
		return nil
	}
	return v
}

func (v *ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v.Fields))
	for _, f := range v.Fields {
		msgs = append(msgs, f.Message)
	}
	return strings.Join(msgs, ", ")
}

func (v *ValidationErrors) Unwrap() []error {
	errs := make([]error, 0, len(v.Fields))
	for _, f := range v.Fields {
		errs = append(errs, f)
	}
	return errs
}
