package errors

import (
	stderrors "errors"
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryHydration Category = "hydration"
	CategoryConfig    Category = "config"
	CategoryCLI       Category = "cli"
)

// StoreError is a structured error with a code, an explanation and a hint.
type StoreError struct {
	// Code is a unique error identifier (e.g., "E040").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *StoreError) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is a StoreError with the same code.
func (e *StoreError) Is(target error) bool {
	t, ok := target.(*StoreError)
	if !ok || t.Code == "" {
		return false
	}
	return e.Code == t.Code
}

// WithSuggestion adds a fix suggestion to the error.
func (e *StoreError) WithSuggestion(s string) *StoreError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *StoreError) WithDetail(d string) *StoreError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *StoreError) Wrap(err error) *StoreError {
	e.Wrapped = err
	return e
}

// Newf creates an uncoded error in the given category.
func Newf(category Category, format string, args ...any) *StoreError {
	return &StoreError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError converts err to a StoreError, returning it unchanged if it
// already is one.
func FromError(err error, category Category) *StoreError {
	if err == nil {
		return nil
	}
	var se *StoreError
	if stderrors.As(err, &se) {
		return se
	}
	return &StoreError{
		Category: category,
		Message:  err.Error(),
		Wrapped:  err,
	}
}

// HasCode reports whether err, or anything it wraps, carries the given code.
func HasCode(err error, code string) bool {
	return stderrors.Is(err, &StoreError{Code: code})
}
