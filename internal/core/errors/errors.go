// Package errors provides centralized error definitions for the application.
// Errors are organized by domain to avoid duplication and provide consistent naming.
//
// Naming conventions:
//   - Exported errors (Err*): Use for errors that callers need to check with errors.Is
//   - All sentinel errors should be defined as variables, not inline errors.New calls
//   - Use fmt.Errorf with %w to wrap sentinel errors with context
package errors

import "errors"

// Entity resolution errors.
var (
	// ErrStudentNotFound indicates a student could not be found.
	ErrStudentNotFound = errors.New("student not found")

	// ErrSocietyNotFound indicates a society could not be found.
	ErrSocietyNotFound = errors.New("society not found")

	// ErrNotFound is a generic not found error.
	ErrNotFound = errors.New("not found")
)

// Validation errors.
var (
	// ErrInvalidInput indicates invalid input was provided.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidID indicates an invalid identifier.
	ErrInvalidID = errors.New("invalid id")

	// ErrUnknownFeedbackType indicates an unrecognized feedback event type.
	ErrUnknownFeedbackType = errors.New("unknown feedback type")
)

// Corpus and vectorizer errors.
var (
	// ErrCorpusNotFitted indicates the vectorizer has not been fitted yet.
	ErrCorpusNotFitted = errors.New("corpus not fitted")

	// ErrEmptyResponse indicates an empty response was received.
	ErrEmptyResponse = errors.New("empty response")
)

// Circuit breaker errors.
var (
	// ErrCircuitBreakerOpen indicates the circuit breaker has tripped and requests are blocked.
	ErrCircuitBreakerOpen = errors.New("circuit breaker is open")
)

// Is is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is a convenience wrapper around errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
