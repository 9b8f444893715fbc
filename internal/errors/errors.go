package errors

import "fmt"

// ErrorCode represents an Attache error code.
type ErrorCode string

const (
	ErrInvalidRequest        ErrorCode = "INVALID_REQUEST"        // 400
	ErrNotFound              ErrorCode = "NOT_FOUND"              // 404
	ErrValidation            ErrorCode = "VALIDATION"             // 422
	ErrInternal              ErrorCode = "INTERNAL"               // 500
	ErrPersistenceFailure    ErrorCode = "PERSISTENCE_FAILURE"    // 500
	ErrExtractionUnavailable ErrorCode = "EXTRACTION_UNAVAILABLE" // 502
	ErrLockContention        ErrorCode = "LOCK_CONTENTION"        // 503, retried internally
)

// AttacheError represents a structured error with code, status, and details.
type AttacheError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *AttacheError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *AttacheError {
	return &AttacheError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a lookup with no matching row.
func NewNotFound(entity, identifier string) *AttacheError {
	return &AttacheError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %s", entity, identifier),
		Details: map[string]any{"entity": entity, "identifier": identifier},
	}
}

// NewValidation creates a 422 error for an extracted field that violates
// a closed enumeration or required-shape constraint after defaulting.
// Fatal to the single request, never retried.
func NewValidation(msg string) *AttacheError {
	return &AttacheError{
		Code:    ErrValidation,
		Status:  422,
		Message: msg,
	}
}

// NewExtractionUnavailable creates a 502 error for an unreachable,
// timed-out, or malformed extraction backend. Nothing is persisted.
func NewExtractionUnavailable(err error) *AttacheError {
	msg := "extraction backend unavailable"
	if err != nil {
		msg = fmt.Sprintf("extraction backend unavailable: %v", err)
	}
	return &AttacheError{
		Code:    ErrExtractionUnavailable,
		Status:  502,
		Message: msg,
	}
}

// NewPersistenceFailure creates a 500 error for a transactional write
// that could not commit after bounded retries.
func NewPersistenceFailure(err error) *AttacheError {
	msg := "write could not be committed"
	if err != nil {
		msg = fmt.Sprintf("write could not be committed: %v", err)
	}
	return &AttacheError{
		Code:    ErrPersistenceFailure,
		Status:  500,
		Message: msg,
	}
}

// NewLockContention creates a 503 error for a transient lock conflict.
// Callers retry these internally; after retries are exhausted the error
// becomes a PersistenceFailure.
func NewLockContention(err error) *AttacheError {
	msg := "database locked"
	if err != nil {
		msg = err.Error()
	}
	return &AttacheError{
		Code:    ErrLockContention,
		Status:  503,
		Message: msg,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *AttacheError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &AttacheError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is an AttacheError with the given code.
func Is(err error, code ErrorCode) bool {
	if aErr, ok := err.(*AttacheError); ok {
		return aErr.Code == code
	}
	return false
}
