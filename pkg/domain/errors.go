package domain

import "fmt"

// DomainError represents a domain-specific error with a code and message
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Error codes
const (
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeLimitExceeded = "LIMIT_EXCEEDED"
	ErrCodeCycleDetected = "CYCLE_DETECTED"
	ErrCodeConflict      = "CONFLICT"
	ErrCodeInternal      = "INTERNAL_ERROR"
)

// FieldErrors carries per-field validation messages. It satisfies the
// error interface so services can return it directly.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	for field, msg := range f {
		return fmt.Sprintf("%s: %s", field, msg)
	}
	return "validation failed"
}

// Error constructors

// NewNotFoundError creates a new not found error. Ownership failures
// use this too, so the API never reveals whether a foreign record
// exists.
func NewNotFoundError(resource string) error {
	return &DomainError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// NewValidationError creates a new validation error
func NewValidationError(msg string) error {
	return &DomainError{
		Code:    ErrCodeValidation,
		Message: msg,
	}
}

// NewLimitExceededError creates the subscription-cap error
func NewLimitExceededError(limit int) error {
	return &DomainError{
		Code:    ErrCodeLimitExceeded,
		Message: fmt.Sprintf("You can have at most %d active job alerts. Delete one to create another.", limit),
	}
}

// NewCycleDetectedError creates the practice-area reparent error
func NewCycleDetectedError(msg string) error {
	return &DomainError{
		Code:    ErrCodeCycleDetected,
		Message: msg,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(msg string) error {
	return &DomainError{
		Code:    ErrCodeConflict,
		Message: msg,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(err error) error {
	return &DomainError{
		Code:    ErrCodeInternal,
		Message: "An internal error occurred",
		Err:     err,
	}
}

// Helper functions to check error types

func code(err error) string {
	if de, ok := err.(*DomainError); ok {
		return de.Code
	}
	return ""
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return code(err) == ErrCodeNotFound
}

// IsValidation checks if the error is a validation error
func IsValidation(err error) bool {
	if _, ok := err.(FieldErrors); ok {
		return true
	}
	return code(err) == ErrCodeValidation
}

// IsLimitExceeded checks if the error is the subscription-cap error
func IsLimitExceeded(err error) bool {
	return code(err) == ErrCodeLimitExceeded
}

// IsCycleDetected checks if the error is a cycle detection error
func IsCycleDetected(err error) bool {
	return code(err) == ErrCodeCycleDetected
}

// IsConflict checks if the error is a conflict error
func IsConflict(err error) bool {
	return code(err) == ErrCodeConflict
}
