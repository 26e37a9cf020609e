package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeValidation  ErrorType = "validation"
	ErrorTypeUnavailable ErrorType = "unavailable"
	ErrorTypeInternal    ErrorType = "internal"
	ErrorTypeExternal    ErrorType = "external"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type && (t.Message == "" || e.Message == t.Message)
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// Domain error variables.
// These are shared values: build a new error with NewDomainError before attaching details.

var (
	// Not Found Errors
	ErrExchangeNotFound = NewDomainError(ErrorTypeNotFound, "chat exchange not found", nil)

	// Validation Errors
	ErrQueryTooShort = NewDomainError(ErrorTypeValidation, "Query must be at least 3 characters", nil)

	// Unavailable Errors
	ErrNewsUnavailable = NewDomainError(ErrorTypeUnavailable, "news service is not configured", nil)

	// External Provider Errors
	ErrNewsUpstream = NewDomainError(ErrorTypeExternal, "news provider error", nil)
)

// Error type checking helper functions

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	return GetErrorType(err) == ErrorTypeNotFound
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return GetErrorType(err) == ErrorTypeValidation
}

// IsUnavailableError checks if an error reports an unconfigured dependency
func IsUnavailableError(err error) bool {
	return GetErrorType(err) == ErrorTypeUnavailable
}

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool {
	return GetErrorType(err) == ErrorTypeInternal
}

// IsExternalError checks if an error is an external provider error
func IsExternalError(err error) bool {
	return GetErrorType(err) == ErrorTypeExternal
}

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}

// NewNewsUpstreamError builds an error matching ErrNewsUpstream around cause
func NewNewsUpstreamError(cause error) *DomainError {
	return NewDomainError(ErrorTypeExternal, ErrNewsUpstream.Message, cause)
}
