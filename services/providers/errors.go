package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
)

// ErrorKind is the machine-readable error tag carried by a ChatResponse
type ErrorKind string

const (
	ErrorKindInvalidService     ErrorKind = "invalid_service"
	ErrorKindServiceUnavailable ErrorKind = "service_unavailable"
	ErrorKindServiceError       ErrorKind = "service_error"
	ErrorKindAuthentication     ErrorKind = "authentication_error"
	ErrorKindRateLimit          ErrorKind = "rate_limit_error"
	ErrorKindBadRequest         ErrorKind = "bad_request_error"
	ErrorKindTimeout            ErrorKind = "timeout_error"
	ErrorKindConnection         ErrorKind = "connection_error"
	ErrorKindGeneral            ErrorKind = "general_error"
	ErrorKindDatabricks         ErrorKind = "databricks_error"
	ErrorKindServer             ErrorKind = "server_error"
)

// ProviderError represents a failed upstream call, already classified
type ProviderError struct {
	// Provider that generated the error
	Provider Service

	// Kind is the normalized error tag
	Kind ErrorKind

	// Message is the human-readable text shown to the caller
	Message string

	// StatusCode is the HTTP status code (if applicable)
	StatusCode int

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Kind)
}

// Unwrap implements error unwrapping
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// NewProviderError creates a new provider error
func NewProviderError(provider Service, kind ErrorKind, message string, statusCode int, cause error) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		Kind:       kind,
		Message:    message,
		StatusCode: statusCode,
		Cause:      cause,
	}
}

// ErrorResponse folds err into a ChatResponse for service.
// Errors that are not a *ProviderError are tagged with fallback.
func ErrorResponse(service Service, err error, fallback ErrorKind) ChatResponse {
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return ChatResponse{
			Content: provErr.Message,
			Service: service,
			Error:   provErr.Kind,
		}
	}
	return ChatResponse{
		Content: fmt.Sprintf("Error: %v", err),
		Service: service,
		Error:   fallback,
	}
}

// ClassifyTransportError maps an error returned by http.Client.Do to
// ErrorKindTimeout or ErrorKindConnection. It returns "" for anything else.
func ClassifyTransportError(err error) ErrorKind {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorKindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorKindTimeout
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ErrorKindConnection
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrorKindConnection
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EHOSTUNREACH) || errors.Is(err, syscall.ENETUNREACH) {
		return ErrorKindConnection
	}
	return ""
}
