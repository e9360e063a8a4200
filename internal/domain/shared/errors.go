// Package shared contains common domain types, errors, and events that are
// used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors - bad input that the user can correct.
	ErrValidation   = errors.New("validation error")
	ErrInvalidInput = errors.New("invalid input")
	ErrEmptyValue   = errors.New("value cannot be empty")

	// Authentication errors - bad credentials or a dead token.
	ErrAuthentication = errors.New("authentication failed")
	ErrTokenInvalid   = errors.New("token invalid or expired")
	ErrForbidden      = errors.New("forbidden")

	// State errors
	ErrInvalidState    = errors.New("invalid state")
	ErrStateTransition = errors.New("invalid state transition")

	// Transport errors - the request never produced a server verdict.
	ErrNetwork            = errors.New("network error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
	ErrRateLimited        = errors.New("rate limited")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "session", "identity", "credentials"
	Op      string // Operation that failed, e.g., "Login", "Save"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message, kept verbatim when server-provided
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Session domain errors
var (
	ErrSessionNotInitialized = NewDomainError("session", "Current", ErrInvalidState, "session has not been initialized")
	ErrAlreadyInitialized    = NewDomainError("session", "Initialize", ErrAlreadyExists, "session already initialized")
)

// Identity domain errors
var (
	ErrEmptyEmail    = NewDomainError("identity", "Validate", ErrEmptyValue, "email is required")
	ErrEmptyPassword = NewDomainError("identity", "Validate", ErrEmptyValue, "password is required")
	ErrEmptyFullName = NewDomainError("identity", "Validate", ErrEmptyValue, "full name is required")
)

// External API errors
var (
	ErrAPIUnavailable = NewDomainError("didactic", "Request", ErrServiceUnavailable, "IQ Didactic API is unavailable")
	ErrAPITimeout     = NewDomainError("didactic", "Request", ErrTimeout, "IQ Didactic API request timeout")
	ErrAPIBadResponse = NewDomainError("didactic", "Parse", ErrInvalidInput, "invalid response from IQ Didactic API")
)

// IsValidation reports whether the error is user-correctable input rejection.
// These are surfaced inline on the form that produced them.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue)
}

// IsAuthentication reports whether the error means bad credentials or a token
// the server no longer accepts.
func IsAuthentication(err error) bool {
	return errors.Is(err, ErrAuthentication) ||
		errors.Is(err, ErrTokenInvalid) ||
		errors.Is(err, ErrForbidden)
}

// IsNetwork reports whether the error is a transport failure, meaning the
// server never delivered a verdict and a manual retry is reasonable.
func IsNetwork(err error) bool {
	return errors.Is(err, ErrNetwork) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRateLimited)
}

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
