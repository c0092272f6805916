// Package common defines shared constants, sentinel errors and typed errors
// used across the medauth server, its HTTP surface and the CLI. Callers should
// use errors.Is / errors.As to match these values.
package common

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrUniqueViolation = errors.New("unique constraint violation")

	// Service-level errors.
	ErrorUnauthorized = errors.New("unauthorized")

	// Auth errors (missing or malformed session token).
	ErrInvalidToken = errors.New("invalid token")

	// Uniqueness guard errors. ErrGuardUnavailable means the existence check
	// itself failed and the caller must refuse to proceed.
	ErrGuardUnavailable     = errors.New("uniqueness check unavailable")
	ErrAlreadyRegistered    = errors.New("identifier already registered")
	ErrRegisteredMomentsAgo = errors.New("identifier registered moments ago")

	// Callback resolution errors.
	ErrConsistencyTimeout = errors.New("profile not observed within poll budget")
	ErrPolicyConflict     = errors.New("auth method conflict")
)

// ValidationError carries every policy violation found in a request, so a
// caller can render a complete checklist instead of the first failure only.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation error: " + strings.Join(e.Messages, "; ")
}

// NewValidationError returns nil when msgs is empty.
func NewValidationError(msgs ...string) error {
	if len(msgs) == 0 {
		return nil
	}
	return &ValidationError{Messages: msgs}
}

// UpstreamProviderError wraps a failed call to the identity provider.
// Message is the provider's own text and must never reach the end user.
type UpstreamProviderError struct {
	Op      string
	Status  int
	Code    string
	Message string
}

func (e *UpstreamProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("provider %s failed (status %d, %s): %s", e.Op, e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("provider %s failed (status %d): %s", e.Op, e.Status, e.Message)
}

// FieldError ties an error to the request field that caused it, e.g. an
// ErrAlreadyRegistered for "phone".
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
