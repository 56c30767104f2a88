// Package domain defines the core domain models for dirmesh.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business domain error with a structured error code.
// Codes have the form DM-<AREA>-<NNNN>.
type DomainError struct {
	Code    string // Error code (e.g., "DM-IDEN-4040")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is matches any DomainError carrying the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Identity errors (IDEN).
var (
	// ErrNotRegistered indicates the identity is not in the identity store.
	ErrNotRegistered = NewDomainError("DM-IDEN-4040", "identity not registered")

	// ErrIdentityExists indicates the identity is already registered.
	ErrIdentityExists = NewDomainError("DM-IDEN-4090", "identity already registered")
)

// Session errors (SESS).
var (
	// ErrNotConnected indicates the requesting identity has no active session.
	ErrNotConnected = NewDomainError("DM-SESS-4040", "identity not connected")

	// ErrTargetNotConnected indicates the listed identity has no active session.
	ErrTargetNotConnected = NewDomainError("DM-SESS-4041", "target identity not connected")

	// ErrAlreadyConnected indicates the identity already has an active session.
	ErrAlreadyConnected = NewDomainError("DM-SESS-4090", "identity already connected")
)

// Catalog errors (CATL).
var (
	// ErrEntryNotFound indicates the catalog has no entry with that name.
	ErrEntryNotFound = NewDomainError("DM-CATL-4040", "catalog entry not found")

	// ErrEntryExists indicates the catalog already holds an entry with that name.
	ErrEntryExists = NewDomainError("DM-CATL-4090", "catalog entry already exists")
)

// Argument errors (ARG).
var (
	// ErrInvalidArgument indicates a malformed argument value.
	ErrInvalidArgument = NewDomainError("DM-ARG-1001", "invalid argument")
)

// System errors (SYS).
var (
	// ErrInternalServer indicates an unexpected internal failure.
	ErrInternalServer = NewDomainError("DM-SYS-5000", "internal server error")

	// ErrStorageError indicates a backing store could not be read or written.
	ErrStorageError = NewDomainError("DM-SYS-5001", "storage error")
)
