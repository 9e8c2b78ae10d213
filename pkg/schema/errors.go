package schema

import (
	"errors"
	"fmt"
)

// Error codes for structured error reporting.
const (
	ErrCodeSyntax            = "SYNTAX_ERROR"
	ErrCodeUndefinedVariable = "UNDEFINED_VARIABLE"
	ErrCodeRuntime           = "RUNTIME_ERROR"
	ErrCodeUnsafeBlocked     = "UNSAFE_OPERATION_BLOCKED"
	ErrCodeUnsafeRejected    = "UNSAFE_VALUE_REJECTED"
	ErrCodeTypeMismatch      = "TYPE_MISMATCH"
	ErrCodeValidation        = "VALIDATION_ERROR"
)

// FlowError is the structured error type for all flowgate operations.
type FlowError struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Component string         `json:"component,omitempty"`
	Slot      string         `json:"slot,omitempty"`
	Cause     error          `json:"-"`
}

func (e *FlowError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("[%s] component %s: %s", e.Code, e.Component, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *FlowError) Unwrap() error {
	return e.Cause
}

// NewError creates a new FlowError.
func NewError(code, message string) *FlowError {
	return &FlowError{Code: code, Message: message}
}

// NewErrorf creates a new FlowError with a formatted message.
func NewErrorf(code, format string, args ...any) *FlowError {
	return &FlowError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithComponent attaches the originating component name to the error.
func (e *FlowError) WithComponent(name string) *FlowError {
	e.Component = name
	return e
}

// WithSlot attaches the offending output slot name to the error.
func (e *FlowError) WithSlot(slot string) *FlowError {
	e.Slot = slot
	return e
}

// WithCause attaches an underlying cause.
func (e *FlowError) WithCause(err error) *FlowError {
	e.Cause = err
	return e
}

// WithDetails attaches key-value details.
func (e *FlowError) WithDetails(details map[string]any) *FlowError {
	e.Details = details
	return e
}

// CodeOf extracts the flowgate error code from an error chain, or "" if the
// chain carries no FlowError.
func CodeOf(err error) string {
	var fe *FlowError
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ""
}
