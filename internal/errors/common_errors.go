package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeMalformedInput     ErrorType = "MALFORMED_INPUT"
	ErrTypeInvalidParameters  ErrorType = "INVALID_PARAMETERS"
	ErrTypeDegenerateBaseline ErrorType = "DEGENERATE_BASELINE"
	ErrTypeStorage            ErrorType = "STORAGE"
	ErrTypeValidation         ErrorType = "VALIDATION"
	ErrTypeNotFound           ErrorType = "NOT_FOUND"
	ErrTypeConfig             ErrorType = "CONFIG"
)

// ErrNotReady is returned when the run parameters are not all positive yet.
// It marks a waiting state rather than a failure: nothing is computed and no
// output is produced.
var ErrNotReady = errors.New("analysis not ready: all start frames must be greater than zero")

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// Helper functions for common error types

// NewMalformedInputError reports input that cannot be turned into a recording
func NewMalformedInputError(message string, cause error) *AppError {
	return NewAppError(ErrTypeMalformedInput, message, cause)
}

// NewInvalidParametersError reports unusable run parameters
func NewInvalidParametersError(message string, cause error) *AppError {
	return NewAppError(ErrTypeInvalidParameters, message, cause)
}

// NewDegenerateBaselineError reports a neuron whose baseline mean is zero
func NewDegenerateBaselineError(neuronID int) *AppError {
	return NewAppError(ErrTypeDegenerateBaseline, "baseline mean is zero", nil).
		WithContext("neuron_id", neuronID)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// IsType reports whether err wraps an AppError of the given type
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}

// IsMalformedInput reports whether err is a malformed input error
func IsMalformedInput(err error) bool {
	return IsType(err, ErrTypeMalformedInput)
}

// IsNotReady reports whether err signals missing run parameters
func IsNotReady(err error) bool {
	return errors.Is(err, ErrNotReady)
}
