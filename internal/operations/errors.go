package operations

import (
	"context"
	"errors"
	"fmt"
)

// ErrorType represents the type of run error
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeExecution    ErrorType = "execution"
	ErrorTypeCancellation ErrorType = "cancellation"
	ErrorTypeNotFound     ErrorType = "not_found"
)

// OperationError is a run failure attributed to a step
type OperationError struct {
	Type    ErrorType `json:"type"`
	Step    string    `json:"step,omitempty"`
	Message string    `json:"message"`
	Cause   error     `json:"-"`
}

// Error implements the error interface
func (e *OperationError) Error() string {
	if e == nil {
		return "unknown operation error"
	}
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.Step != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Type, e.Step, msg)
	}
	return fmt.Sprintf("[%s] %s", e.Type, msg)
}

// Unwrap returns the underlying error
func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewValidationError creates a new validation error
func NewValidationError(step, message string, cause error) *OperationError {
	return &OperationError{Type: ErrorTypeValidation, Step: step, Message: message, Cause: cause}
}

// NewExecutionError creates a new execution error
func NewExecutionError(step string, cause error) *OperationError {
	return &OperationError{Type: ErrorTypeExecution, Step: step, Message: "step execution failed", Cause: cause}
}

// NewCancellationError creates a new cancellation error
func NewCancellationError(step string, cause error) *OperationError {
	return &OperationError{Type: ErrorTypeCancellation, Step: step, Message: "run was cancelled", Cause: cause}
}

// NewNotFoundError reports an unknown step or region
func NewNotFoundError(what string) *OperationError {
	return &OperationError{Type: ErrorTypeNotFound, Message: what + " not found"}
}

// IsCancellation reports whether err ended a run through its context
func IsCancellation(err error) bool {
	var opErr *OperationError
	if errors.As(err, &opErr) && opErr.Type == ErrorTypeCancellation {
		return true
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// GetErrorType returns the type of an operation error, or execution
func GetErrorType(err error) ErrorType {
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.Type
	}
	return ErrorTypeExecution
}
