package sqlpilot

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Error type constants for classification and matching
const (
	// ErrorTypeGeneration indicates the external drafting call failed or
	// returned unusable text.
	ErrorTypeGeneration = "generation_failed"

	// ErrorTypeValidation indicates the candidate SQL failed the safety gate.
	ErrorTypeValidation = "validation_failed"

	// ErrorTypeExecution indicates the downstream query engine rejected or
	// failed the statement.
	ErrorTypeExecution = "execution_failed"

	// ErrorTypeTimeout matches a timeout or context cancellation
	ErrorTypeTimeout = "timeout"
)

// PipelineError represents a structured error with classification.
// It supports Go's error wrapping patterns with Unwrap() method.
type PipelineError struct {
	Type    string      `json:"type"`
	Cause   string      `json:"cause"`
	Details interface{} `json:"details,omitempty"`
	Wrapped error       `json:"-"`
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Cause)
}

// Unwrap implements the error unwrapping interface for Go's errors.Is and errors.As
func (e *PipelineError) Unwrap() error {
	return e.Wrapped
}

// NewPipelineError creates a new PipelineError with the specified type and cause.
func NewPipelineError(errorType, cause string) *PipelineError {
	return &PipelineError{
		Type:  errorType,
		Cause: cause,
	}
}

// ClassifyError attempts to classify a regular error into a PipelineError.
// Unknown errors default to the execution type, the broadest recoverable
// category; every classified error still feeds the clarification terminal
// rather than propagating as a fault.
func ClassifyError(err error) *PipelineError {
	var pipelineError *PipelineError
	if errors.As(err, &pipelineError) {
		return pipelineError
	}
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		strings.Contains(strings.ToLower(err.Error()), "timeout") {
		return &PipelineError{
			Type:    ErrorTypeTimeout,
			Cause:   err.Error(),
			Wrapped: err,
		}
	}
	return &PipelineError{
		Type:    ErrorTypeExecution,
		Cause:   err.Error(),
		Wrapped: err,
	}
}

// MatchesErrorType checks if an error matches a specified error type
func MatchesErrorType(err error, errorType string) bool {
	return ClassifyError(err).Type == errorType
}
