package synth

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes synthesis failures.
type ErrorCode string

const (
	// CodeTransportFailed indicates the text-generation service could not be
	// reached or returned an error status.
	CodeTransportFailed ErrorCode = "TRANSPORT_FAILED"

	// CodeEmptyResponse indicates the service answered with no content.
	CodeEmptyResponse ErrorCode = "EMPTY_RESPONSE"

	// CodeMalformedOutput indicates the response did not contain a JSON object.
	CodeMalformedOutput ErrorCode = "MALFORMED_OUTPUT"

	// CodeSchemaViolation indicates the JSON did not satisfy the plan schema.
	CodeSchemaViolation ErrorCode = "SCHEMA_VIOLATION"

	// CodeInvalidPlan indicates a synthesizer handed back a plan value that
	// fails validation, or one the caller rejected as ungrounded.
	CodeInvalidPlan ErrorCode = "INVALID_PLAN"
)

// SynthesisError is the single error kind for plan synthesis failures.
type SynthesisError struct {
	// Code identifies the failure category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Attempts is the number of calls made to the text-generation service,
	// zero when the failure happened before any call.
	Attempts int

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *SynthesisError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Attempts > 1 {
		msg = fmt.Sprintf("%s (after %d attempts)", msg, e.Attempts)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *SynthesisError) Unwrap() error {
	return e.Err
}

// IsSynthesisError returns true if err is or wraps a *SynthesisError.
func IsSynthesisError(err error) bool {
	var se *SynthesisError
	return errors.As(err, &se)
}

// CodeOf returns the ErrorCode of a wrapped *SynthesisError, or "" if err
// is not one.
func CodeOf(err error) ErrorCode {
	var se *SynthesisError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// NewTransportError wraps a failure to obtain a response.
func NewTransportError(attempts int, err error) *SynthesisError {
	return &SynthesisError{
		Code:     CodeTransportFailed,
		Message:  "text generation request failed",
		Attempts: attempts,
		Err:      err,
	}
}

// NewInvalidPlanError reports a plan value that failed validation.
func NewInvalidPlanError(message string, err error) *SynthesisError {
	return &SynthesisError{
		Code:    CodeInvalidPlan,
		Message: message,
		Err:     err,
	}
}
