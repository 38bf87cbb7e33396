package errors

import (
	"errors"
	"fmt"
)

// Error codes for programmatic handling.
const (
	CodeConfigInvalid     = "CONFIG_INVALID"
	CodeEventInvalid      = "EVENT_INVALID"
	CodeEvidenceInvalid   = "EVIDENCE_INVALID"
	CodeStoreUnavailable  = "STORE_UNAVAILABLE"
	CodeWorkflowUnmapped  = "WORKFLOW_UNMAPPED"
	CodeToolNotAllowed    = "TOOL_NOT_ALLOWED"
	CodeTierTimeout       = "TIER_TIMEOUT"
	CodeRecoveryExhausted = "RECOVERY_EXHAUSTED"
	CodeTaskNotFound      = "TASK_NOT_FOUND"
	CodeEventNotFound     = "EVENT_NOT_FOUND"
	CodeEventResolved     = "EVENT_RESOLVED"
)

// GuardrailError is a structured error with a code and actionable suggestion.
type GuardrailError struct {
	Code       string // machine-readable code (e.g. EVENT_INVALID)
	Message    string // human-readable description
	Suggestion string // actionable fix
	Err        error  // wrapped underlying error
}

// Error implements the error interface.
func (e *GuardrailError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap supports errors.Is / errors.As.
func (e *GuardrailError) Unwrap() error {
	return e.Err
}

// New creates a GuardrailError with the given code and message.
func New(code, message string) *GuardrailError {
	return &GuardrailError{Code: code, Message: message}
}

// Wrap creates a GuardrailError wrapping an existing error.
func Wrap(code, message string, err error) *GuardrailError {
	return &GuardrailError{Code: code, Message: message, Err: err}
}

// WithSuggestion returns a copy with the suggestion set.
func (e *GuardrailError) WithSuggestion(suggestion string) *GuardrailError {
	e.Suggestion = suggestion
	return e
}

// Is checks whether target matches this error's code.
func (e *GuardrailError) Is(target error) bool {
	var ge *GuardrailError
	if errors.As(target, &ge) {
		return e.Code == ge.Code
	}
	return false
}

// AsCode extracts the GuardrailError code from an error, or "" if not a GuardrailError.
func AsCode(err error) string {
	var ge *GuardrailError
	if errors.As(err, &ge) {
		return ge.Code
	}
	return ""
}

// Suggestion extracts the suggestion from an error, or "" if not a GuardrailError.
func Suggestion(err error) string {
	var ge *GuardrailError
	if errors.As(err, &ge) {
		return ge.Suggestion
	}
	return ""
}
