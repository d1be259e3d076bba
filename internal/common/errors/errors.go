// Package errors provides the error taxonomy shared by the complaint pipeline,
// the HTTP API and the workflow job worker.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeAuthFailed            ErrorCode = "AUTH_FAILED"
	ErrCodeProviderFailed        ErrorCode = "PROVIDER_FAILED"
	ErrCodeProviderTimeout       ErrorCode = "PROVIDER_TIMEOUT"
	ErrCodeProviderNotConfigured ErrorCode = "PROVIDER_NOT_CONFIGURED"
	ErrCodeValidationFailed      ErrorCode = "VALIDATION_FAILED"
	ErrCodeNotificationFailed    ErrorCode = "NOTIFICATION_FAILED"
	ErrCodeJobCompletionFailed   ErrorCode = "JOB_COMPLETION_FAILED"
	ErrCodeInternal              ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key to the error metadata and returns the error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for job fail/throw variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message string, cause error, retryable bool) *StandardError {
	e := &StandardError{
		Code:      code,
		Message:   message,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
	if cause != nil {
		e.Details = cause.Error()
	}
	return e
}

// NewAuthError reports a failed token exchange.
func NewAuthError(message string, cause error) *StandardError {
	return newError(ErrCodeAuthFailed, message, cause, true)
}

// NewProviderError reports a failed, unusable or timed out generation call.
func NewProviderError(message string, cause error) *StandardError {
	code := ErrCodeProviderFailed
	if cause != nil && isTimeout(cause) {
		code = ErrCodeProviderTimeout
	}
	return newError(code, message, cause, true)
}

// NewProviderNotConfiguredError is returned by a provider that has no credentials.
func NewProviderNotConfiguredError(provider string) *StandardError {
	return newError(ErrCodeProviderNotConfigured, "not configured", nil, false).
		WithMetadata("provider", provider)
}

// NewValidationError reports a missing or malformed request field.
func NewValidationError(field, details string) *StandardError {
	e := newError(ErrCodeValidationFailed, fmt.Sprintf("%s is required", field), nil, false)
	e.Details = details
	return e.WithMetadata("field", field)
}

// NewNotificationError reports a failed alert publish.
func NewNotificationError(channel string, cause error) *StandardError {
	return newError(ErrCodeNotificationFailed, fmt.Sprintf("%s notification failed", channel), cause, true)
}

// NewJobCompletionError reports a CompleteJob command the broker did not accept.
func NewJobCompletionError(cause error) *StandardError {
	return newError(ErrCodeJobCompletionFailed, "Failed to complete job", cause, true)
}

// NewInternalError wraps anything unexpected.
func NewInternalError(cause error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", cause, false)
}

func isTimeout(err error) bool {
	type timeout interface{ Timeout() bool }
	var t timeout
	if stderrors.As(err, &t) && t.Timeout() {
		return true
	}
	return strings.Contains(err.Error(), "deadline exceeded")
}

// ==========================
// 4. Predicates
// ==========================

// CodeOf returns the code of the first StandardError in the chain, or
// INTERNAL_ERROR when there is none.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ErrCodeInternal
}

func IsAuthError(err error) bool {
	return err != nil && CodeOf(err) == ErrCodeAuthFailed
}

func IsProviderError(err error) bool {
	if err == nil {
		return false
	}
	switch CodeOf(err) {
	case ErrCodeProviderFailed, ErrCodeProviderTimeout, ErrCodeProviderNotConfigured:
		return true
	}
	return false
}

func IsValidationError(err error) bool {
	return err != nil && CodeOf(err) == ErrCodeValidationFailed
}

// ==========================
// 5. Error Conversion to BPMN
// ==========================

// GetRetryCount returns the recommended job retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeAuthFailed, ErrCodeNotificationFailed, ErrCodeJobCompletionFailed:
		return 3
	case ErrCodeProviderFailed, ErrCodeProviderTimeout:
		return 1
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// GetErrorCategory groups codes for log dashboards.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "AUTH"):
		return "AUTH"
	case strings.HasPrefix(codeStr, "PROVIDER"):
		return "AI"
	case strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	default:
		return "OTHER"
	}
}
