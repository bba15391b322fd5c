// Package errors provides the standardized error taxonomy of the contact service.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodePayloadInvalid   ErrorCode = "PAYLOAD_INVALID"
	ErrCodeMalformedRequest ErrorCode = "MALFORMED_REQUEST"

	ErrCodeConfigurationMissing ErrorCode = "CONFIGURATION_MISSING"

	ErrCodeRecordCreateFailed     ErrorCode = "RECORD_CREATE_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeSubmissionInFlight    ErrorCode = "SUBMISSION_IN_FLIGHT"
	ErrCodeSubmissionAlreadySent ErrorCode = "SUBMISSION_ALREADY_SENT"
	ErrCodeGuardUnavailable      ErrorCode = "GUARD_UNAVAILABLE"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// NewConfigurationMissingError reports a required setting that is absent.
func NewConfigurationMissingError(setting string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfigurationMissing,
		Message:   "Required configuration is missing",
		Details:   fmt.Sprintf("setting: %s", setting),
		Retryable: false,
		Metadata:  map[string]interface{}{"setting": setting},
		Timestamp: time.Now().UTC(),
	}
}

// NewRecordCreateFailedError wraps a record-store failure.
func NewRecordCreateFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRecordCreateFailed,
		Message:   "Record store rejected or did not answer the create request",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewNotificationSendFailedError wraps a mail sender failure.
func NewNotificationSendFailedError(driver string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("driver: %s, error: %s", driver, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewPayloadInvalidError reports an outgoing payload that does not match its schema.
func NewPayloadInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodePayloadInvalid,
		Message:   "Outgoing record payload is invalid",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMalformedRequestError reports a request body that could not be decoded.
func NewMalformedRequestError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMalformedRequest,
		Message:   "Request body is malformed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationFailedError summarizes field violations.
func NewValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Submission validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSubmissionInFlightError rejects a second attempt while one is dispatching.
func NewSubmissionInFlightError(formID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSubmissionInFlight,
		Message:   "A submission is already in progress for this form",
		Details:   fmt.Sprintf("formId: %s", formID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSubmissionAlreadySentError rejects resubmission after success.
func NewSubmissionAlreadySentError(formID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSubmissionAlreadySent,
		Message:   "This form has already been sent",
		Details:   fmt.Sprintf("formId: %s", formID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewGuardUnavailableError wraps a single-flight backend failure.
func NewGuardUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeGuardUnavailable,
		Message:   "Submission guard backend unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewInternalError normalizes anything unexpected, including recovered panics.
func NewInternalError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// Normalize converts any error to a StandardError.
func Normalize(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// CodeOf extracts the error code of err, or "UNKNOWN_ERROR".
func CodeOf(err error) string {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return string(stdErr.Code)
	}
	return "UNKNOWN_ERROR"
}

// IsConfigurationError reports whether err is a missing-configuration error.
func IsConfigurationError(err error) bool {
	return CodeOf(err) == string(ErrCodeConfigurationMissing)
}

// HTTPStatus maps an error code to the status returned by the HTTP layer.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeMalformedRequest:
		return http.StatusBadRequest
	case ErrCodeValidationFailed:
		return http.StatusUnprocessableEntity
	case ErrCodeSubmissionInFlight, ErrCodeSubmissionAlreadySent:
		return http.StatusConflict
	case ErrCodeRecordCreateFailed, ErrCodeNotificationSendFailed:
		return http.StatusBadGateway
	case ErrCodeConfigurationMissing, ErrCodeGuardUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "PAYLOAD") || strings.Contains(codeStr, "MALFORMED"):
		return "VALIDATION"
	case strings.Contains(codeStr, "CONFIGURATION"):
		return "CONFIGURATION"
	case strings.Contains(codeStr, "RECORD") || strings.Contains(codeStr, "NOTIFICATION"):
		return "TRANSPORT"
	case strings.Contains(codeStr, "SUBMISSION") || strings.Contains(codeStr, "GUARD"):
		return "CONCURRENCY"
	default:
		return "OTHER"
	}
}
