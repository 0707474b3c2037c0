package common

import (
	"errors"
	"net/http"
)

// Error codes shared across the payment flow. Handlers translate these into
// HTTP responses; nothing in the flow retries automatically.
const (
	CodeInvalidRequest          = "INVALID_REQUEST"
	CodeAuthenticationFailed    = "AUTHENTICATION_FAILED"
	CodeUpstreamResponseInvalid = "UPSTREAM_RESPONSE_INVALID"
	CodeUpstreamRejected        = "UPSTREAM_REJECTED"
	CodeMissingRedirectURL      = "MISSING_REDIRECT_URL"
	CodeSignatureMismatch       = "SIGNATURE_MISMATCH"
	CodePersistenceFailed       = "PERSISTENCE_FAILED"
)

// AppError represents an error with an attached code and HTTP status.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// InvalidRequest builds the canonical bad-caller-input error.
func InvalidRequest(message string) *AppError {
	return NewAppError(CodeInvalidRequest, message, http.StatusBadRequest, nil)
}

// AsAppError extracts an AppError from the chain if present.
func AsAppError(err error) (*AppError, bool) {
	var target *AppError
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// RenderError writes err as the canonical JSON error shape, mapping unknown
// errors to a 500 INTERNAL response.
func RenderError(w http.ResponseWriter, err error) {
	if appErr, ok := AsAppError(err); ok {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		JSONError(w, status, appErr.Code, appErr.Message, appErr.Details)
		return
	}
	JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}
