package core

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a canonical client error.
type Error struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Param   string    `json:"param,omitempty"`
	Code    string    `json:"code,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (code: %s)", e.Type, e.Message, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ErrorType categorizes errors.
type ErrorType string

const (
	ErrValidation   ErrorType = "validation_error"
	ErrAuth         ErrorType = "auth_error"
	ErrAuthRequired ErrorType = "auth_required"
	ErrConflict     ErrorType = "conflict_error"
	ErrNetwork      ErrorType = "network_error"
	ErrUnsupported  ErrorType = "unsupported_error"
	ErrTimeout      ErrorType = "timeout_error"
	ErrNotFound     ErrorType = "not_found_error"
	ErrAPI          ErrorType = "api_error"
)

// NewValidationError creates a validation error. Validation errors are
// raised locally and never reach the network.
func NewValidationError(message string) *Error {
	return &Error{Type: ErrValidation, Message: message}
}

// NewValidationErrorWithParam creates a validation error naming the offending field.
func NewValidationErrorWithParam(message, param string) *Error {
	return &Error{Type: ErrValidation, Message: message, Param: param}
}

// NewAuthError creates an error for a rejected credential.
func NewAuthError(message string) *Error {
	return &Error{Type: ErrAuth, Message: message}
}

// NewAuthRequiredError creates an error for an operation attempted without a credential.
func NewAuthRequiredError(message string) *Error {
	return &Error{Type: ErrAuthRequired, Message: message}
}

// NewConflictError creates a duplicate-resource error.
func NewConflictError(message string) *Error {
	return &Error{Type: ErrConflict, Message: message}
}

// NewNetworkError creates a transport or 5xx error.
func NewNetworkError(message string) *Error {
	return &Error{Type: ErrNetwork, Message: message}
}

// NewUnsupportedError creates an error for a missing host capability.
func NewUnsupportedError(message string) *Error {
	return &Error{Type: ErrUnsupported, Message: message}
}

// NewTimeoutError creates an error for a request that exceeded its deadline.
func NewTimeoutError(message string) *Error {
	return &Error{Type: ErrTimeout, Message: message}
}

// NewNotFoundError creates a not found error.
func NewNotFoundError(message string) *Error {
	return &Error{Type: ErrNotFound, Message: message}
}

// NewAPIError creates a generic API error.
func NewAPIError(message string) *Error {
	return &Error{Type: ErrAPI, Message: message}
}

// FromStatus maps an HTTP status code to a canonical error.
func FromStatus(status int, message string) *Error {
	switch {
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return NewValidationError(message)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return NewAuthError(message)
	case status == http.StatusNotFound:
		return NewNotFoundError(message)
	case status == http.StatusConflict:
		return NewConflictError(message)
	case status >= 500:
		return NewNetworkError(message)
	default:
		return NewAPIError(message)
	}
}

// IsType reports whether err is a *Error of the given type.
func IsType(err error, t ErrorType) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Type == t
	}
	return false
}

// IsAuthRequired reports whether err indicates a missing credential.
func IsAuthRequired(err error) bool { return IsType(err, ErrAuthRequired) }

// IsAuth reports whether err indicates a rejected credential.
func IsAuth(err error) bool { return IsType(err, ErrAuth) }

// IsValidation reports whether err is a local validation failure.
func IsValidation(err error) bool { return IsType(err, ErrValidation) }

// IsConflict reports whether err is a duplicate-resource failure.
func IsConflict(err error) bool { return IsType(err, ErrConflict) }

// IsNotFound reports whether err is a missing-resource failure.
func IsNotFound(err error) bool { return IsType(err, ErrNotFound) }

// IsTimeout reports whether err is a deadline failure.
func IsTimeout(err error) bool { return IsType(err, ErrTimeout) }

// IsUnsupported reports whether err is a missing-capability failure.
func IsUnsupported(err error) bool { return IsType(err, ErrUnsupported) }
