package shared

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// AppError is the service-level error envelope. StatusCode doubles as the
// HTTP status at the API boundary.
type AppError struct {
	StatusCode int         `json:"code"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data,omitempty"`
	Err        error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func NewNotFoundError(err error, message string) *AppError {
	return &AppError{StatusCode: http.StatusNotFound, Message: message, Err: err}
}

func NewValidationError(err error, message string) *AppError {
	return &AppError{StatusCode: http.StatusBadRequest, Message: message, Err: err}
}

func NewForbiddenError(err error, message string) *AppError {
	return &AppError{StatusCode: http.StatusForbidden, Message: message, Err: err}
}

func NewInternalError(err error, message string) *AppError {
	return &AppError{StatusCode: http.StatusInternalServerError, Message: message, Err: err}
}

// NewAuthenticationError covers remote signature verification failures.
// Always fail closed: the caller must not distinguish why verification
// failed beyond this error.
func NewAuthenticationError(err error, message string) *AppError {
	return &AppError{StatusCode: http.StatusUnauthorized, Message: message, Err: err}
}

// NewCooldownError signals request-creation throttling. RetryAfter is
// surfaced both in the payload and the Retry-After header.
func NewCooldownError(retryAfter time.Duration) *AppError {
	seconds := int(retryAfter.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	return &AppError{
		StatusCode: http.StatusTooManyRequests,
		Message:    "Please wait before creating another request",
		Data:       map[string]interface{}{"retry_after": seconds},
	}
}

func (e *AppError) RetryAfterSeconds() (int, bool) {
	data, ok := e.Data.(map[string]interface{})
	if !ok {
		return 0, false
	}
	seconds, ok := data["retry_after"].(int)
	return seconds, ok
}

// NewAccessDeniedError carries a canonical reason code plus a details map.
// Callers branch on the reason code; the display string is resolved at the
// boundary via ReasonDetail.
func NewAccessDeniedError(reason string, details map[string]interface{}) *AppError {
	data := map[string]interface{}{"reason": reason}
	for k, v := range details {
		data[k] = v
	}
	return &AppError{
		StatusCode: http.StatusForbidden,
		Message:    ReasonDetail(reason),
		Data:       data,
	}
}
