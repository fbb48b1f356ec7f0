package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Domain errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrAlreadyExists      = errors.New("resource already exists")
	ErrInvalidInput       = errors.New("invalid input")
	ErrBadRequest         = errors.New("bad request")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrAccountInactive    = errors.New("account not active")
	ErrOTPInvalid         = errors.New("invalid or expired code")
	ErrOTPNotVerified     = errors.New("code not verified")
)

// AppError represents an application error with an HTTP status and,
// for validation failures, per-field attribution.
type AppError struct {
	Status  int               `json:"-"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	Err     error             `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new app error
func NewAppError(status int, message string, err error) *AppError {
	return &AppError{
		Status:  status,
		Message: message,
		Err:     err,
	}
}

// Common error constructors

func NotFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, message, ErrNotFound)
}

func BadRequest(message string) *AppError {
	return NewAppError(http.StatusBadRequest, message, ErrInvalidInput)
}

func Unauthorized(message string) *AppError {
	return NewAppError(http.StatusUnauthorized, message, ErrUnauthorized)
}

func Conflict(message string) *AppError {
	return NewAppError(http.StatusConflict, message, ErrAlreadyExists)
}

func InternalError(err error) *AppError {
	return NewAppError(http.StatusInternalServerError, "internal server error", err)
}

// Validation creates a field-attributed validation error. The message stays
// generic; the fields map names what failed and why.
func Validation(fields map[string]string) *AppError {
	return &AppError{
		Status:  http.StatusBadRequest,
		Message: "validation failed",
		Fields:  fields,
		Err:     ErrInvalidInput,
	}
}

// FieldError creates a validation error for a single field
func FieldError(field, reason string) *AppError {
	return Validation(map[string]string{field: reason})
}

// AlreadyExists creates the structured duplicate-value error shape shared by
// the advisory pre-check and the commit-time unique-constraint translation.
func AlreadyExists(field string) *AppError {
	return &AppError{
		Status:  http.StatusBadRequest,
		Message: "validation failed",
		Fields:  map[string]string{field: fmt.Sprintf("%s already exists", field)},
		Err:     ErrAlreadyExists,
	}
}
