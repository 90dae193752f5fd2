package utils

import (
	"fmt"
	"net/http"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// AppError carries an HTTP status and a client-safe message.
type AppError struct {
	Status  int
	Message string
	Errors  []FieldError
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func NewAppError(status int, message string) *AppError {
	return &AppError{Status: status, Message: message}
}

func NewValidationError(message string, fields ...FieldError) *AppError {
	return &AppError{Status: http.StatusBadRequest, Message: message, Errors: fields}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{Status: http.StatusUnauthorized, Message: message}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{Status: http.StatusForbidden, Message: message}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{Status: http.StatusNotFound, Message: message}
}

func NewConflictError(message string) *AppError {
	return &AppError{Status: http.StatusConflict, Message: message}
}

// NewInternalError wraps err; only the generic message reaches clients.
func NewInternalError(err error) *AppError {
	return &AppError{Status: http.StatusInternalServerError, Message: "Internal Server Error", Err: err}
}
