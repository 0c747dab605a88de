package models

import "net/http"

// ErrorKind is the machine-classifiable error discriminator returned to clients
type ErrorKind string

const (
	ErrValidation      ErrorKind = "ValidationError"
	ErrUnauthenticated ErrorKind = "Unauthenticated"
	ErrForbidden       ErrorKind = "Forbidden"
	ErrNotFound        ErrorKind = "NotFound"
	ErrConflict        ErrorKind = "Conflict"
	ErrInvalidState    ErrorKind = "InvalidState"
	ErrInternal        ErrorKind = "InternalError"
)

// HTTPStatus maps each error kind to its response status code
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case ErrValidation, ErrInvalidState:
		return http.StatusBadRequest
	case ErrUnauthenticated:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	case ErrNotFound:
		return http.StatusNotFound
	case ErrConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// AppError carries an error kind through the request pipeline so handlers can
// translate any stage failure into the uniform JSON envelope.
type AppError struct {
	Kind    ErrorKind
	Message string
	Details []string
}

// Error implements the error interface
func (e *AppError) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// NewAppError builds an AppError with optional field-level details
func NewAppError(kind ErrorKind, message string, details ...string) *AppError {
	return &AppError{Kind: kind, Message: message, Details: details}
}

// ErrorResponse is the uniform error envelope:
// {"success": false, "error": "<kind>", "message": "...", "details": [...]}
type ErrorResponse struct {
	Success bool     `json:"success"`
	Error   string   `json:"error"`
	Message string   `json:"message,omitempty"`
	Details []string `json:"details,omitempty"`
}
