package errors

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalid      = errors.New("invalid")
	ErrConflict     = errors.New("conflict")
	ErrTooMany      = errors.New("too many requests")
	ErrInternal     = errors.New("internal")
)

// Detail is a single item of a batched validation failure.
type Detail struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Error carries a client facing message on top of one of the sentinel kinds.
type Error struct {
	Kind    error
	Message string
	Data    []Detail
	// Code overrides the status derived from Kind when non zero.
	Code int
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// Extensions is picked up by the graphql executor when formatting errors.
func (e *Error) Extensions() map[string]interface{} {
	ext := map[string]interface{}{"status": Status(e)}
	if len(e.Data) > 0 {
		ext["data"] = e.Data
	}
	return ext
}

func New(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Validation(message string, details []Detail) *Error {
	return &Error{Kind: ErrInvalid, Message: message, Data: details}
}

func Conflict(message string) *Error {
	return New(ErrConflict, message)
}

func Unauthorized(message string) *Error {
	return New(ErrUnauthorized, message)
}

func NotFound(message string) *Error {
	return New(ErrNotFound, message)
}

func Forbidden(message string) *Error {
	return New(ErrForbidden, message)
}

// Status maps an error kind to the status reported to clients.
func Status(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Code != 0 {
		return appErr.Code
	}
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalid):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrTooMany):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// IsClientError reports whether err carries a kind that is safe to show to clients.
func IsClientError(err error) bool {
	var appErr *Error
	return errors.As(err, &appErr)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
