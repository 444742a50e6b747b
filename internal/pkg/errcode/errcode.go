package errcode

import (
	"errors"

	appErr "github.com/xxxsen/postboard/internal/pkg/errors"
)

const (
	ErrUnknown = 10000000 + iota
	ErrUnauthorized
	ErrForbidden
	ErrNotFound
	ErrInvalid
	ErrConflict
	ErrTooMany
	ErrInternal
	ErrInvalidFile
	ErrUploadFailed
)

// FromError picks the envelope code for an error by its kind.
func FromError(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, appErr.ErrUnauthorized):
		return ErrUnauthorized
	case errors.Is(err, appErr.ErrForbidden):
		return ErrForbidden
	case errors.Is(err, appErr.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, appErr.ErrInvalid):
		return ErrInvalid
	case errors.Is(err, appErr.ErrConflict):
		return ErrConflict
	case errors.Is(err, appErr.ErrTooMany):
		return ErrTooMany
	case errors.Is(err, appErr.ErrInternal):
		return ErrInternal
	default:
		return ErrUnknown
	}
}
