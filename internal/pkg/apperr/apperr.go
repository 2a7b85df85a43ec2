// Package apperr defines the error categories shared by every service.
// Services wrap these sentinels with %w and handlers map them to HTTP
// status codes with errors.Is. No operation that returns one of these has
// applied a partial mutation.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation rejects malformed input before any mutation.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized rejects an actor whose role or ownership does not
	// permit the operation. No audit entry is written.
	ErrUnauthorized = errors.New("not authorized")
	// ErrNotFound signals a missing entity.
	ErrNotFound = errors.New("not found")
	// ErrStateConflict signals a precondition on current status (or a lost
	// race) was not met. The caller may retry with fresh state.
	ErrStateConflict = errors.New("state conflict")
	// ErrRegistryPaused blocks issuance-affecting operations while the
	// registry is paused. It wraps ErrStateConflict so generic conflict
	// handling still matches, but is surfaced distinctly so the calling
	// surface can explain the block.
	ErrRegistryPaused = fmt.Errorf("%w: registry is paused", ErrStateConflict)
)

// Validationf wraps ErrValidation with a formatted message.
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrValidation}, args...)...)
}

// Unauthorizedf wraps ErrUnauthorized with a formatted message.
func Unauthorizedf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrUnauthorized}, args...)...)
}

// NotFoundf wraps ErrNotFound with a formatted message.
func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrNotFound}, args...)...)
}

// Conflictf wraps ErrStateConflict with a formatted message.
func Conflictf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrStateConflict}, args...)...)
}

// HTTPStatus maps an error to the HTTP status code the standard error
// envelope should carry. Unknown errors map to 500.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return 400
	case errors.Is(err, ErrUnauthorized):
		return 403
	case errors.Is(err, ErrNotFound):
		return 404
	case errors.Is(err, ErrRegistryPaused):
		return 423
	case errors.Is(err, ErrStateConflict):
		return 409
	}
	return 500
}
