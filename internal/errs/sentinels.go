// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import (
	"errors"
	"fmt"
)

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist or is hidden from the caller.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates a missing or invalid credential.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates an authenticated caller that the policy denies.
	ErrForbidden = errors.New("forbidden")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., email taken).
	ErrAlreadyExists = errors.New("already exists")

	// ErrBadRequest indicates missing or invalid input.
	ErrBadRequest = errors.New("bad request")

	// ErrInvariant indicates a write that would leave a ticket in an illegal state.
	// It is a kind of bad request.
	ErrInvariant = fmt.Errorf("invariant violation: %w", ErrBadRequest)

	// ErrMethodNotAllowed indicates an operation the resource does not support.
	ErrMethodNotAllowed = errors.New("method not allowed")
)

// BadRequest returns an error wrapping ErrBadRequest with a client-facing reason.
func BadRequest(format string, args ...any) error {
	return &reasonError{kind: ErrBadRequest, msg: fmt.Sprintf(format, args...)}
}

// Invariant returns an error wrapping ErrInvariant with a client-facing reason.
func Invariant(format string, args ...any) error {
	return &reasonError{kind: ErrInvariant, msg: fmt.Sprintf(format, args...)}
}

// Reason extracts the client-facing message attached by BadRequest or Invariant.
func Reason(err error) (string, bool) {
	var re *reasonError
	if errors.As(err, &re) {
		return re.msg, true
	}
	return "", false
}

type reasonError struct {
	kind error
	msg  string
}

func (e *reasonError) Error() string { return e.kind.Error() + ": " + e.msg }
func (e *reasonError) Unwrap() error { return e.kind }
