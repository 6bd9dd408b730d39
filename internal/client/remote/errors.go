package remote

import "errors"

var (
	// ErrUnauthorized means the server rejected the credentials or token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUnavailable means the server could not be reached or answered with
	// a transient failure. Callers treat it as a per-record transport error.
	ErrUnavailable = errors.New("server unavailable")
)
