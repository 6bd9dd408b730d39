package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Sync-cycle precondition: no authenticated identity to sync for.
	ErrorNoIdentity = errors.New("no identity binding")

	// Trigger-controller rejections for explicit sync requests.
	ErrorAlreadySyncing = errors.New("already syncing")
	ErrorOffline        = errors.New("offline")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
