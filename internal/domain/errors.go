package domain

import "errors"

var (
	// ErrSessionNotFound covers a missing session, a session owned by someone
	// else and a session that is no longer active. Callers cannot tell them apart.
	ErrSessionNotFound = errors.New("active session not found")

	ErrUserNotFound      = errors.New("user not found")
	ErrValidation        = errors.New("validation failed")
	ErrPersistence       = errors.New("persistence failure")
	ErrFinalizeFailed    = errors.New("finalize failed")
	ErrInvalidTransition = errors.New("invalid session status transition")
	ErrUserExists        = errors.New("user already exists")
	ErrPointsOverflow    = errors.New("total points limit reached")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenRevoked       = errors.New("token has been revoked")
)
