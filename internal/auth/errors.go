package auth

import (
	"errors"

	"userSessionService/repository"
)

// Error kinds surfaced by this package. Compare with errors.Is.
//
// All of these except ErrStoreUnavailable are expected, user-facing outcomes
// and are not logged as system errors.
var (
	ErrValidation         = errors.New("invalid input")
	ErrUnknownUsername    = errors.New("username is not registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("account not found")
	ErrUnknownUser        = errors.New("session refers to an unknown user")
	ErrUnauthenticated    = errors.New("not authenticated")

	ErrUsernameTaken    = repository.ErrUsernameTaken
	ErrSessionNotFound  = repository.ErrSessionNotFound
	ErrStoreUnavailable = repository.ErrStoreUnavailable
)
