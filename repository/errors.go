package repository

import (
	"errors"
	"fmt"

	"github.com/samber/oops"
)

// Store error kinds. Callers compare with errors.Is; the returned errors carry
// oops context (operation, keys) around these sentinels.
var (
	// ErrUsernameTaken is returned by Insert when the username already exists.
	ErrUsernameTaken = errors.New("username is already taken")

	// ErrSessionNotFound is returned when a session id does not name a live session.
	ErrSessionNotFound = errors.New("session not found")

	// ErrStoreUnavailable wraps every driver-level failure.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Unavailable wraps a driver error so that it matches ErrStoreUnavailable
// while keeping the cause in the chain.
func Unavailable(operation string, err error) error {
	return oops.Code("STORE_UNAVAILABLE").
		With("operation", operation).
		Wrap(fmt.Errorf("%w: %w", ErrStoreUnavailable, err))
}
