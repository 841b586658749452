package repository

import (
	"context"

	"userSessionService/models"
)

// CredentialStore persists user accounts. Every method is a single atomic statement.
type CredentialStore interface {
	// Insert creates an account and returns its id.
	// Returns ErrUsernameTaken if the username exists.
	Insert(ctx context.Context, username, passwordHash string, isAdmin bool) (int64, error)

	// FindByUsername returns the account or (nil, nil) if absent.
	FindByUsername(ctx context.Context, username string) (*models.User, error)

	// FindByID returns the account or (nil, nil) if absent.
	FindByID(ctx context.Context, id int64) (*models.User, error)

	// DeleteByUsername hard-deletes the account and reports how many rows were removed.
	DeleteByUsername(ctx context.Context, username string) (int64, error)

	// List returns accounts ordered by id.
	List(ctx context.Context, limit, offset int) ([]models.User, error)
}

// SessionStore persists server-side sessions.
type SessionStore interface {
	// CreateOrGet returns the live session named by id, or allocates a new unbound one
	// when id is empty, unknown or expired.
	CreateOrGet(ctx context.Context, id string) (*models.Session, error)

	// Get returns the live session or (nil, nil) if absent or expired.
	Get(ctx context.Context, id string) (*models.Session, error)

	// Bind sets the bound user. Returns ErrSessionNotFound for unknown ids.
	Bind(ctx context.Context, id string, userID int64) error

	// Unbind clears the bound user. Returns ErrSessionNotFound for unknown ids.
	Unbind(ctx context.Context, id string) error

	// PutData upserts one scratch value. Returns ErrSessionNotFound for unknown ids.
	PutData(ctx context.Context, id, key, value string) error

	// GetData reads one scratch value; ok is false when the key is absent.
	GetData(ctx context.Context, id, key string) (value string, ok bool, err error)

	// Delete removes the session and its data.
	Delete(ctx context.Context, id string) error

	// DeleteExpired removes every expired session and returns the count.
	DeleteExpired(ctx context.Context) (int64, error)
}
