package auth

import (
	"context"

	"github.com/samber/oops"

	"userSessionService/models"
	"userSessionService/repository"
)

// Resolver turns a bound user id into the Identity used for authorization.
type Resolver struct {
	users repository.CredentialStore
}

func NewResolver(users repository.CredentialStore) *Resolver {
	return &Resolver{users: users}
}

// Resolve returns the anonymous identity for models.AnonymousID without touching the
// store. A missing account yields ErrUnknownUser, which callers treat as unauthenticated.
func (r *Resolver) Resolve(ctx context.Context, userID int64) (models.Identity, error) {
	if userID == models.AnonymousID {
		return models.Anonymous(), nil
	}
	u, err := r.users.FindByID(ctx, userID)
	if err != nil {
		return models.Identity{}, err
	}
	if u == nil {
		return models.Identity{}, oops.Code("UNKNOWN_USER").With("user_id", userID).Wrap(ErrUnknownUser)
	}
	return u.Identity(), nil
}
