package auth

import (
	"context"

	"github.com/samber/oops"

	"userSessionService/models"
)

// Access is the policy a route declares.
type Access int

const (
	// AccessPublic admits every caller, anonymous included.
	AccessPublic Access = iota
	// AccessAuthenticated admits logged-in accounts.
	AccessAuthenticated
	// AccessAdmin admits logged-in accounts with the admin role.
	AccessAdmin
)

func (a Access) String() string {
	switch a {
	case AccessAuthenticated:
		return "authenticated"
	case AccessAdmin:
		return "admin"
	default:
		return "public"
	}
}

// Authorize resolves the session identity once and applies the gates required by
// access: the authenticated gate first, then the admin gate on top of it.
// Denials return ErrUnauthenticated or ErrForbidden; the identity returned alongside
// is the one that was evaluated. A resolution failure denies access.
func Authorize(ctx context.Context, sess *Session, access Access) (models.Identity, error) {
	if sess == nil {
		authDecisions.WithLabelValues(access.String(), "unauthenticated").Inc()
		return models.Anonymous(), oops.Code("UNAUTHENTICATED").Wrap(ErrUnauthenticated)
	}
	id, err := sess.CurrentIdentity(ctx)
	if err != nil {
		authDecisions.WithLabelValues(access.String(), "error").Inc()
		return models.Anonymous(), err
	}
	if access >= AccessAuthenticated && !id.IsAuthenticated() {
		authDecisions.WithLabelValues(access.String(), "unauthenticated").Inc()
		return id, oops.Code("UNAUTHENTICATED").Wrap(ErrUnauthenticated)
	}
	if access >= AccessAdmin && !id.IsAdmin() {
		authDecisions.WithLabelValues(access.String(), "forbidden").Inc()
		return id, oops.Code("FORBIDDEN").With("user_id", id.ID).Wrap(ErrForbidden)
	}
	authDecisions.WithLabelValues(access.String(), "allowed").Inc()
	return id, nil
}
