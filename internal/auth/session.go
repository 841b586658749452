package auth

import (
	"context"
	"errors"
	"log/slog"

	"userSessionService/models"
	"userSessionService/repository"
)

// Session is the per-request handle over one SessionEntry. It caches the resolved
// identity for the lifetime of the request only; a new handle is opened for every
// request so concurrent logins, logouts and deletions are always observed.
//
// A Session is not safe for concurrent use.
type Session struct {
	store    repository.SessionStore
	resolver *Resolver
	logger   *slog.Logger

	entry *models.Session
	token string
	fresh bool

	identity *models.Identity
}

// ID returns the session id.
func (s *Session) ID() string { return s.entry.ID }

// Token returns the signed client token naming this session.
func (s *Session) Token() string { return s.token }

// Fresh reports whether the entry was created for this request, in which case the
// transport must hand Token back to the client.
func (s *Session) Fresh() bool { return s.fresh }

// UserID returns the bound user id, if any.
func (s *Session) UserID() (int64, bool) {
	if !s.entry.IsBound() {
		return 0, false
	}
	return *s.entry.UserID, true
}

// CurrentIdentity resolves the identity bound to the session, or the anonymous identity.
// A binding to a deleted account resolves to anonymous and the binding is cleared.
// Store failures are returned; the caller must fail closed.
func (s *Session) CurrentIdentity(ctx context.Context) (models.Identity, error) {
	if s.identity != nil {
		return *s.identity, nil
	}

	uid := models.AnonymousID
	if s.entry.UserID != nil {
		uid = *s.entry.UserID
	}
	id, err := s.resolver.Resolve(ctx, uid)
	switch {
	case errors.Is(err, ErrUnknownUser):
		danglingBindings.Inc()
		s.logger.InfoContext(ctx, "session bound to unknown user, treating as anonymous",
			"session_id", s.logID(), "user_id", uid)
		if uerr := s.store.Unbind(ctx, s.entry.ID); uerr != nil {
			s.logger.WarnContext(ctx, "failed to clear dangling session binding",
				"session_id", s.logID(), "error", uerr)
		}
		s.entry.UserID = nil
		id = models.Anonymous()
	case err != nil:
		return models.Anonymous(), err
	}
	s.identity = &id
	return id, nil
}

// IsAuthenticated reports whether the current identity is a real account.
func (s *Session) IsAuthenticated(ctx context.Context) (bool, error) {
	id, err := s.CurrentIdentity(ctx)
	if err != nil {
		return false, err
	}
	return id.IsAuthenticated(), nil
}

// Login binds the session to userID. The caller must have verified the credentials.
func (s *Session) Login(ctx context.Context, userID int64) error {
	if err := s.store.Bind(ctx, s.entry.ID, userID); err != nil {
		return err
	}
	s.entry.UserID = &userID
	s.identity = nil
	return nil
}

// Logout unbinds the session. Calling it on an anonymous session is a no-op, and an
// entry that has already disappeared counts as logged out.
func (s *Session) Logout(ctx context.Context) error {
	s.identity = nil
	if s.entry.UserID == nil {
		return nil
	}
	if err := s.store.Unbind(ctx, s.entry.ID); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return err
	}
	s.entry.UserID = nil
	return nil
}

// PutData stores a scratch value on the session.
func (s *Session) PutData(ctx context.Context, key, value string) error {
	if err := s.store.PutData(ctx, s.entry.ID, key, value); err != nil {
		return err
	}
	if s.entry.Data == nil {
		s.entry.Data = map[string]string{}
	}
	s.entry.Data[key] = value
	return nil
}

// GetData reads a scratch value from the session.
func (s *Session) GetData(ctx context.Context, key string) (string, bool, error) {
	return s.store.GetData(ctx, s.entry.ID, key)
}

// logID returns a prefix of the session id that is safe to log.
func (s *Session) logID() string {
	if len(s.entry.ID) > 8 {
		return s.entry.ID[:8]
	}
	return s.entry.ID
}
