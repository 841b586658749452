package auth

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"time"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"userSessionService/models"
	"userSessionService/repository"
)

var tracer = otel.Tracer("usersession/auth")

// Username validation constraints.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
	MaxPasswordLength = 72
)

// Page size bounds for ListUsers.
const (
	DefaultListLimit = 100
	MaxListLimit     = 500
)

// LastLoginKey is the session data key holding the RFC 3339 time of the last login.
const LastLoginKey = "last_login_at"

// usernameRegex matches usernames that start with a letter and contain only
// letters, numbers and underscores.
var usernameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// ValidateUsername checks a username against the registration rules.
func ValidateUsername(username string) error {
	if username == "" {
		return oops.Code("AUTH_INVALID_USERNAME").Wrapf(ErrValidation, "username cannot be empty")
	}
	if len(username) < MinUsernameLength {
		return oops.Code("AUTH_INVALID_USERNAME").
			With("min", MinUsernameLength).
			Wrapf(ErrValidation, "username must be at least %d characters", MinUsernameLength)
	}
	if len(username) > MaxUsernameLength {
		return oops.Code("AUTH_INVALID_USERNAME").
			With("max", MaxUsernameLength).
			Wrapf(ErrValidation, "username must be at most %d characters", MaxUsernameLength)
	}
	if !usernameRegex.MatchString(username) {
		return oops.Code("AUTH_INVALID_USERNAME").
			Wrapf(ErrValidation, "username must start with a letter and contain only letters, numbers, and underscores")
	}
	return nil
}

// ValidatePassword rejects empty passwords and those longer than bcrypt accepts.
func ValidatePassword(password string) error {
	if password == "" {
		return oops.Code("AUTH_INVALID_PASSWORD").Wrapf(ErrValidation, "password cannot be empty")
	}
	if len(password) > MaxPasswordLength {
		return oops.Code("AUTH_INVALID_PASSWORD").
			With("max", MaxPasswordLength).
			Wrapf(ErrValidation, "password must be at most %d bytes", MaxPasswordLength)
	}
	return nil
}

// SessionDescriptor is returned by a successful login.
type SessionDescriptor struct {
	SessionToken string `json:"session_token"`
	Username     string `json:"username"`
	IsAdmin      bool   `json:"is_admin"`
}

// Service implements the account lifecycle: register, login, logout and delete.
type Service struct {
	users  repository.CredentialStore
	hashes *HashPool
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a Service.
func NewService(users repository.CredentialStore, hashes *HashPool, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{users: users, hashes: hashes, logger: logger, now: time.Now}
}

// Register creates a non-admin account. It never logs the caller in.
func (s *Service) Register(ctx context.Context, username, password string) (err error) {
	ctx, span := tracer.Start(ctx, "auth.register", trace.WithAttributes(attribute.String("username", username)))
	defer endSpan(span, &err)

	if err := ValidateUsername(username); err != nil {
		return err
	}
	if err := ValidatePassword(password); err != nil {
		return err
	}
	hash, err := s.hashes.Hash(ctx, password)
	if err != nil {
		return oops.Code("AUTH_REGISTER_FAILED").With("operation", "hash password").Wrap(err)
	}
	id, err := s.users.Insert(ctx, username, hash, false)
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "account registered", "user_id", id, "username", username)
	return nil
}

// Login verifies credentials and binds sess to the account.
func (s *Service) Login(ctx context.Context, sess *Session, username, password string) (_ *SessionDescriptor, err error) {
	ctx, span := tracer.Start(ctx, "auth.login", trace.WithAttributes(attribute.String("username", username)))
	defer endSpan(span, &err)

	if username == "" || password == "" {
		loginAttempts.WithLabelValues("invalid").Inc()
		return nil, oops.Code("AUTH_INVALID_INPUT").Wrapf(ErrValidation, "username and password are required")
	}

	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		loginAttempts.WithLabelValues("error").Inc()
		return nil, err
	}
	if u == nil || u.ID == models.AnonymousID {
		loginAttempts.WithLabelValues("unknown_username").Inc()
		s.logger.InfoContext(ctx, "login for unknown username", "username", username)
		return nil, oops.Code("AUTH_UNKNOWN_USERNAME").With("username", username).Wrap(ErrUnknownUsername)
	}

	ok, err := s.hashes.Verify(ctx, password, u.PasswordHash)
	if err != nil {
		loginAttempts.WithLabelValues("error").Inc()
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			With("user_id", u.ID).
			Wrap(err)
	}
	if !ok {
		loginAttempts.WithLabelValues("invalid_credentials").Inc()
		s.logger.InfoContext(ctx, "login with invalid credentials", "user_id", u.ID)
		return nil, oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
	}

	if err := sess.Login(ctx, u.ID); err != nil {
		loginAttempts.WithLabelValues("error").Inc()
		return nil, err
	}
	if err := sess.PutData(ctx, LastLoginKey, s.now().UTC().Format(time.RFC3339)); err != nil {
		s.logger.WarnContext(ctx, "record last login", "user_id", u.ID, "error", err)
	}

	loginAttempts.WithLabelValues("success").Inc()
	s.logger.InfoContext(ctx, "login succeeded", "user_id", u.ID, "admin", u.IsAdmin)
	return &SessionDescriptor{
		SessionToken: sess.Token(),
		Username:     u.Username,
		IsAdmin:      u.IsAdmin,
	}, nil
}

// Logout unbinds sess. It is idempotent.
func (s *Service) Logout(ctx context.Context, sess *Session) (err error) {
	ctx, span := tracer.Start(ctx, "auth.logout")
	defer endSpan(span, &err)

	if sess == nil {
		return nil
	}
	return sess.Logout(ctx)
}

// DeleteAccount removes target when acting is an admin or target's owner.
// Deleting one's own account also logs out sess; an admin deleting another
// account keeps its own session.
func (s *Service) DeleteAccount(ctx context.Context, sess *Session, acting models.Identity, target string) (err error) {
	ctx, span := tracer.Start(ctx, "auth.delete_account", trace.WithAttributes(
		attribute.Int64("acting_user_id", acting.ID),
		attribute.String("target", target),
	))
	defer endSpan(span, &err)

	if !acting.IsAuthenticated() {
		return oops.Code("UNAUTHENTICATED").Wrap(ErrUnauthenticated)
	}
	if target == "" {
		return oops.Code("AUTH_INVALID_INPUT").Wrapf(ErrValidation, "username is required")
	}
	self := acting.Username == target
	if !acting.IsAdmin() && !self {
		s.logger.InfoContext(ctx, "account deletion refused", "user_id", acting.ID, "target", target)
		return oops.Code("FORBIDDEN").With("user_id", acting.ID).With("target", target).Wrap(ErrForbidden)
	}
	if target == models.AnonymousUsername {
		return oops.Code("FORBIDDEN").With("target", target).Wrapf(ErrForbidden, "the guest account cannot be deleted")
	}

	n, err := s.users.DeleteByUsername(ctx, target)
	if err != nil {
		return err
	}
	if n == 0 {
		return oops.Code("NOT_FOUND").With("target", target).Wrap(ErrNotFound)
	}
	s.logger.InfoContext(ctx, "account deleted", "user_id", acting.ID, "target", target, "self", self)

	if self && sess != nil {
		return sess.Logout(ctx)
	}
	return nil
}

// ListUsers returns registered accounts, the reserved guest row excluded.
// limit is clamped to (0, MaxListLimit]; a non-positive limit selects DefaultListLimit.
func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	users, err := s.users.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	out := users[:0]
	for _, u := range users {
		if u.ID != models.AnonymousID {
			out = append(out, u)
		}
	}
	return out, nil
}

// EnsureAdmin creates the bootstrap admin account unless an admin with that username
// already exists. It reports whether an account was created. A non-admin account
// holding the username is a conflict.
func (s *Service) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	if err := ValidateUsername(username); err != nil {
		return false, err
	}
	if err := ValidatePassword(password); err != nil {
		return false, err
	}
	hash, err := s.hashes.Hash(ctx, password)
	if err != nil {
		return false, oops.Code("AUTH_BOOTSTRAP_FAILED").With("operation", "hash password").Wrap(err)
	}
	id, err := s.users.Insert(ctx, username, hash, true)
	if errors.Is(err, ErrUsernameTaken) {
		existing, ferr := s.users.FindByUsername(ctx, username)
		if ferr != nil {
			return false, ferr
		}
		if existing == nil || !existing.IsAdmin {
			return false, oops.Code("ADMIN_BOOTSTRAP_CONFLICT").
				With("username", username).
				Wrapf(ErrUsernameTaken, "bootstrap admin name belongs to a non-admin account")
		}
		return false, nil
	}
	if err != nil {
		return false, err
	}
	s.logger.InfoContext(ctx, "admin account created", "user_id", id, "username", username)
	return true, nil
}

func endSpan(span trace.Span, err *error) {
	if *err != nil && errors.Is(*err, ErrStoreUnavailable) {
		span.RecordError(*err)
		span.SetStatus(codes.Error, (*err).Error())
	}
	span.End()
}
