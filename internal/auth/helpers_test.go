package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"userSessionService/internal/testutil"
	"userSessionService/models"
	"userSessionService/repository"
)

const testSecret = "test-secret"

type testStack struct {
	users    *repository.UserRepository
	sessions *repository.SessionRepository
	tokens   *TokenCodec
	manager  *SessionManager
	service  *Service
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()
	d := testutil.OpenInMemoryDB(t, "")
	users := repository.NewUserRepository(d)
	sessions := repository.NewSessionRepository(d, time.Hour)
	tokens, err := NewTokenCodec(testSecret)
	if err != nil {
		t.Fatalf("token codec: %v", err)
	}
	logger := discardLogger()
	pool := NewHashPool(NewBcryptHasher(bcrypt.MinCost), 2)
	return &testStack{
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		manager:  NewSessionManager(sessions, NewResolver(users), tokens, logger),
		service:  NewService(users, pool, logger),
	}
}

// open opens a session for token, failing the test on error.
func (s *testStack) open(t *testing.T, token string) *Session {
	t.Helper()
	sess, err := s.manager.Open(context.Background(), token)
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	return sess
}

// loggedIn registers username and returns a session logged in as it.
func (s *testStack) loggedIn(t *testing.T, username, password string, admin bool) *Session {
	t.Helper()
	testutil.SeedUser(t, s.users, username, password, admin)
	sess := s.open(t, "")
	if _, err := s.service.Login(context.Background(), sess, username, password); err != nil {
		t.Fatalf("login %s: %v", username, err)
	}
	return s.open(t, sess.Token())
}

var errBackendDown = errors.New("backend down")

// brokenUsers is a CredentialStore whose every call fails as unavailable.
type brokenUsers struct{}

func (brokenUsers) Insert(context.Context, string, string, bool) (int64, error) {
	return 0, repository.Unavailable("insert user", errBackendDown)
}

func (brokenUsers) FindByUsername(context.Context, string) (*models.User, error) {
	return nil, repository.Unavailable("find user by username", errBackendDown)
}

func (brokenUsers) FindByID(context.Context, int64) (*models.User, error) {
	return nil, repository.Unavailable("find user by id", errBackendDown)
}

func (brokenUsers) DeleteByUsername(context.Context, string) (int64, error) {
	return 0, repository.Unavailable("delete user", errBackendDown)
}

func (brokenUsers) List(context.Context, int, int) ([]models.User, error) {
	return nil, repository.Unavailable("list users", errBackendDown)
}
