package testutil

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"unicode"

	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc/metadata"

	"userSessionService/internal/db"
	"userSessionService/repository"
)

// OpenInMemoryDB opens a named in-memory SQLite database and applies migrations.
// An empty name derives one from the test name so parallel tests stay isolated.
// The DB is closed via t.Cleanup.
func OpenInMemoryDB(t *testing.T, name string) *sql.DB {
	t.Helper()
	if name == "" {
		name = sanitize(t.Name())
	}
	// Shared cache so every connection of the pool sees the same database.
	d, err := db.Open("file:" + name + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// HashPassword returns a cheap bcrypt digest for seeding accounts.
func HashPassword(t *testing.T, password string) string {
	t.Helper()
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return string(b)
}

// SeedUser inserts an account directly into the store and returns its id.
func SeedUser(t *testing.T, users repository.CredentialStore, username, password string, admin bool) int64 {
	t.Helper()
	id, err := users.Insert(context.Background(), username, HashPassword(t, password), admin)
	if err != nil {
		t.Fatalf("seed user %q: %v", username, err)
	}
	return id
}

// CtxWithBearer returns a context containing gRPC metadata Authorization header with the given token.
func CtxWithBearer(ctx context.Context, token string) context.Context {
	md := metadata.Pairs("authorization", "Bearer "+token)
	return metadata.NewIncomingContext(ctx, md)
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '_'
	}, name)
}
