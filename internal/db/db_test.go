package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_AppliesMigrations(t *testing.T) {
	d, err := Open("file:dbtest_open?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	v, err := Version(d)
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	var guest string
	require.NoError(t, d.QueryRow(`SELECT username FROM users WHERE id = 1`).Scan(&guest))
	assert.Equal(t, "guest", guest)

	var fk int
	require.NoError(t, d.QueryRow(`PRAGMA foreign_keys`).Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestOpen_IsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.db")

	d, err := Open(path)
	require.NoError(t, err)
	_, err = d.Exec(`INSERT INTO users (username, password_hash) VALUES ('alice', 'h')`)
	require.NoError(t, err)
	require.NoError(t, d.Close())

	d, err = Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	var n int
	require.NoError(t, d.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&n))
	assert.Equal(t, 2, n, "reopening must not re-run migrations")
}

func TestRollbackLast(t *testing.T) {
	d, err := Open("file:dbtest_rollback?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	v, err := RollbackLast(d)
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	_, err = d.Exec(`SELECT 1 FROM sessions`)
	assert.Error(t, err, "sessions table is gone")

	v, err = Version(d)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	_, err = RollbackLast(d)
	require.NoError(t, err)
	v, err = RollbackLast(d)
	require.NoError(t, err)
	assert.Zero(t, v, "nothing left to roll back")
}

func TestRollbackLast_NilDB(t *testing.T) {
	_, err := RollbackLast(nil)
	assert.Error(t, err)
}

func TestLoadMigrations_Pairs(t *testing.T) {
	migs, err := loadMigrations()
	require.NoError(t, err)
	require.Len(t, migs, 2)
	for i, m := range migs {
		assert.Equal(t, i+1, m.version)
		assert.NotEmpty(t, m.upFile, "version %d", m.version)
		assert.NotEmpty(t, m.downFile, "version %d", m.version)
	}
}

func TestPgx5URL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@h/db", pgx5URL("postgres://u:p@h/db"))
	assert.Equal(t, "pgx5://u:p@h/db", pgx5URL("postgresql://u:p@h/db"))
	assert.Equal(t, "pgx5://u:p@h/db", pgx5URL("pgx5://u:p@h/db"))
}

func TestOpenPostgres_RequiresDSN(t *testing.T) {
	_, err := OpenPostgres(context.Background(), " ")
	assert.Error(t, err)
}
