package db

import (
	"context"
	"embed"
	"errors"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	// Register pgx/v5 database driver for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

//go:embed migrations/postgres/*.sql
var postgresMigrationsFS embed.FS

// Connection retry policy for OpenPostgres. The database is often still starting when
// the service comes up under a process supervisor.
const (
	pgConnectBase     = 250 * time.Millisecond
	pgConnectAttempts = 6
)

// OpenPostgres creates a pgx pool for dsn and waits until the server answers a ping.
func OpenPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, oops.Code("CONFIG_INVALID").Errorf("DATABASE_URL is required for the postgres driver")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "create pool").Wrap(err)
	}

	backoff := retry.WithMaxRetries(pgConnectAttempts, retry.NewExponential(pgConnectBase))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := pool.Ping(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "ping").Wrap(err)
	}
	return pool, nil
}

// MigratePostgres applies all pending PostgreSQL migrations and returns the resulting version.
func MigratePostgres(databaseURL string) (uint, error) {
	source, err := iofs.New(postgresMigrationsFS, "migrations/postgres")
	if err != nil {
		return 0, oops.Code("MIGRATION_SOURCE_FAILED").With("operation", "create migration source").Wrap(err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, pgx5URL(databaseURL))
	if err != nil {
		_ = source.Close()
		return 0, oops.Code("MIGRATION_INIT_FAILED").With("operation", "initialize migrator").Wrap(err)
	}
	defer func() { _, _ = m.Close() }()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, oops.Code("MIGRATION_UP_FAILED").Wrap(err)
	}
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	if err != nil {
		return 0, oops.Code("MIGRATION_VERSION_FAILED").Wrap(err)
	}
	if dirty {
		return version, oops.Code("MIGRATION_DIRTY").With("version", version).Errorf("database is in a dirty migration state")
	}
	return version, nil
}

// pgx5URL converts postgres:// and postgresql:// URLs to the pgx5:// scheme
// expected by the golang-migrate pgx/v5 driver.
func pgx5URL(databaseURL string) string {
	if rest, found := strings.CutPrefix(databaseURL, "postgres://"); found {
		return "pgx5://" + rest
	}
	if rest, found := strings.CutPrefix(databaseURL, "postgresql://"); found {
		return "pgx5://" + rest
	}
	return databaseURL
}
