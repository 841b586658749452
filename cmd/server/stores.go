package main

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"

	"userSessionService/internal/config"
	"userSessionService/internal/db"
	"userSessionService/repository"
	"userSessionService/repository/postgres"
)

// stores bundles the repositories for the configured driver.
type stores struct {
	users    repository.CredentialStore
	sessions repository.SessionStore
	sqlite   *sql.DB
	pool     *pgxpool.Pool
}

// openStores opens the configured database and applies pending migrations.
// For PostgreSQL the pool is opened first so migrations wait for the server to answer.
func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		pool, err := db.OpenPostgres(ctx, cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		if _, err := db.MigratePostgres(cfg.Database.URL); err != nil {
			pool.Close()
			return nil, oops.Code("MIGRATION_FAILED").With("driver", cfg.Database.Driver).Wrap(err)
		}
		return &stores{
			users:    postgres.NewUserRepository(pool),
			sessions: postgres.NewSessionRepository(pool, cfg.Session.TTL),
			pool:     pool,
		}, nil
	default:
		d, err := db.Open(cfg.Database.Path)
		if err != nil {
			return nil, err
		}
		return &stores{
			users:    repository.NewUserRepository(d),
			sessions: repository.NewSessionRepository(d, cfg.Session.TTL),
			sqlite:   d,
		}, nil
	}
}

func (s *stores) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.sqlite != nil {
		return s.sqlite.Close()
	}
	return nil
}
