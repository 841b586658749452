package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"userSessionService/internal/config"
	"userSessionService/internal/db"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	var rollback bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Apply all pending migrations to the configured database.
With --rollback, revert the most recently applied SQLite migration instead.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runMigrate(cmd, cfg, rollback)
		},
	}
	cmd.Flags().BoolVar(&rollback, "rollback", false, "revert the last applied migration (sqlite only)")
	return cmd
}

func runMigrate(cmd *cobra.Command, cfg *config.Config, rollback bool) error {
	if cfg.Database.Driver == config.DriverPostgres {
		if rollback {
			return oops.Code("CONFIG_INVALID").Errorf("--rollback is only supported for the sqlite driver")
		}
		cmd.Println("Connecting to database...")
		pool, err := db.OpenPostgres(cmd.Context(), cfg.Database.URL)
		if err != nil {
			return oops.Code("DB_CONNECT_FAILED").With("operation", "connect to database").Wrap(err)
		}
		pool.Close()

		cmd.Println("Running migrations...")
		version, err := db.MigratePostgres(cfg.Database.URL)
		if err != nil {
			return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
		}
		cmd.Printf("Migrations completed successfully (version %d)\n", version)
		return nil
	}

	d, err := db.Open(cfg.Database.Path)
	if err != nil {
		return oops.Code("MIGRATION_FAILED").With("operation", "run migrations").Wrap(err)
	}
	defer d.Close()

	if rollback {
		v, err := db.RollbackLast(d)
		if err != nil {
			return err
		}
		if v == 0 {
			cmd.Println("No migrations to roll back")
			return nil
		}
		cmd.Printf("Rolled back migration %04d\n", v)
		return nil
	}

	version, err := db.Version(d)
	if err != nil {
		return err
	}
	cmd.Printf("Migrations completed successfully (version %d)\n", version)
	return nil
}
