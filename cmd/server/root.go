package main

import (
	"github.com/spf13/cobra"

	"userSessionService/internal/config"
)

// Global flags available to all subcommands.
var (
	envFiles []string
	devMode  bool
)

// NewRootCmd creates the root command for the usersessiond CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "usersessiond",
		Short: "usersessiond - account and session service",
		Long: `usersessiond serves account registration, login and logout with
server-side sessions over HTTP and gRPC, and manages its database schema.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env"}, "dotenv files to load before reading the environment")
	cmd.PersistentFlags().BoolVar(&devMode, "dev", false, "allow a built-in SESSION_SECRET (development only)")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewCreateAdminCmd())

	return cmd
}

// loadConfig reads dotenv files and the environment.
func loadConfig() (*config.Config, error) {
	if err := config.LoadDotEnv(envFiles...); err != nil {
		return nil, err
	}
	if devMode {
		return config.LoadWithDefaults()
	}
	return config.Load()
}
