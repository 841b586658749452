package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

// NewCreateAdminCmd creates the create-admin subcommand.
func NewCreateAdminCmd() *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		Long: `Create an administrator account if no account with that username exists.
Credentials default to ADMIN_USERNAME and ADMIN_PASSWORD.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if username == "" {
				username = cfg.Auth.AdminUsername
			}
			if password == "" {
				password = cfg.Auth.AdminPassword
			}
			if username == "" || password == "" {
				return oops.Code("CONFIG_INVALID").Errorf("admin username and password are required")
			}

			a, err := newApp(cmd.Context(), cfg, stderrLogger(cfg))
			if err != nil {
				return err
			}
			defer a.stores.Close()

			created, err := a.service.EnsureAdmin(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			if created {
				cmd.Printf("Created admin %q\n", username)
			} else {
				cmd.Printf("Account %q already exists\n", username)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "admin username")
	cmd.Flags().StringVar(&password, "password", "", "admin password")
	return cmd
}
