package cli

import (
	"fmt"

	"github.com/readyresponse/dispatch/db"
	"github.com/spf13/cobra"
)

func MigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv()
			if err != nil {
				return err
			}

			if err := db.MigrateDatabase(env.DB); err != nil {
				return fmt.Errorf("failed to migrate: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s Schema is up to date\n", okMark)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := loadEnv()
			if err != nil {
				return err
			}
			return db.MigrationStatus(env.DB)
		},
	})

	return cmd
}
