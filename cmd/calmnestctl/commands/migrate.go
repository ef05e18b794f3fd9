package commands

import (
	"fmt"

	"calmnest-api/internal/conversation"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnvironment()
			if err != nil {
				return err
			}
			defer env.Close()

			if err := conversation.ValidateMigrations(env.db); err != nil {
				return fmt.Errorf("validate migrations: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Migrations applied (%s).\n", env.cfg.Database.Driver)
			return nil
		},
	}
}
