package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewMigrateCmd creates the migrate command
func NewMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()

			if err := e.db.Migrate(cmd.Context()); err != nil {
				return fmt.Errorf("failed to migrate: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✓ Schema is up to date")
			return nil
		},
	}
}
