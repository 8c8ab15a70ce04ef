package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// migrator is implemented by database backends that manage their own schema
type migrator interface {
	RunMigrations(ctx context.Context) error
}

// MigrateCmd creates the migrate command
func MigrateCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, ok := app.Database.(migrator)
			if !ok {
				return fmt.Errorf("database %s does not support migrations", app.Cfg.Database.Driver)
			}

			if err := m.RunMigrations(app.Ctx); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("\n✅ Database schema is up to date (%s)\n\n", app.Cfg.Database.Driver)
			return nil
		},
	}
}
