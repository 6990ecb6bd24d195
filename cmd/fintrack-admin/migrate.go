package main

import (
	"github.com/spf13/cobra"

	"fintrack/internal/backend"
	"fintrack/internal/storage"
)

func (a *app) newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations to the configured database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			storeCfg, err := backend.FromAppConfig(a.cfg)
			if err != nil {
				return err
			}
			dialect, dsn, err := storeCfg.MigrationTarget()
			if err != nil {
				return err
			}

			a.logger.Info("Running migrations", "dialect", dialect)
			if err := storage.RunMigrations(dialect, dsn); err != nil {
				return err
			}
			printf(cmd, "Migrations applied (%s)\n", dialect)
			return nil
		},
	}
}
