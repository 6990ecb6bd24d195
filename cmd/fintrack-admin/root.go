package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

// app carries the loaded configuration between cobra hooks and commands.
type app struct {
	cfg    *config.Config
	logger *log.Logger
	now    func() time.Time

	flagBackend    string
	flagSQLitePath string
	flagPostgres   string
}

// session is an open store plus the services built on it.
type session struct {
	expenses *services.ExpenseService
	reports  *services.ReportService
	close    func()
}

func newRootCmd() *cobra.Command {
	a := &app{now: time.Now}

	root := &cobra.Command{
		Use:          "fintrack-admin",
		Short:        "Operator tools for the fintrack bot",
		Long:         "Import, export and inspect a user's records, and migrate the database schema.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.loadConfig(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.flagBackend, "backend", "", fmt.Sprintf("Data backend %v; overrides DATA_BACKEND", backend.BackendTypeStrings()))
	root.PersistentFlags().StringVar(&a.flagSQLitePath, "sqlite-path", "", "SQLite database file; overrides SQLITE_DB_PATH")
	root.PersistentFlags().StringVar(&a.flagPostgres, "postgres-url", "", "Postgres connection URL; overrides POSTGRES_URL")

	root.AddCommand(
		a.newImportCmd(),
		a.newExportCmd(),
		a.newStatsCmd(),
		a.newForecastCmd(),
		a.newMigrateCmd(),
	)
	return root
}

func (a *app) loadConfig(cmd *cobra.Command) error {
	cli.LoadEnvFile()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.flagBackend != "" {
		cfg.DataBackend = a.flagBackend
	}
	if a.flagSQLitePath != "" {
		cfg.SQLiteDBPath = a.flagSQLitePath
	}
	if a.flagPostgres != "" {
		cfg.PostgresURL = a.flagPostgres
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logCfg := log.DefaultConfig()
	logCfg.Level = log.ParseLevel(cfg.LogLevel)
	logCfg.Component = log.ComponentApp
	logCfg.Output = cmd.ErrOrStderr()

	a.cfg = cfg
	a.logger = log.New(logCfg)
	return nil
}

// open connects to the configured store. Events are published when AMQP is
// configured so imports reach the worker like bot writes do.
func (a *app) open(ctx context.Context) (*session, error) {
	factory := backend.NewFactory(a.logger.Logger.With(log.FieldComponent, log.ComponentBackend))

	storeCfg, err := backend.FromAppConfig(a.cfg)
	if err != nil {
		return nil, err
	}
	result, err := factory.CreateStore(ctx, storeCfg)
	if err != nil {
		return nil, err
	}

	var publisher services.Publisher
	client := factory.NewPublisher(a.cfg)
	if client != nil {
		publisher = client
	}

	return &session{
		expenses: services.NewExpenseService(result.Store, publisher),
		reports:  services.NewReportService(result.Store),
		close: func() {
			if client != nil {
				client.Close()
			}
			if err := result.Cleanup(); err != nil {
				a.logger.Warn("Failed to close store", log.FieldError, err)
			}
		},
	}, nil
}

var errUserRequired = errors.New("--user is required")

func requireUser(userID int64) error {
	if userID <= 0 {
		return errUserRequired
	}
	return nil
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
