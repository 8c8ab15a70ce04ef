package main

import (
	"context"
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/venue-rota/cmd/cli/commands"
	"github.com/jakechorley/venue-rota/internal/config"
	"github.com/jakechorley/venue-rota/pkg/clients/sheetsclient"
	"github.com/jakechorley/venue-rota/pkg/db"
	"github.com/jakechorley/venue-rota/pkg/postgres"
	"github.com/jakechorley/venue-rota/pkg/sqlite"
	"github.com/jakechorley/venue-rota/pkg/utils/logging"
	"github.com/jakechorley/venue-rota/pkg/windowlock"
)

var (
	env     string
	verbose bool
	app     = &commands.AppContext{Ctx: context.Background()}
	cleanup []func()
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cli",
		Short: "Venue Rota CLI - Plan, publish and archive staff shifts",
		Long:  `A CLI tool for generating staff rotas across venue locations, editing and publishing them, and archiving past weeks.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			shutdown()
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug logs on the console")
	rootCmd.MarkPersistentFlagRequired("env")

	rootCmd.AddCommand(commands.GenerateRotaCmd(app))
	rootCmd.AddCommand(commands.BeginEditCmd(app))
	rootCmd.AddCommand(commands.PublishRotaCmd(app))
	rootCmd.AddCommand(commands.RolloverCmd(app))
	rootCmd.AddCommand(commands.WatchRolloverCmd(app))
	rootCmd.AddCommand(commands.ViewScheduleCmd(app))
	rootCmd.AddCommand(commands.ListArchiveCmd(app))
	rootCmd.AddCommand(commands.ViewArchiveCmd(app))
	rootCmd.AddCommand(commands.ListRosterCmd(app))
	rootCmd.AddCommand(commands.ImportRosterCmd(app))
	rootCmd.AddCommand(commands.MigrateCmd(app))
	rootCmd.AddCommand(commands.InteractiveCmd(app))

	if err := rootCmd.Execute(); err != nil {
		shutdown()
		os.Exit(1)
	}
}

// initApp sets up logger, config, database, roster source and window lock
func initApp() error {
	logger, closeLogger, err := logging.InitLogger(env, verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	app.Logger = logger
	app.Env = env
	cleanup = append(cleanup, closeLogger)

	app.Logger.Debug("Starting application", zap.String("environment", env))

	app.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Logger.Debug("Configuration loaded successfully")

	app.Database, err = openDatabase(app.Ctx, app.Cfg.Database, app.Logger)
	if err != nil {
		return err
	}
	cleanup = append(cleanup, func() { app.Database.Close() })

	app.OpenRosterSheet = func() (db.RosterStore, error) {
		return openRosterSheet(app.Ctx, app.Cfg.Roster, env, app.Logger)
	}

	app.Roster = app.Database
	if app.Cfg.Roster.Source == config.RosterSourceSheets {
		app.Roster, err = app.OpenRosterSheet()
		if err != nil {
			return err
		}
	}

	app.Locker, err = openLocker(app.Ctx, app.Cfg.Lock, app.Logger)
	if err != nil {
		return err
	}

	return nil
}

func openDatabase(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (db.Database, error) {
	logger.Debug("Connecting to database", zap.String("driver", cfg.Driver))

	switch cfg.Driver {
	case config.DriverPostgres:
		pg, err := postgres.NewDB(ctx, cfg.DSN, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		return pg, nil
	case config.DriverSQLite:
		lite, err := sqlite.NewDB(ctx, cfg.DSN, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite: %w", err)
		}
		return lite, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

func openRosterSheet(ctx context.Context, cfg config.RosterConfig, env string, logger *zap.Logger) (*sheetsclient.RosterSource, error) {
	oauthCfg, err := config.LoadOAuthClientWithEnv(env)
	if err != nil {
		return nil, fmt.Errorf("failed to load OAuth client config: %w", err)
	}

	logger.Debug("Initializing sheets client")
	client, err := sheetsclient.NewClient(ctx, oauthCfg, env, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}

	return sheetsclient.NewRosterSource(client, cfg), nil
}

func openLocker(ctx context.Context, cfg config.LockConfig, logger *zap.Logger) (windowlock.Locker, error) {
	if cfg.RedisAddr == "" {
		return windowlock.NewLocalLocker(), nil
	}

	locker, err := windowlock.NewRedisLocker(ctx, windowlock.RedisOptions{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		TTL:      cfg.TTL,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	cleanup = append(cleanup, func() { locker.Close() })
	return locker, nil
}

// shutdown runs the cleanup functions in reverse order, once
func shutdown() {
	for i := len(cleanup) - 1; i >= 0; i-- {
		cleanup[i]()
	}
	cleanup = nil
}
