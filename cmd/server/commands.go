package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/phrazzld/skillswap-api/internal/config"
	"github.com/phrazzld/skillswap-api/internal/platform/logger"
	"github.com/phrazzld/skillswap-api/internal/platform/postgres"
	"github.com/phrazzld/skillswap-api/internal/service/auth"
	"github.com/spf13/cobra"
)

// loadConfig is replaced in tests.
var loadConfig = config.Load

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "skillswap-api",
		Short:         "Peer skill exchange API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	root.AddCommand(newServeCommand(), newMigrateCommand(), newTokenCommand())
	return root
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newApplication(ctx, cfg, log)
	if err != nil {
		return err
	}
	return app.run(ctx)
}

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	for _, sub := range []struct {
		command string
		short   string
	}{
		{postgres.MigrateUp, "Apply all pending migrations"},
		{postgres.MigrateDown, "Roll back the latest migration"},
		{postgres.MigrateStatus, "Show the status of every migration"},
		{postgres.MigrateVersion, "Print the current schema version"},
	} {
		command := sub.command
		cmd.AddCommand(&cobra.Command{
			Use:   command,
			Short: sub.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runMigrate(cmd.Context(), command)
			},
		})
	}
	return cmd
}

func runMigrate(ctx context.Context, command string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	if cfg.Database.Driver != config.DriverPostgres {
		return errors.New("migrations require the postgres database driver")
	}

	db, err := openPostgres(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Error("failed to close database", slog.String("error", cerr.Error()))
		}
	}()

	return postgres.Migrate(ctx, db, command, log)
}

func newTokenCommand() *cobra.Command {
	var userFlag string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a development access token for a user ID",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := uuid.Parse(userFlag)
			if err != nil {
				return fmt.Errorf("invalid --user %q: %w", userFlag, err)
			}

			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			jwtService, err := auth.NewJWTService(cfg.Auth)
			if err != nil {
				return fmt.Errorf("failed to create JWT service: %w", err)
			}

			token, err := jwtService.GenerateToken(cmd.Context(), userID)
			if err != nil {
				return fmt.Errorf("failed to generate token: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&userFlag, "user", "", "user ID (UUID) the token is issued for")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

// setup loads the configuration and installs the application logger.
func setup() (*config.Config, *slog.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}
	log.Info("configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("database_driver", cfg.Database.Driver),
		slog.Bool("sweep_enabled", cfg.Sweep.Enabled))
	return cfg, log, nil
}
