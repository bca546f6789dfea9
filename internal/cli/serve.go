package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-grading-api/internal/app"
	"github.com/noah-isme/lms-grading-api/migrations"
	"github.com/noah-isme/lms-grading-api/pkg/config"
	"github.com/noah-isme/lms-grading-api/pkg/database"
	"github.com/noah-isme/lms-grading-api/pkg/logger"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the grading HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return Serve(cmd.Context())
		},
	}
}

// Serve loads configuration and runs the HTTP API until SIGINT or SIGTERM.
func Serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg, logr, err := bootstrap()
	if err != nil {
		return err
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg, logr)
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck
	return a.Run(ctx)
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logr, err := bootstrap()
			if err != nil {
				return err
			}
			defer logr.Sync() //nolint:errcheck

			db, err := database.NewPostgres(cfg.Database)
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			defer db.Close()

			ran, err := database.Migrate(cmd.Context(), db, migrations.Files, logr)
			if err != nil {
				return err
			}
			logr.Info("migrations complete", zap.Int("applied", len(ran)))
			return nil
		},
	}
}

func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logr, nil
}
