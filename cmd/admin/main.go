// Package main is the operator CLI: seed the bootstrap admin, issue invitations and export ID cards.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/retreat-admin/backend/config"
	"github.com/retreat-admin/backend/pkg/database"
)

// App holds the dependencies shared by every command.
type App struct {
	cfg    *config.Config
	logger *zap.Logger
	ctx    context.Context
	db     *pgxpool.Pool
}

var (
	verbose bool
	app     *App
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "admin",
		Short:         "Retreat admin CLI",
		Long:          `Operator tooling for the registration admin backend: bootstrap accounts, invitations and card exports.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app == nil {
				return
			}
			if app.db != nil {
				app.db.Close()
			}
			_ = app.logger.Sync()
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level")

	rootCmd.AddCommand(seedAdminCmd())
	rootCmd.AddCommand(issueInvitationCmd())
	rootCmd.AddCommand(exportCardsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func initApp() error {
	logger, err := newLogger(verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app = &App{cfg: cfg, logger: logger, ctx: context.Background()}
	return nil
}

// pool opens the database on first use; invitation commands never touch it.
func (a *App) pool() (*pgxpool.Pool, error) {
	if a.db != nil {
		return a.db, nil
	}
	pool, err := database.NewPostgresPool(a.ctx, a.cfg.Database.DSN(), a.cfg.Database.MaxConns, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.db = pool
	return pool, nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if !debug {
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return config.Build()
}
