// Package cmd wires configuration, storage, the corpus index and the
// assistant into the halcyon command line interface.
package cmd

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/halcyon0/halcyon/internal/config"
	"github.com/halcyon0/halcyon/internal/database"
	"github.com/halcyon0/halcyon/internal/log"
	"github.com/halcyon0/halcyon/internal/user"
)

var rootCmd = &cobra.Command{
	Use:   "halcyon",
	Short: "Halcyon is a supportive mental well-being chat assistant",
	Long: `Halcyon answers questions about mental well-being, grounded in a
reference corpus. Conversations are stored per user so the assistant
can follow up across sessions.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// app holds the process-wide dependencies shared by all commands.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *sql.DB
	users  *user.Store
}

// setup loads configuration, opens the database and runs migrations.
// The caller closes the returned app.
func setup() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := log.New(log.Config{Level: log.ParseLevel(cfg.LogLevel), JSON: cfg.LogJSON})

	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		db:     db,
		users:  user.New(db, logger),
	}, nil
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		a.logger.Warn("closing database", "error", err)
	}
}
