// Package cli wires configuration, storage and services into the mindmeet
// command-line interface.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mindmeet/mindmeet/internal/config"
	"github.com/mindmeet/mindmeet/internal/domain"
	"github.com/mindmeet/mindmeet/internal/repository/postgres"
	"github.com/mindmeet/mindmeet/internal/repository/sqlite"
)

// NewRootCommand builds the mindmeet command tree around its own viper
// instance.
func NewRootCommand() *cobra.Command {
	v := config.New()
	var configFile string

	root := &cobra.Command{
		Use:           "mindmeet",
		Short:         "MindMeet meetings backend",
		Long:          "Serves the MindMeet authentication and meetings API and manages its database.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configFile != "" {
				v.SetConfigFile(configFile)
			}
			return config.ReadFile(v)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "path to a config file (default ./config.yaml)")
	flags.String("database-driver", config.DriverSQLite, "database driver: sqlite or postgres")
	flags.String("database-path", "mindmeet.db", "SQLite database file")
	flags.String("database-url", "", "Postgres connection URL")
	flags.String("log-level", "info", "log level: debug, info, warn or error")

	// Bind flags to viper
	v.BindPFlag("database.driver", flags.Lookup("database-driver"))
	v.BindPFlag("database.path", flags.Lookup("database-path"))
	v.BindPFlag("database.url", flags.Lookup("database-url"))
	v.BindPFlag("log.level", flags.Lookup("log-level"))

	root.AddCommand(newServeCommand(v))
	root.AddCommand(newMigrateCommand(v))
	root.AddCommand(newUserCommand(v))
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupLogger installs the default logger: text on stdout, JSON on stderr.
func setupLogger(level slog.Level) {
	logOpts := &slog.HandlerOptions{Level: level}
	logger := slog.New(slog.NewMultiHandler(
		slog.NewTextHandler(os.Stdout, logOpts),
		slog.NewJSONHandler(os.Stderr, logOpts),
	))
	slog.SetDefault(logger)
}

// openStore opens the configured backend. The caller closes it.
func openStore(ctx context.Context, cfg *config.Config) (domain.Store, error) {
	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		db, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return db, nil
	default:
		db, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return db, nil
	}
}
