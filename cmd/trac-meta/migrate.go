package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tracmeta/catalog/internal/catalog/migrations"
	"github.com/tracmeta/catalog/internal/config"
)

// newMigrateCommand groups the schema-migration subcommands, grounded on
// the teacher's internal/infrastructure/migrations/cli.go upCommand/
// downCommand/statusCommand, trimmed to the three operations
// internal/catalog/migrations actually exposes (no backup/health-check
// manager — that machinery belonged to the teacher's own elaborate
// MigrationManager, not this catalog's much smaller goose wrapper).
func newMigrateCommand(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the catalog's schema migrations",
	}
	cmd.AddCommand(
		newMigrateUpCommand(flags),
		newMigrateDownCommand(flags),
		newMigrateStatusCommand(flags),
	)
	return cmd
}

func newMigrateUpCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadRuntimeConfig(flags)
			if err != nil {
				return err
			}
			db, dialect, closeDB, err := openMigrationDB(cfg)
			if err != nil {
				return err
			}
			defer closeDB()
			return migrations.Up(db, dialect, logger)
		},
	}
}

func newMigrateDownCommand(flags *rootFlags) *cobra.Command {
	var version int64
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back every migration newer than --version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadRuntimeConfig(flags)
			if err != nil {
				return err
			}
			db, dialect, closeDB, err := openMigrationDB(cfg)
			if err != nil {
				return err
			}
			defer closeDB()
			return migrations.DownTo(db, dialect, version, logger)
		},
	}
	cmd.Flags().Int64Var(&version, "version", 0, "migration version to roll back to (this version stays applied)")
	return cmd
}

func newMigrateStatusCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report applied and pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadRuntimeConfig(flags)
			if err != nil {
				return err
			}
			db, dialect, closeDB, err := openMigrationDB(cfg)
			if err != nil {
				return err
			}
			defer closeDB()
			return migrations.Status(db, dialect, logger)
		},
	}
}

// loadRuntimeConfig loads and validates the config every subcommand
// needs, failing fast with a single wrapped error (cobra's
// SilenceUsage/SilenceErrors prints only this line, per spec §6).
func loadRuntimeConfig(flags *rootFlags) (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadConfig(flags.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, newProcessLogger(cfg), nil
}
