package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/sp2yt/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the example configuration to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	if err := shared.CreateConfigFile(r.configPath); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", r.configPath)
	r.writePlain("✓ Config written to %s\n", r.configPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Fill in credentials.spotify and credentials.youtube (or set CLIENT_ID, CLIENT_SECRET, YOUTUBE_CLIENT_ID, YOUTUBE_CLIENT_SECRET)\n")
	r.writePlain("2. Run 'sp2yt auth youtube' to connect your YouTube channel\n")
	return nil
}

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Database
	r.logger.Info("initializing database", "path", cfg.Path)

	db, err := shared.OpenDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if cmd.Bool("rollback") {
		if err := shared.RollbackMigration(db); err != nil {
			return err
		}
		r.writePlain("✓ Rolled back the latest migration\n")
	}

	if cmd.Bool("rollback") || cmd.Bool("status") {
		applied, err := shared.MigrationStatus(db)
		if err != nil {
			return err
		}
		r.writePlain("Applied migrations: %d\n", len(applied))
		for _, m := range applied {
			r.writePlain("  %03d  %s\n", m.Version, m.AppliedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	}

	r.logger.Infof("setup complete for database: %v", cfg.Path)
	r.writePlain("✓ Database ready at %s\n", cfg.Path)
	return nil
}
