package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"taskmanager/internal/db"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the tasks table if it does not exist",
		Args:  cobra.NoArgs,
		RunE:  runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, closer, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx := context.Background()
	store, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("unable to connect to database: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("error executing migration: %w", err)
	}

	log.WithField("driver", cfg.Database.Driver).Info("Migration completed successfully")
	return nil
}
