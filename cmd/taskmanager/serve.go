package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"taskmanager/internal/db"
	"taskmanager/internal/httpapi"
	"taskmanager/internal/task"
)

var (
	serveAddr    string
	serveMigrate bool
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the task HTTP API",
		Long: `Start the task HTTP API.

Examples:
  taskmanager serve
  taskmanager serve --addr :9090 --migrate
  taskmanager serve -c /etc/taskmanager/config.yaml`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	addServeFlags(cmd)
	return cmd
}

func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().BoolVar(&serveMigrate, "migrate", false, "create the tasks table before serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	log, closer, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	log.WithField("version", Version).Info("Starting taskmanager")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.WithError(err).Warn("error closing database")
		}
	}()

	if cfg.Database.AutoMigrate || serveMigrate {
		if err := store.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
		log.WithField("table", cfg.Database.Table).Info("schema is up to date")
	}

	gin.SetMode(gin.ReleaseMode)
	srv := httpapi.NewServer(
		task.NewService(store, log),
		log,
		httpapi.WithErrorDetails(cfg.Server.ExposeErrorDetails),
	)

	if err := srv.Run(ctx, cfg.Server); err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	log.Info("Application shutdown complete")
	return nil
}
