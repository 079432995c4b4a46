package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"taskmanager/internal/client"
	"taskmanager/internal/logger"
	"taskmanager/internal/ui"
	"taskmanager/internal/view"
)

var uiAPI string

func uiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Open the terminal task list against a running API",
		Args:  cobra.NoArgs,
		RunE:  runUI,
	}
	cmd.Flags().StringVar(&uiAPI, "api", "", "API base URL (overrides client.base_url)")
	return cmd
}

func runUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if uiAPI != "" {
		cfg.Client.BaseURL = uiAPI
	}

	// the terminal belongs to the UI, so only log when a file is configured
	log := logger.Discard()
	if cfg.Log.File != "" {
		l, closer, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer closer.Close()
		log = l
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := client.New(cfg.Client.BaseURL, cfg.Client.Timeout)
	if err := ui.Run(ctx, view.New(api), log); err != nil {
		return fmt.Errorf("ui: %w", err)
	}
	return nil
}
