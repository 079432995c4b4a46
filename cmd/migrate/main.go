package main

import (
	"context"
	"flag"
	"log"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"taskmanager/internal/config"
	"taskmanager/internal/db"
	"taskmanager/internal/logger"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the YAML config file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logr, closer, err := logger.New(cfg.Log, "taskmanager-migrate")
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer closer.Close()

	ctx := context.Background()
	store, err := db.Open(ctx, cfg.Database)
	if err != nil {
		logr.WithError(err).Fatal("Unable to connect to database")
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		logr.WithError(err).Fatal("Error executing migration")
	}

	logr.WithFields(logrus.Fields{
		"driver": cfg.Database.Driver,
		"table":  cfg.Database.Table,
	}).Info("Migration completed successfully")
}
