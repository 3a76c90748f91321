package main

import (
	"context"
	"flag"

	log "github.com/sirupsen/logrus"

	"github.com/23CSBS271/focus-flow/config"
	"github.com/23CSBS271/focus-flow/storage"
)

func main() {
	configPath := flag.String("config", "", "path to focusflow.yml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}
	log.Info("storage init starting")

	if cfg.StorageConnectionString == "" {
		log.Fatal("missing storage_connection_string")
	}

	ctx := context.Background()
	logger := log.StandardLogger()

	if err := storage.CreateTables(ctx, cfg.StorageConnectionString, []string{
		cfg.TasksTable,
		cfg.ProfilesTable,
	}, logger); err != nil {
		log.Fatalf("create tables: %v", err)
	}
	if err := storage.CreateQueues(ctx, cfg.StorageConnectionString, []string{cfg.EventsQueue}, logger); err != nil {
		log.Fatalf("create queues: %v", err)
	}

	log.Info("storage init complete")
}
