// Package main is the entry point for the chazara API server.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/phrazzld/chazara-api/internal/config"
	"github.com/phrazzld/chazara-api/internal/platform/logger"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	db, err := openDatabase(cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	if err := runMigrations(db, log); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	app, err := newApplication(cfg, db, log)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.Run()
}
