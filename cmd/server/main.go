// Package main is the entry point for the contacts API server.
//
// main stays minimal: load config, create the logger, make sure the data
// directory exists, then hand off to internal/server. All actual logic
// lives in the imported packages.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/contacts-api/internal/config"
	"github.com/sakif/contacts-api/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Create the database directory if needed (like `mkdir -p`). SQLite
	// creates the file itself but not missing parent directories.
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", dbDir),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until the server is shut down via SIGINT/SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
