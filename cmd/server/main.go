// Package main is the entry point for the SwipingForJobs API server.
//
// The main package stays minimal: load configuration, build the logger,
// make sure the data directory exists, then hand off to internal/server.
// Start blocks until SIGINT or SIGTERM.
package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/swipejobs/internal/config"
	"github.com/sakif/swipejobs/internal/logger"
	"github.com/sakif/swipejobs/internal/server"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	for _, name := range cfg.InsecureDefaults() {
		log.Warn("secret uses its public development default; set it before deploying",
			slog.String("variable", name))
	}

	// os.MkdirAll is `mkdir -p`; SQLite will not create parent directories.
	if cfg.Database.Path != ":memory:" {
		dbDir := filepath.Dir(cfg.Database.Path)
		if err := os.MkdirAll(dbDir, 0o755); err != nil {
			log.Error("failed to create database directory",
				slog.String("dir", dbDir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	srv, err := server.New(context.Background(), cfg, log)
	if err != nil {
		log.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		log.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
