// Package main is the entry point for the CodeBin server.
//
// main stays minimal: it reads configuration, builds the logger and hands
// both to internal/server, which does the wiring. Every setting comes from
// the environment (see internal/config), e.g.
//
//	PORT=8080 CODEBIN_DB_PATH=data/codebin.db CODEBIN_SESSION_SECRET=$(openssl rand -hex 32) ./server
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/codebin/internal/config"
	"github.com/sakif/codebin/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Validate has already accepted the level.
	level, _ := config.ParseLevel(cfg.LogLevel)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	// Make sure the database directory exists (like `mkdir -p`).
	if cfg.DBPath != ":memory:" {
		dbDir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dbDir, 0o755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dbDir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT or SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
