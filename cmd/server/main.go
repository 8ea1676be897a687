// Package main is the entry point for the mentorship platform server.
//
// main stays small: read configuration, build the logger and the notifier,
// hand everything to server.New and block in Start. All behaviour lives in
// internal/.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/mentorship-platform/internal/config"
	"github.com/sakif/mentorship-platform/internal/notify"
	"github.com/sakif/mentorship-platform/internal/server"
)

func main() {
	// === 1. CONFIGURATION ===
	// .env first, then the real environment. See internal/config for the
	// variables and their defaults.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. LOGGING ===
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	// === 3. DATABASE DIRECTORY ===
	// A sqlite file path needs its directory to exist (like `mkdir -p`).
	if cfg.Database.Driver == config.DriverSQLite && cfg.Database.URL != ":memory:" {
		dbDir := filepath.Dir(cfg.Database.URL)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dbDir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	// === 4. NOTIFICATIONS ===
	// Without SMTP_HOST, password-change notices only go to the log.
	var notifier notify.Notifier
	if cfg.SMTP.Host != "" {
		notifier = notify.NewSMTPNotifier(cfg.SMTP)
		logger.Info("password notifications via SMTP", slog.String("host", cfg.SMTP.Host))
	} else {
		notifier = notify.NewLogNotifier(logger)
		logger.Warn("SMTP_HOST not set; password notifications are logged only")
	}

	// === 5. CREATE AND START THE SERVER ===
	srv, err := server.New(cfg, logger, notifier)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
