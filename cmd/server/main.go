// Package main is the entry point for the dating profiles API server.
//
// The main package stays minimal. Its job is to:
//  1. Read configuration (flag, config file, .env, environment)
//  2. Create the logger
//  3. Build the server and run it until SIGINT/SIGTERM
//
// All actual logic lives in internal/.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/sakif/dating-profiles/internal/config"
	"github.com/sakif/dating-profiles/internal/logger"
	"github.com/sakif/dating-profiles/internal/server"
)

// startupTimeout bounds connecting to the store and running migrations.
const startupTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	// === 1. CONFIGURATION ===
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	// === 2. LOGGING ===
	// Colored human-readable output in development, JSON everywhere else.
	log := logger.New(cfg.IsDevelopment(), cfg.LogLevel)
	slog.SetDefault(log)

	// === 3. SERVER ===
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	srv, err := server.New(ctx, cfg, log)
	cancel()
	if err != nil {
		log.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until the server is shut down.
	if err := srv.Start(); err != nil {
		log.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
