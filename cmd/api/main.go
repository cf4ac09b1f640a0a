package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kwf-energie/energiemonitor/internal/buffer"
	"github.com/kwf-energie/energiemonitor/internal/config"
	"github.com/kwf-energie/energiemonitor/internal/logging"
	"github.com/kwf-energie/energiemonitor/internal/router"
	"github.com/kwf-energie/energiemonitor/internal/storage"
)

var (
	Version   = "dev"     // Injected via ldflags during build
	GitCommit = "unknown" // Injected via ldflags during build
	BuildTime = "unknown" // Injected via ldflags during build
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetGlobal(logger)
	logger.Info("Energiemonitor API starting...",
		"version", Version, "commit", GitCommit, "build time", BuildTime)

	// Connect to the document store
	logger.Info("Connecting to document store", "backend", cfg.Store.Backend)
	store, err := storage.NewStore(context.Background(), cfg.Store, logger)
	if err != nil {
		logger.Fatal("Failed to connect to document store", "error", err)
	}
	defer func() { _ = store.Close() }()

	// Shared point buffer
	buf := buffer.New(cfg.Buffer.MaxPointsPerBatch, logger)
	logger.Info("Point buffer initialized", "max_points_per_batch", buf.MaxPoints())

	// Log authentication status
	if cfg.Auth.Enabled {
		logger.Info("Device-key authentication enabled", "num_devices", len(cfg.Auth.DeviceKeys))
	} else {
		logger.Warn("Device-key authentication DISABLED - all requests will be allowed")
	}

	// Initialize router
	app := router.New(logger, buf, store, *cfg)

	// Start server in goroutine
	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort)
		logger.Info("Server listening", "address", addr)
		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with 10 second timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}
