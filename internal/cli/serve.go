package cli

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ren-perez/saldo-backend/internal/api"
	"github.com/ren-perez/saldo-backend/internal/infrastructure/config"
	"github.com/ren-perez/saldo-backend/internal/infrastructure/logging"
	"github.com/ren-perez/saldo-backend/internal/infrastructure/storage"
)

// ServeFlags holds the CLI flags for the serve command.
type ServeFlags struct {
	ConfigFile string
	Port       int
	Verbose    bool
}

// ParseServeFlags parses command line flags for the serve command.
func ParseServeFlags() *ServeFlags {
	flags := &ServeFlags{}
	flag.StringVar(&flags.ConfigFile, "config", "config.yaml", "Configuration file path")
	flag.IntVar(&flags.Port, "port", 0, "Port to listen on (overrides config)")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Verbose output")
	flag.Parse()
	return flags
}

// RunServe runs the API server until it receives SIGINT or SIGTERM.
func RunServe(cfg *config.Config, flags *ServeFlags) error {
	loggingCfg := cfg.Observability.Logging
	if flags.Verbose {
		loggingCfg.Level = "debug"
	}
	logger := logging.NewLoggerWithSystem(loggingCfg, "api")

	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	port := cfg.Server.Port
	if flags.Port != 0 {
		port = flags.Port
	}
	apiCfg := api.Config{
		Port:           port,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}

	services := api.NewServices(store, cfg.Matching, logger)
	server := api.NewServer(apiCfg, store, services, logger)

	// Handle graceful shutdown
	done := make(chan bool, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("received shutdown signal")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("server shutdown error", slog.Any("error", err))
		}
		close(done)
	}()

	// Start server (blocks until shutdown)
	if err := server.Start(); err != nil {
		return err
	}

	<-done
	logger.Info("server stopped")
	return nil
}
