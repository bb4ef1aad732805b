// File: cmd/server/main.go
package main

import (
	"context"
	"flag"
	"log" // Standard log for messages before zap is active
	"os"
	"os/signal"
	"syscall"

	"lecture_companion_backend/internal/config"
	"lecture_companion_backend/internal/platform/database"
	"lecture_companion_backend/internal/platform/logger"
	"lecture_companion_backend/internal/user"

	"go.uber.org/zap"
)

func main() {
	migrateCmd := flag.NewFlagSet("migrate", flag.ExitOnError)

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		_ = migrateCmd.Parse(os.Args[2:])
		if err := runMigrations(); err != nil {
			log.Fatalf("FATAL: Migration failed: %v", err)
		}
		return
	}

	startServer()
}

func runMigrations() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	appLogger, err := logger.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = appLogger.Sync() }()

	db, cleanup, err := database.NewGORM(cfg, appLogger)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := database.AutoMigrate(db, user.Models()...); err != nil {
		return err
	}
	appLogger.Info("Migrations applied", zap.String("driver", cfg.DBDriver))
	return nil
}

func startServer() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	application, cleanup, err := initializeServer(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize server: %v", err)
	}
	defer cleanup()
	server, appLogger := application.server, application.logger

	if cfg.SessionSecretGenerated {
		appLogger.Warn("SESSION_SECRET is not set; using a random secret, sessions will not survive a restart")
	}
	if cfg.DBDriver == "sqlite" {
		// A local sqlite file has no separate migration step in development.
		if err := database.AutoMigrate(application.db, user.Models()...); err != nil {
			appLogger.Fatal("FATAL: Failed to migrate sqlite database", zap.Error(err))
		}
	}

	go func() {
		if err := server.Start(); err != nil {
			appLogger.Fatal("FATAL: Server failed to start or crashed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	appLogger.Info("Received signal, shutting down server", zap.String("signal", sig.String()))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ServerTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
	} else {
		appLogger.Info("Server shutdown complete")
	}
}
