package main

import (
	"lecture_companion_backend/internal/app"
	"lecture_companion_backend/internal/config"
	"lecture_companion_backend/internal/platform/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// application is what the injector hands to main.
type application struct {
	server *app.Server
	logger *zap.Logger
	db     *gorm.DB
}

func newApplication(server *app.Server, logger *zap.Logger, db *gorm.DB) *application {
	return &application{server: server, logger: logger, db: db}
}

// provideLogger builds the zap logger and flushes it on cleanup.
func provideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	l, err := logger.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return l, func() { _ = l.Sync() }, nil
}
