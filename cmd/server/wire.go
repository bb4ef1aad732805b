// File: cmd/server/wire.go
//go:build wireinject
// +build wireinject

package main

import (
	"lecture_companion_backend/internal/app"
	"lecture_companion_backend/internal/auth"
	"lecture_companion_backend/internal/config"
	"lecture_companion_backend/internal/platform/database"
	"lecture_companion_backend/internal/user"

	"github.com/google/wire"
)

// initializeServer is the main Wire injector.
func initializeServer(cfg *config.Config) (*application, func(), error) {
	wire.Build(
		// Platform Layer
		provideLogger,
		database.NewGORM,

		// Credential store
		user.NewGORMRepository,
		user.NewService,
		wire.Bind(new(auth.CredentialStore), new(*user.ServiceImplementation)),

		// Google sign-in collaborators
		auth.NewGoogleExchanger,
		wire.Bind(new(auth.TokenExchanger), new(*auth.GoogleExchanger)),
		auth.NewGoogleValidator,
		wire.Bind(new(auth.TokenValidator), new(*auth.OIDCValidator)),
		auth.NewCodeReplayGuard,
		auth.NewGoogleSettings,

		// Auth flows and HTTP
		auth.NewService,
		auth.NewSessionManager,
		auth.NewHandler,

		// Application Layer
		app.NewServer,
		newApplication,
	)
	return nil, nil, nil
}
