// File: internal/auth/interfaces.go
package auth

import (
	"context"

	"lecture_companion_backend/internal/user"

	"github.com/google/uuid"
)

// CredentialStore is the account store the auth flows run against.
// It is implemented by user.ServiceImplementation.
type CredentialStore interface {
	CreateUser(ctx context.Context, profile user.Profile, password *string) (*user.User, error)
	CreateExternalUser(ctx context.Context, profile user.Profile, login user.LoginInfo) (*user.User, error)
	FindByEmail(ctx context.Context, email string) (*user.User, error)
	FindByLogin(ctx context.Context, provider, providerKey string) (*user.User, error)
	AddExternalLogin(ctx context.Context, u *user.User, login user.LoginInfo) error
	SignInWithPassword(ctx context.Context, email, password string) (*user.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

// TokenExchanger trades an authorization code for the provider's tokens.
type TokenExchanger interface {
	Exchange(ctx context.Context, code string) (*TokenResponse, error)
}

// TokenValidator verifies an identity token and returns its claims. Any failure is
// reported as ErrInvalidToken.
type TokenValidator interface {
	Validate(ctx context.Context, idToken string) (*TokenPayload, error)
}

// SignInFunc marks u as the authenticated principal of the current request.
type SignInFunc func(u *user.User) error
