package auth

import (
	"context"

	"lecture_companion_backend/internal/user"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type mockExchanger struct{ mock.Mock }

func (m *mockExchanger) Exchange(ctx context.Context, code string) (*TokenResponse, error) {
	args := m.Called(ctx, code)
	tr, _ := args.Get(0).(*TokenResponse)
	return tr, args.Error(1)
}

type mockValidator struct{ mock.Mock }

func (m *mockValidator) Validate(ctx context.Context, idToken string) (*TokenPayload, error) {
	args := m.Called(ctx, idToken)
	p, _ := args.Get(0).(*TokenPayload)
	return p, args.Error(1)
}

type mockStore struct{ mock.Mock }

func (m *mockStore) CreateUser(ctx context.Context, profile user.Profile, password *string) (*user.User, error) {
	args := m.Called(ctx, profile, password)
	u, _ := args.Get(0).(*user.User)
	return u, args.Error(1)
}

func (m *mockStore) CreateExternalUser(ctx context.Context, profile user.Profile, login user.LoginInfo) (*user.User, error) {
	args := m.Called(ctx, profile, login)
	u, _ := args.Get(0).(*user.User)
	return u, args.Error(1)
}

func (m *mockStore) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*user.User)
	return u, args.Error(1)
}

func (m *mockStore) FindByLogin(ctx context.Context, provider, providerKey string) (*user.User, error) {
	args := m.Called(ctx, provider, providerKey)
	u, _ := args.Get(0).(*user.User)
	return u, args.Error(1)
}

func (m *mockStore) AddExternalLogin(ctx context.Context, u *user.User, login user.LoginInfo) error {
	return m.Called(ctx, u, login).Error(0)
}

func (m *mockStore) SignInWithPassword(ctx context.Context, email, password string) (*user.User, error) {
	args := m.Called(ctx, email, password)
	u, _ := args.Get(0).(*user.User)
	return u, args.Error(1)
}

func (m *mockStore) GetUserByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*user.User)
	return u, args.Error(1)
}

// googleTokens is the exchange result the validator mocks key on.
func googleTokens(idToken string) *TokenResponse {
	return &TokenResponse{AccessToken: "at", IDToken: idToken, TokenType: "Bearer", ExpiresIn: 3599}
}
