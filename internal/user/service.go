package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"lecture_companion_backend/internal/common"
	"lecture_companion_backend/internal/platform/crypto"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ServiceImplementation is the credential store: account creation, lookup,
// external-login bindings and password verification.
type ServiceImplementation struct {
	repo     Repository
	validate *validator.Validate
	logger   *zap.Logger

	dummyOnce sync.Once
	dummyHash string
}

// NewService creates a new user service.
func NewService(repo Repository, logger *zap.Logger) *ServiceImplementation {
	return &ServiceImplementation{
		repo:     repo,
		validate: validator.New(),
		logger:   logger.Named("UserService"),
	}
}

// NormalizeEmail is the form emails are compared and indexed in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser creates an account for profile. A nil password creates an account that
// can only sign in through an external provider. On failure nothing is written and
// the error is a common.ValidationErrors for anything the caller can fix.
func (s *ServiceImplementation) CreateUser(ctx context.Context, profile Profile, password *string) (*User, error) {
	u, err := s.newUser(ctx, profile, password)
	if err != nil {
		return nil, err
	}
	if err := s.insert(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info("User created", zap.String("userID", u.ID.String()), zap.Bool("hasPassword", u.HasPassword()))
	return u, nil
}

// CreateExternalUser creates a password-less account and its external-login binding
// atomically. Either both rows exist afterwards or neither does.
func (s *ServiceImplementation) CreateExternalUser(ctx context.Context, profile Profile, login LoginInfo) (*User, error) {
	u, err := s.newUser(ctx, profile, nil)
	if err != nil {
		return nil, err
	}
	u.Logins = []ExternalLogin{{
		Provider:            login.Provider,
		ProviderKey:         login.ProviderKey,
		ProviderDisplayName: login.ProviderDisplayName,
	}}
	if err := s.insert(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info("User created with external login",
		zap.String("userID", u.ID.String()),
		zap.String("provider", login.Provider),
	)
	return u, nil
}

// FindByEmail returns the account registered under email, or ErrNotFound.
func (s *ServiceImplementation) FindByEmail(ctx context.Context, email string) (*User, error) {
	u, err := s.repo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Error("Error finding user by email", zap.Error(err))
		}
		return nil, err
	}
	return u, nil
}

// FindByLogin returns the account bound to the provider identity, or ErrNotFound.
func (s *ServiceImplementation) FindByLogin(ctx context.Context, provider, providerKey string) (*User, error) {
	return s.repo.FindByLogin(ctx, provider, providerKey)
}

// AddExternalLogin binds login to u. A binding already held by any account is
// reported as a LoginAlreadyAssociated validation error.
func (s *ServiceImplementation) AddExternalLogin(ctx context.Context, u *User, login LoginInfo) error {
	el := &ExternalLogin{
		UserID:              u.ID,
		Provider:            login.Provider,
		ProviderKey:         login.ProviderKey,
		ProviderDisplayName: login.ProviderDisplayName,
	}
	if err := s.repo.AddLogin(ctx, el); err != nil {
		if errors.Is(err, ErrDuplicateLogin) {
			return loginAlreadyAssociated(login.Provider)
		}
		s.logger.Error("Failed to add external login", zap.Error(err), zap.String("userID", u.ID.String()))
		return fmt.Errorf("add external login: %w", err)
	}
	u.Logins = append(u.Logins, *el)
	s.logger.Info("External login added", zap.String("userID", u.ID.String()), zap.String("provider", login.Provider))
	return nil
}

// SignInWithPassword verifies email and password. Unknown email, an account without a
// password and a wrong password all return ErrInvalidCredentials after the same
// amount of hashing work.
func (s *ServiceImplementation) SignInWithPassword(ctx context.Context, email, password string) (*User, error) {
	u, err := s.repo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Error("Error finding user during password sign-in", zap.Error(err))
			return nil, fmt.Errorf("password sign-in: %w", err)
		}
		s.burnHash(password)
		return nil, ErrInvalidCredentials
	}

	if !u.HasPassword() {
		s.burnHash(password)
		s.logger.Info("Password sign-in attempted on account without password", zap.String("userID", u.ID.String()))
		return nil, ErrInvalidCredentials
	}

	ok, err := crypto.CheckPasswordHash(password, *u.PasswordHash)
	if err != nil {
		s.logger.Error("Stored password hash is unreadable", zap.Error(err), zap.String("userID", u.ID.String()))
		return nil, ErrInvalidCredentials
	}
	if !ok {
		s.logger.Info("Invalid password attempt", zap.String("userID", u.ID.String()))
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// GetUserByID returns the account with id, or ErrNotFound.
func (s *ServiceImplementation) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *ServiceImplementation) newUser(ctx context.Context, profile Profile, password *string) (*User, error) {
	email := strings.TrimSpace(profile.Email)
	normalized := NormalizeEmail(email)

	var verrs common.ValidationErrors
	if err := s.validate.Var(email, "required,email"); err != nil {
		verrs = append(verrs, common.ValidationError{
			Field:       "email",
			Code:        CodeInvalidEmail,
			Description: fmt.Sprintf("Email '%s' is invalid.", email),
		})
	}
	if password != nil && len(*password) < MinPasswordLength {
		verrs = append(verrs, common.ValidationError{
			Field:       "password",
			Code:        CodePasswordTooShort,
			Description: fmt.Sprintf("Passwords must be at least %d characters.", MinPasswordLength),
		})
	}
	if len(verrs) == 0 {
		// The unique index still decides races; this only makes the common case fail early.
		_, err := s.repo.FindByEmail(ctx, normalized)
		switch {
		case err == nil:
			verrs = append(verrs, duplicateEmail(email)...)
		case !errors.Is(err, ErrNotFound):
			return nil, fmt.Errorf("check existing email: %w", err)
		}
	}
	if len(verrs) > 0 {
		return nil, verrs
	}

	u := &User{
		UserName:        email,
		NormalizedEmail: normalized,
		Email:           email,
		FullName:        strings.TrimSpace(profile.FullName),
	}
	if password != nil {
		hash, err := crypto.HashPassword(*password)
		if err != nil {
			s.logger.Error("Failed to hash password", zap.Error(err))
			return nil, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = &hash
	}
	return u, nil
}

func (s *ServiceImplementation) insert(ctx context.Context, u *User) error {
	err := s.repo.Create(ctx, u)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrDuplicateEmail):
		return duplicateEmail(u.Email)
	case errors.Is(err, ErrDuplicateLogin):
		return loginAlreadyAssociated(u.Logins[0].Provider)
	default:
		s.logger.Error("Failed to create user in repository", zap.Error(err))
		return fmt.Errorf("create user: %w", err)
	}
}

// burnHash spends one bcrypt comparison so rejected sign-ins take the same time
// whether or not the account exists.
func (s *ServiceImplementation) burnHash(password string) {
	s.dummyOnce.Do(func() {
		hash, err := crypto.HashPassword("lecture-companion-placeholder")
		if err == nil {
			s.dummyHash = hash
		}
	})
	if s.dummyHash != "" {
		_, _ = crypto.CheckPasswordHash(password, s.dummyHash)
	}
}

func duplicateEmail(email string) common.ValidationErrors {
	return common.ValidationErrors{
		{Field: "email", Code: CodeDuplicateUserName, Description: fmt.Sprintf("Username '%s' is already taken.", email)},
		{Field: "email", Code: CodeDuplicateEmail, Description: fmt.Sprintf("Email '%s' is already taken.", email)},
	}
}

func loginAlreadyAssociated(provider string) common.ValidationErrors {
	return common.ValidationErrors{{
		Code:        CodeLoginAlreadyAssociated,
		Description: fmt.Sprintf("A user with this %s login already exists.", provider),
	}}
}
