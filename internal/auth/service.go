package auth

import (
	"context"
	"errors"
	"fmt"

	"lecture_companion_backend/internal/common"
	"lecture_companion_backend/internal/config"
	"lecture_companion_backend/internal/user"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FlowState is a step of the Google sign-in sequence.
type FlowState string

const (
	StateStart      FlowState = "Start"
	StateExchanging FlowState = "Exchanging"
	StateValidating FlowState = "Validating"
	StateResolving  FlowState = "Resolving"
	StateSigningIn  FlowState = "SigningIn"
	StateDone       FlowState = "Done"
	StateFailed     FlowState = "Failed"
)

// GoogleSettings are the sign-in options that change account resolution.
type GoogleSettings struct {
	// LinkExistingAccounts adds a Google binding to an account found by email
	// that does not have one yet.
	LinkExistingAccounts bool
}

// NewGoogleSettings reads GoogleSettings from the application config.
func NewGoogleSettings(cfg *config.Config) GoogleSettings {
	return GoogleSettings{LinkExistingAccounts: cfg.GoogleLinkExistingAccounts}
}

// Service runs signup, password login and Google sign-in against the credential store.
type Service struct {
	store     CredentialStore
	exchanger TokenExchanger
	validator TokenValidator
	guard     *CodeReplayGuard
	settings  GoogleSettings
	logger    *zap.Logger
}

// NewService creates the auth flow service. guard may be nil.
func NewService(
	store CredentialStore,
	exchanger TokenExchanger,
	validator TokenValidator,
	guard *CodeReplayGuard,
	settings GoogleSettings,
	logger *zap.Logger,
) *Service {
	return &Service{
		store:     store,
		exchanger: exchanger,
		validator: validator,
		guard:     guard,
		settings:  settings,
		logger:    logger.Named("AuthService"),
	}
}

// SignUp creates a password account. Rejected input comes back as
// common.ValidationErrors and nothing is stored.
func (s *Service) SignUp(ctx context.Context, req SignUpRequest) (*user.User, error) {
	password := req.Password
	return s.store.CreateUser(ctx, user.Profile{Email: req.Email, FullName: req.FullName}, &password)
}

// Login verifies the credentials and signs the user in. Every credential failure is
// user.ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, req LoginRequest, signIn SignInFunc) (*user.User, error) {
	u, err := s.store.SignInWithPassword(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	if err := signIn(u); err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	return u, nil
}

// CurrentUser returns the account behind a session's user id.
func (s *Service) CurrentUser(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return s.store.GetUserByID(ctx, id)
}

// GoogleSignIn exchanges code, validates the identity token, resolves or provisions
// the local account and signs it in. It runs once; nothing is retried.
func (s *Service) GoogleSignIn(ctx context.Context, code string, signIn SignInFunc) (*GoogleSignInResult, error) {
	f := &signInFlow{state: StateStart, logger: s.logger}

	f.enter(StateExchanging)
	if s.guard != nil && !s.guard.Consume(code) {
		return nil, f.fail(fmt.Errorf("%w: code already submitted", ErrCodeExchangeFailed))
	}
	tokens, err := s.exchanger.Exchange(ctx, code)
	if err != nil {
		if !errors.Is(err, ErrCodeExchangeFailed) {
			err = fmt.Errorf("%w: %w", ErrCodeExchangeFailed, err)
		}
		return nil, f.fail(err)
	}

	f.enter(StateValidating)
	payload, err := s.validator.Validate(ctx, tokens.IDToken)
	if err != nil {
		return nil, f.fail(ErrInvalidToken)
	}

	f.enter(StateResolving)
	result, err := s.resolveAccount(ctx, payload)
	if err != nil {
		return nil, f.fail(err)
	}

	f.enter(StateSigningIn)
	if err := signIn(result.User); err != nil {
		s.logger.Error("Sign-in after Google authentication failed", zap.Error(err), zap.String("userID", result.User.ID.String()))
		return nil, fmt.Errorf("sign in: %w", err)
	}

	f.enter(StateDone)
	s.logger.Info("Google sign-in completed",
		zap.String("userID", result.User.ID.String()),
		zap.Bool("created", result.Created),
		zap.Bool("linked", result.Linked),
	)
	return result, nil
}

func (s *Service) resolveAccount(ctx context.Context, payload *TokenPayload) (*GoogleSignInResult, error) {
	login := user.LoginInfo{
		Provider:            user.ProviderGoogle,
		ProviderKey:         payload.Subject,
		ProviderDisplayName: user.ProviderGoogle,
	}

	existing, err := s.store.FindByEmail(ctx, payload.Email)
	if err == nil {
		return s.signInExisting(ctx, existing, login)
	}
	if !errors.Is(err, user.ErrNotFound) {
		return nil, fmt.Errorf("find user by email: %w", err)
	}

	// The Google account may have changed its email since it was bound.
	bound, err := s.store.FindByLogin(ctx, login.Provider, login.ProviderKey)
	if err == nil {
		return &GoogleSignInResult{User: bound}, nil
	}
	if !errors.Is(err, user.ErrNotFound) {
		return nil, fmt.Errorf("find user by login: %w", err)
	}

	created, err := s.store.CreateExternalUser(ctx, user.Profile{Email: payload.Email, FullName: payload.Name}, login)
	if err == nil {
		return &GoogleSignInResult{User: created, Created: true}, nil
	}

	verrs, ok := common.AsValidationErrors(err)
	if !ok || !verrs.Has(user.CodeDuplicateEmail) {
		return nil, err
	}

	// Another request created the account first. Sign in to the winner.
	s.logger.Info("Concurrent provisioning detected, resolving to existing account")
	winner, lookupErr := s.store.FindByEmail(ctx, payload.Email)
	if lookupErr != nil {
		s.logger.Warn("Account missing after duplicate-email rejection", zap.Error(lookupErr))
		return nil, ErrAccountConflict
	}
	return &GoogleSignInResult{User: winner}, nil
}

func (s *Service) signInExisting(ctx context.Context, u *user.User, login user.LoginInfo) (*GoogleSignInResult, error) {
	result := &GoogleSignInResult{User: u}
	if !s.settings.LinkExistingAccounts || hasLogin(u, login.Provider) {
		return result, nil
	}
	if err := s.store.AddExternalLogin(ctx, u, login); err != nil {
		return nil, err
	}
	result.Linked = true
	return result, nil
}

func hasLogin(u *user.User, provider string) bool {
	for _, l := range u.Logins {
		if l.Provider == provider {
			return true
		}
	}
	return false
}

// signInFlow logs the state transitions of one Google sign-in.
type signInFlow struct {
	state  FlowState
	logger *zap.Logger
}

func (f *signInFlow) enter(next FlowState) {
	f.logger.Debug("Google sign-in transition", zap.String("from", string(f.state)), zap.String("to", string(next)))
	f.state = next
}

func (f *signInFlow) fail(err error) error {
	f.logger.Info("Google sign-in failed",
		zap.String("from", string(f.state)),
		zap.String("to", string(StateFailed)),
		zap.String("reason", failureReason(err)),
	)
	f.state = StateFailed
	return err
}

func failureReason(err error) string {
	if apiErr, ok := common.IsAPIError(err); ok {
		return apiErr.Code
	}
	if _, ok := common.AsValidationErrors(err); ok {
		return "VALIDATION_ERROR"
	}
	return "INTERNAL"
}
