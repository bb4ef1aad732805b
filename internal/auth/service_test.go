package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"lecture_companion_backend/internal/common"
	"lecture_companion_backend/internal/config"
	"lecture_companion_backend/internal/user"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type GoogleSignInSuite struct {
	suite.Suite
	ctx       context.Context
	repo      user.Repository
	store     *user.ServiceImplementation
	exchanger *mockExchanger
	validator *mockValidator
	signedIn  []*user.User
	mu        sync.Mutex
}

func TestGoogleSignInSuite(t *testing.T) {
	suite.Run(t, new(GoogleSignInSuite))
}

func (s *GoogleSignInSuite) SetupTest() {
	s.ctx = context.Background()
	s.repo = user.NewMemoryRepository()
	s.store = user.NewService(s.repo, zap.NewNop())
	s.exchanger = new(mockExchanger)
	s.validator = new(mockValidator)
	s.signedIn = nil
}

func (s *GoogleSignInSuite) service(settings GoogleSettings) *Service {
	guard := NewCodeReplayGuard(&config.Config{CodeReplayTTL: time.Minute})
	return NewService(s.store, s.exchanger, s.validator, guard, settings, zap.NewNop())
}

func (s *GoogleSignInSuite) signIn(u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signedIn = append(s.signedIn, u)
	return nil
}

func (s *GoogleSignInSuite) expectToken(code, idToken string, payload *TokenPayload) {
	s.exchanger.On("Exchange", mock.Anything, code).Return(googleTokens(idToken), nil)
	s.validator.On("Validate", mock.Anything, idToken).Return(payload, nil)
}

func googlePayload(sub, email string) *TokenPayload {
	return &TokenPayload{Subject: sub, Email: email, EmailVerified: true, Name: "New User", Expiry: time.Now().Add(time.Hour)}
}

func (s *GoogleSignInSuite) assertNoAccount(email string) {
	_, err := s.store.FindByEmail(s.ctx, email)
	s.ErrorIs(err, user.ErrNotFound)
}

func (s *GoogleSignInSuite) TestExchangeFailureCreatesNothing() {
	s.exchanger.On("Exchange", mock.Anything, mock.Anything).Return(nil, ErrCodeExchangeFailed)
	svc := s.service(GoogleSettings{})

	for _, code := range []string{"bad-1", "bad-2"} {
		result, err := svc.GoogleSignIn(s.ctx, code, s.signIn)
		s.Nil(result)
		s.ErrorIs(err, ErrCodeExchangeFailed)
	}
	s.validator.AssertNotCalled(s.T(), "Validate", mock.Anything, mock.Anything)
	s.Empty(s.signedIn)
}

func (s *GoogleSignInSuite) TestUnexpectedExchangeErrorIsExchangeFailure() {
	s.exchanger.On("Exchange", mock.Anything, "code").Return(nil, errors.New("dial tcp: timeout"))

	_, err := s.service(GoogleSettings{}).GoogleSignIn(s.ctx, "code", s.signIn)
	s.ErrorIs(err, ErrCodeExchangeFailed)
}

func (s *GoogleSignInSuite) TestInvalidTokenCreatesNothing() {
	s.exchanger.On("Exchange", mock.Anything, "code").Return(googleTokens("forged"), nil)
	s.validator.On("Validate", mock.Anything, "forged").Return(nil, ErrInvalidToken)

	result, err := s.service(GoogleSettings{}).GoogleSignIn(s.ctx, "code", s.signIn)
	s.Nil(result)
	s.Equal(ErrInvalidToken, err)
	s.Empty(s.signedIn)
}

func (s *GoogleSignInSuite) TestNewEmailProvisionsUserAndBinding() {
	s.expectToken("code", "id-token", googlePayload("S1", "new@x.com"))

	result, err := s.service(GoogleSettings{}).GoogleSignIn(s.ctx, "code", s.signIn)
	s.Require().NoError(err)
	s.True(result.Created)

	u, err := s.store.FindByEmail(s.ctx, "new@x.com")
	s.Require().NoError(err)
	s.Equal("new@x.com", u.UserName)
	s.Equal("New User", u.FullName)
	s.False(u.HasPassword())
	s.Require().Len(u.Logins, 1)
	s.Equal(user.ProviderGoogle, u.Logins[0].Provider)
	s.Equal("S1", u.Logins[0].ProviderKey)
	s.Equal(user.ProviderGoogle, u.Logins[0].ProviderDisplayName)

	s.Require().Len(s.signedIn, 1)
	s.Equal(u.ID, s.signedIn[0].ID)
}

func (s *GoogleSignInSuite) TestExistingAccountSignsInWithoutBinding() {
	password := "secret1"
	existing, err := s.store.CreateUser(s.ctx, user.Profile{Email: "ada@x.com"}, &password)
	s.Require().NoError(err)
	s.expectToken("code", "id-token", googlePayload("S2", "ada@x.com"))

	result, err := s.service(GoogleSettings{}).GoogleSignIn(s.ctx, "code", s.signIn)
	s.Require().NoError(err)
	s.False(result.Created)
	s.False(result.Linked)
	s.Equal(existing.ID, result.User.ID)

	stored, err := s.store.GetUserByID(s.ctx, existing.ID)
	s.Require().NoError(err)
	s.Empty(stored.Logins)
	_, err = s.store.FindByLogin(s.ctx, user.ProviderGoogle, "S2")
	s.ErrorIs(err, user.ErrNotFound)
}

func (s *GoogleSignInSuite) TestExistingAccountLinkedWhenEnabled() {
	password := "secret1"
	existing, err := s.store.CreateUser(s.ctx, user.Profile{Email: "ada@x.com"}, &password)
	s.Require().NoError(err)
	s.expectToken("code", "id-token", googlePayload("S2", "ada@x.com"))

	result, err := s.service(GoogleSettings{LinkExistingAccounts: true}).GoogleSignIn(s.ctx, "code", s.signIn)
	s.Require().NoError(err)
	s.True(result.Linked)

	bound, err := s.store.FindByLogin(s.ctx, user.ProviderGoogle, "S2")
	s.Require().NoError(err)
	s.Equal(existing.ID, bound.ID)
}

func (s *GoogleSignInSuite) TestChangedEmailResolvesThroughBinding() {
	s.expectToken("first", "id-1", googlePayload("S1", "old@x.com"))
	s.expectToken("second", "id-2", googlePayload("S1", "renamed@x.com"))
	svc := s.service(GoogleSettings{})

	first, err := svc.GoogleSignIn(s.ctx, "first", s.signIn)
	s.Require().NoError(err)
	second, err := svc.GoogleSignIn(s.ctx, "second", s.signIn)
	s.Require().NoError(err)

	s.False(second.Created)
	s.Equal(first.User.ID, second.User.ID)
	s.assertNoAccount("renamed@x.com")
}

func (s *GoogleSignInSuite) TestReplayedCodeIsRejectedLocally() {
	s.expectToken("code", "id-token", googlePayload("S1", "new@x.com"))
	svc := s.service(GoogleSettings{})

	_, err := svc.GoogleSignIn(s.ctx, "code", s.signIn)
	s.Require().NoError(err)

	_, err = svc.GoogleSignIn(s.ctx, "code", s.signIn)
	s.ErrorIs(err, ErrCodeExchangeFailed)
	s.exchanger.AssertNumberOfCalls(s.T(), "Exchange", 1)
}

func (s *GoogleSignInSuite) TestSignInFailureIsReported() {
	s.expectToken("code", "id-token", googlePayload("S1", "new@x.com"))

	_, err := s.service(GoogleSettings{}).GoogleSignIn(s.ctx, "code", func(*user.User) error {
		return errors.New("cookie store down")
	})
	s.Error(err)
	_, isAPIErr := common.IsAPIError(err)
	s.False(isAPIErr)
}

func (s *GoogleSignInSuite) TestConcurrentSignInsCreateOneUser() {
	const workers = 8
	codes := make([]string, 0, workers)
	for i := 0; i < workers; i++ {
		code := uuid.NewString()
		codes = append(codes, code)
		s.expectToken(code, "id-"+code, googlePayload("S1", "race@x.com"))
	}
	svc := s.service(GoogleSettings{})

	var wg sync.WaitGroup
	results := make([]*GoogleSignInResult, workers)
	errs := make([]error, workers)
	start := make(chan struct{})
	for i, code := range codes {
		wg.Add(1)
		go func(i int, code string) {
			defer wg.Done()
			<-start
			results[i], errs[i] = svc.GoogleSignIn(s.ctx, code, s.signIn)
		}(i, code)
	}
	close(start)
	wg.Wait()

	var created int
	var id uuid.UUID
	for i := range results {
		s.Require().NoError(errs[i])
		if results[i].Created {
			created++
		}
		if id == uuid.Nil {
			id = results[i].User.ID
		}
		s.Equal(id, results[i].User.ID)
	}
	s.Equal(1, created)

	u, err := s.store.FindByEmail(s.ctx, "race@x.com")
	s.Require().NoError(err)
	s.Len(u.Logins, 1)
}

func TestGoogleSignIn_LostRaceSignsInWinner(t *testing.T) {
	store := new(mockStore)
	exchanger := new(mockExchanger)
	validator := new(mockValidator)
	winner := &user.User{BaseModel: common.BaseModel{ID: uuid.New()}, Email: "race@x.com"}

	exchanger.On("Exchange", mock.Anything, "code").Return(googleTokens("id"), nil)
	validator.On("Validate", mock.Anything, "id").Return(googlePayload("S1", "race@x.com"), nil)
	store.On("FindByEmail", mock.Anything, "race@x.com").Return(nil, user.ErrNotFound).Once()
	store.On("FindByLogin", mock.Anything, user.ProviderGoogle, "S1").Return(nil, user.ErrNotFound).Once()
	store.On("CreateExternalUser", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, common.ValidationErrors{{Code: user.CodeDuplicateUserName}, {Code: user.CodeDuplicateEmail}}).Once()
	store.On("FindByEmail", mock.Anything, "race@x.com").Return(winner, nil).Once()

	var signedIn *user.User
	svc := NewService(store, exchanger, validator, nil, GoogleSettings{}, zap.NewNop())
	result, err := svc.GoogleSignIn(context.Background(), "code", func(u *user.User) error {
		signedIn = u
		return nil
	})

	require.NoError(t, err)
	assert.False(t, result.Created)
	assert.Equal(t, winner, signedIn)
	store.AssertExpectations(t)
	store.AssertNotCalled(t, "AddExternalLogin", mock.Anything, mock.Anything, mock.Anything)
}

func TestGoogleSignIn_LostRaceWithoutWinnerIsConflict(t *testing.T) {
	store := new(mockStore)
	exchanger := new(mockExchanger)
	validator := new(mockValidator)

	exchanger.On("Exchange", mock.Anything, "code").Return(googleTokens("id"), nil)
	validator.On("Validate", mock.Anything, "id").Return(googlePayload("S1", "race@x.com"), nil)
	store.On("FindByEmail", mock.Anything, "race@x.com").Return(nil, user.ErrNotFound)
	store.On("FindByLogin", mock.Anything, user.ProviderGoogle, "S1").Return(nil, user.ErrNotFound)
	store.On("CreateExternalUser", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, common.ValidationErrors{{Code: user.CodeDuplicateEmail}})

	svc := NewService(store, exchanger, validator, nil, GoogleSettings{}, zap.NewNop())
	_, err := svc.GoogleSignIn(context.Background(), "code", func(*user.User) error { return nil })
	assert.Equal(t, ErrAccountConflict, err)
}

func TestGoogleSignIn_StoreValidationErrorsSurface(t *testing.T) {
	store := new(mockStore)
	exchanger := new(mockExchanger)
	validator := new(mockValidator)
	verrs := common.ValidationErrors{{Code: user.CodeInvalidEmail}}

	exchanger.On("Exchange", mock.Anything, "code").Return(googleTokens("id"), nil)
	validator.On("Validate", mock.Anything, "id").Return(googlePayload("S1", "odd@x"), nil)
	store.On("FindByEmail", mock.Anything, "odd@x").Return(nil, user.ErrNotFound)
	store.On("FindByLogin", mock.Anything, user.ProviderGoogle, "S1").Return(nil, user.ErrNotFound)
	store.On("CreateExternalUser", mock.Anything, mock.Anything, mock.Anything).Return(nil, verrs)

	svc := NewService(store, exchanger, validator, nil, GoogleSettings{}, zap.NewNop())
	_, err := svc.GoogleSignIn(context.Background(), "code", func(*user.User) error {
		t.Fatal("must not sign in")
		return nil
	})
	got, ok := common.AsValidationErrors(err)
	require.True(t, ok)
	assert.True(t, got.Has(user.CodeInvalidEmail))
}

func TestSignUpAndLogin(t *testing.T) {
	ctx := context.Background()
	store := user.NewService(user.NewMemoryRepository(), zap.NewNop())
	svc := NewService(store, new(mockExchanger), new(mockValidator), nil, GoogleSettings{}, zap.NewNop())

	_, err := svc.SignUp(ctx, SignUpRequest{Email: "ada@x.com", Password: "secret1", FullName: "Ada"})
	require.NoError(t, err)

	_, err = svc.SignUp(ctx, SignUpRequest{Email: "ada@x.com", Password: "secret2"})
	verrs, ok := common.AsValidationErrors(err)
	require.True(t, ok)
	assert.True(t, verrs.Has(user.CodeDuplicateEmail))

	var signedIn int
	signIn := func(*user.User) error { signedIn++; return nil }

	u, err := svc.Login(ctx, LoginRequest{Email: "ada@x.com", Password: "secret1"}, signIn)
	require.NoError(t, err)
	assert.Equal(t, "Ada", u.FullName)
	assert.Equal(t, 1, signedIn)

	_, wrongPassword := svc.Login(ctx, LoginRequest{Email: "ada@x.com", Password: "nope"}, signIn)
	_, unknownEmail := svc.Login(ctx, LoginRequest{Email: "ghost@x.com", Password: "secret1"}, signIn)
	assert.Equal(t, user.ErrInvalidCredentials, wrongPassword)
	assert.Equal(t, wrongPassword, unknownEmail)
	assert.Equal(t, 1, signedIn)
}
