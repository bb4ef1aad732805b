package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"lecture_companion_backend/internal/config"

	"github.com/coreos/go-oidc/v3/oidc"
	"go.uber.org/zap"
)

// OIDCValidator verifies identity tokens with go-oidc: signature against the key set,
// audience against the client id, expiry, and issuer against an allow-list.
type OIDCValidator struct {
	verifier *oidc.IDTokenVerifier
	issuers  map[string]struct{}
	logger   *zap.Logger
}

var _ TokenValidator = (*OIDCValidator)(nil)

// NewOIDCValidator builds a validator over keySet. go-oidc's own issuer check accepts
// a single value, so it is disabled in favour of the allow-list.
func NewOIDCValidator(keySet oidc.KeySet, clientID string, issuers []string, logger *zap.Logger) *OIDCValidator {
	allowed := make(map[string]struct{}, len(issuers))
	for _, iss := range issuers {
		allowed[iss] = struct{}{}
	}
	return &OIDCValidator{
		verifier: oidc.NewVerifier("", keySet, &oidc.Config{
			ClientID:        clientID,
			SkipIssuerCheck: true,
		}),
		issuers: allowed,
		logger:  logger.Named("TokenValidator"),
	}
}

// NewGoogleValidator validates against Google's published keys. go-oidc caches the
// key set and refetches it when it sees an unknown key id.
func NewGoogleValidator(cfg *config.Config, logger *zap.Logger) *OIDCValidator {
	client := &http.Client{Timeout: cfg.GoogleHTTPTimeout}
	keySet := oidc.NewRemoteKeySet(oidc.ClientContext(context.Background(), client), cfg.GoogleJWKSURL)
	return NewOIDCValidator(keySet, cfg.GoogleClientID, cfg.GoogleIssuers, logger)
}

type idTokenClaims struct {
	Email         string       `json:"email"`
	EmailVerified flexibleBool `json:"email_verified"`
	Name          string       `json:"name"`
}

// Validate returns the verified claims of rawIDToken or ErrInvalidToken.
func (v *OIDCValidator) Validate(ctx context.Context, rawIDToken string) (*TokenPayload, error) {
	token, err := v.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		v.logger.Info("Identity token rejected", zap.Error(err))
		return nil, ErrInvalidToken
	}
	if _, ok := v.issuers[token.Issuer]; !ok {
		v.logger.Info("Identity token from unexpected issuer", zap.String("issuer", token.Issuer))
		return nil, ErrInvalidToken
	}

	var claims idTokenClaims
	if err := token.Claims(&claims); err != nil {
		v.logger.Info("Identity token claims unreadable", zap.Error(err))
		return nil, ErrInvalidToken
	}
	if token.Subject == "" || claims.Email == "" {
		v.logger.Info("Identity token lacks subject or email")
		return nil, ErrInvalidToken
	}
	// The email picks the local account, so it has to be one Google verified.
	if !bool(claims.EmailVerified) {
		v.logger.Info("Identity token email not verified")
		return nil, ErrInvalidToken
	}

	return &TokenPayload{
		Subject:       token.Subject,
		Email:         claims.Email,
		EmailVerified: bool(claims.EmailVerified),
		Name:          claims.Name,
		Expiry:        token.Expiry,
	}, nil
}

// flexibleBool accepts both true and "true"; Google has sent either.
type flexibleBool bool

func (b *flexibleBool) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch val := raw.(type) {
	case bool:
		*b = flexibleBool(val)
	case string:
		parsed, err := strconv.ParseBool(val)
		if err != nil {
			return err
		}
		*b = flexibleBool(parsed)
	case nil:
		*b = false
	default:
		return fmt.Errorf("email_verified: unexpected value %s", data)
	}
	return nil
}
