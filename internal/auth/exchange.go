package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"lecture_companion_backend/internal/config"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// GoogleExchanger redeems authorization codes at Google's token endpoint.
type GoogleExchanger struct {
	oauth   *oauth2.Config
	client  *http.Client
	timeout time.Duration
	logger  *zap.Logger
}

var _ TokenExchanger = (*GoogleExchanger)(nil)

// NewGoogleExchanger builds an exchanger from the GOOGLE_* settings. The redirect URI
// is sent verbatim and must match the one registered with Google.
func NewGoogleExchanger(cfg *config.Config, logger *zap.Logger) *GoogleExchanger {
	return &GoogleExchanger{
		oauth: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURI,
			Endpoint: oauth2.Endpoint{
				TokenURL:  cfg.GoogleTokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		client:  &http.Client{Timeout: cfg.GoogleHTTPTimeout},
		timeout: cfg.GoogleHTTPTimeout,
		logger:  logger.Named("GoogleExchanger"),
	}
}

// Exchange posts the code as an authorization_code grant. Every failure, including a
// timeout, a malformed body or a response without an id_token, wraps
// ErrCodeExchangeFailed.
func (e *GoogleExchanger) Exchange(ctx context.Context, code string) (*TokenResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, e.client)

	token, err := e.oauth.Exchange(ctx, code)
	if err != nil {
		var rErr *oauth2.RetrieveError
		if errors.As(err, &rErr) {
			status := 0
			if rErr.Response != nil {
				status = rErr.Response.StatusCode
			}
			e.logger.Warn("Token endpoint rejected code",
				zap.Int("status", status),
				zap.String("error_code", rErr.ErrorCode),
			)
		} else {
			e.logger.Warn("Code exchange failed", zap.Error(err))
		}
		return nil, fmt.Errorf("%w: %w", ErrCodeExchangeFailed, err)
	}

	idToken, _ := token.Extra("id_token").(string)
	if idToken == "" {
		e.logger.Warn("Token response carried no id_token")
		return nil, fmt.Errorf("%w: response has no id_token", ErrCodeExchangeFailed)
	}
	scope, _ := token.Extra("scope").(string)
	expiresIn := token.ExpiresIn
	if expiresIn == 0 && !token.Expiry.IsZero() {
		expiresIn = int64(time.Until(token.Expiry).Round(time.Second) / time.Second)
	}

	return &TokenResponse{
		AccessToken:  token.AccessToken,
		ExpiresIn:    expiresIn,
		RefreshToken: token.RefreshToken,
		Scope:        scope,
		IDToken:      idToken,
		TokenType:    token.TokenType,
	}, nil
}
