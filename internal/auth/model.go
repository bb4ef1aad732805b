// File: internal/auth/model.go
package auth

import (
	"time"

	"lecture_companion_backend/internal/user"
)

// SignUpRequest defines the structure for signup requests.
type SignUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"fullName"`
}

// LoginRequest defines the structure for login requests. It carries no binding
// rules: a blank field is just another wrong credential.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GoogleSignInRequest carries the authorization code obtained by the client.
type GoogleSignInRequest struct {
	Code string `json:"code" binding:"required"`
}

// TokenResponse is the token endpoint's answer to a code exchange. Only IDToken is
// used by the sign-in flow.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int64  `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
	IDToken      string `json:"id_token"`
	TokenType    string `json:"token_type"`
}

// TokenPayload holds the verified claims of an identity token.
type TokenPayload struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Expiry        time.Time
}

// GoogleSignInResult describes how a Google sign-in was resolved.
type GoogleSignInResult struct {
	User *user.User
	// Created is set when the account was provisioned by this sign-in.
	Created bool
	// Linked is set when a binding was added to an existing account.
	Linked bool
}
