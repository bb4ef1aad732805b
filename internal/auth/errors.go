package auth

import (
	"net/http"

	"lecture_companion_backend/internal/common"
)

// Failures of the Google sign-in flow. Provider and validation details are logged,
// never returned to the client.
var (
	ErrCodeExchangeFailed = common.NewAPIError(http.StatusUnauthorized, "CODE_EXCHANGE_FAILED", "Failed to exchange code")
	ErrInvalidToken       = common.NewAPIError(http.StatusUnauthorized, "INVALID_TOKEN", "Invalid Google token")
	// ErrAccountConflict is transient: the client may retry with a fresh code.
	ErrAccountConflict = common.NewAPIError(http.StatusConflict, "ACCOUNT_CONFLICT", "The account is being created by another request. Please retry.")
)
