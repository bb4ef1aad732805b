// File: internal/common/context_keys.go
package common

const (
	// UserIDKey is the gin context key for the signed-in user's ID.
	UserIDKey = "userID"
	// LoggerKey is the gin context key for the request-scoped zap logger.
	LoggerKey = "logger"
	// RequestIDKey is the gin context key for the request id.
	RequestIDKey = "requestID"
)
