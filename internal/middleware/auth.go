// File: internal/middleware/auth.go
package middleware

import (
	"lecture_companion_backend/internal/common"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionReader resolves the signed-in user from the request's session cookie.
type SessionReader interface {
	CurrentUserID(c *gin.Context) (uuid.UUID, bool)
}

// RequireSession rejects requests without a valid sign-in session and stores the
// user id under common.UserIDKey otherwise.
func RequireSession(sessions SessionReader, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := sessions.CurrentUserID(c)
		if !ok {
			logger.Debug("Request without valid session", zap.String("path", c.Request.URL.Path))
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Sign-in is required."))
			return
		}
		c.Set(common.UserIDKey, userID)
		c.Next()
	}
}
