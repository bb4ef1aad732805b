// File: internal/middleware/error.go
package middleware

import (
	"net/http"

	"lecture_companion_backend/internal/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorHandler renders errors attached with c.Error and gives unmatched routes the
// JSON error envelope.
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			if c.Writer.Written() {
				return
			}
			err := c.Errors.Last().Err
			if _, ok := common.IsAPIError(err); !ok {
				if _, isValidation := common.AsValidationErrors(err); !isValidation {
					logger.Error("Unhandled application error",
						zap.Error(err),
						zap.String("path", c.Request.URL.Path),
						zap.String("request_id", c.GetString(common.RequestIDKey)),
					)
				}
			}
			common.RespondWithError(c, err)
			return
		}

		if c.Writer.Written() {
			return
		}
		switch c.Writer.Status() {
		case http.StatusNotFound:
			common.RespondWithError(c, common.ErrNotFound.WithDetails("The requested endpoint does not exist."))
		case http.StatusMethodNotAllowed:
			common.RespondWithError(c, common.NewAPIError(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "The method is not allowed for the requested URL."))
		}
	}
}
