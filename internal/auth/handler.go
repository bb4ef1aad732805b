// File: internal/auth/handler.go
package auth

import (
	"errors"

	"lecture_companion_backend/internal/common"
	"lecture_companion_backend/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for auth handlers.
type Handler struct {
	service  *Service
	sessions *SessionManager
	logger   *zap.Logger
}

// NewHandler creates a new auth handler.
func NewHandler(service *Service, sessions *SessionManager, logger *zap.Logger) *Handler {
	return &Handler{
		service:  service,
		sessions: sessions,
		logger:   logger.Named("AuthHandler"),
	}
}

// RegisterRoutes sets up the routes for authentication operations.
// requireSession guards the routes that need a signed-in user.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, requireSession gin.HandlerFunc) {
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/signup", h.signUp)
		authGroup.POST("/login", h.login)
		authGroup.POST("/google-signin", h.googleSignIn)
		authGroup.POST("/logout", h.logout)
		authGroup.GET("/me", requireSession, h.me)
	}
}

func (h *Handler) signUp(c *gin.Context) {
	var req SignUpRequest
	if !h.bind(c, &req) {
		return
	}
	u, err := h.service.SignUp(c.Request.Context(), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "User created", user.ToUserResponse(u))
}

func (h *Handler) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("Unreadable login body", zap.Error(err))
		common.RespondWithError(c, user.ErrInvalidCredentials)
		return
	}
	u, err := h.service.Login(c.Request.Context(), req, h.sessions.SignInFor(c))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Login successful", user.ToUserResponse(u))
}

func (h *Handler) googleSignIn(c *gin.Context) {
	var req GoogleSignInRequest
	if !h.bind(c, &req) {
		return
	}
	result, err := h.service.GoogleSignIn(c.Request.Context(), req.Code, h.sessions.SignInFor(c))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Google login successful", gin.H{
		"user":    user.ToUserResponse(result.User),
		"created": result.Created,
	})
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.sessions.SignOut(c); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Logged out", nil)
}

func (h *Handler) me(c *gin.Context) {
	u, err := h.service.CurrentUser(c.Request.Context(), common.GetUserIDFromContext(c))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			// The account behind a still-valid cookie is gone.
			common.RespondWithError(c, common.ErrUnauthorized)
			return
		}
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Current user", user.ToUserResponse(u))
}

// bind decodes the JSON body into req, answering 400 itself when it cannot.
func (h *Handler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.logger.Debug("Invalid request body", zap.String("path", c.FullPath()), zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return false
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Request body must be valid JSON."))
		return false
	}
	return true
}
