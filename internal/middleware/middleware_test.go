package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"lecture_companion_backend/internal/common"
	"lecture_companion_backend/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type stubSessions struct {
	id uuid.UUID
	ok bool
}

func (s stubSessions) CurrentUserID(*gin.Context) (uuid.UUID, bool) { return s.id, s.ok }

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(ZapLogger(zap.NewNop(), &config.Config{GinMode: gin.TestMode}))
	r.Use(ErrorHandler(zap.NewNop()))
	return r
}

func TestZapLogger_PropagatesRequestID(t *testing.T) {
	r := newRouter()
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(common.RequestIDKey)) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "abc-123", w.Body.String())
}

func TestErrorHandler(t *testing.T) {
	r := newRouter()
	r.GET("/conflict", func(c *gin.Context) { _ = c.Error(common.ErrConflict) })
	r.GET("/boom", func(c *gin.Context) { _ = c.Error(errors.New("db password leaked")) })

	cases := []struct {
		path       string
		wantStatus int
	}{
		{"/conflict", http.StatusConflict},
		{"/boom", http.StatusInternalServerError},
		{"/missing", http.StatusNotFound},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.path, nil))
		assert.Equal(t, tc.wantStatus, w.Code, tc.path)
		assert.NotContains(t, w.Body.String(), "leaked")
	}
}

func TestRequireSession(t *testing.T) {
	id := uuid.New()

	r := newRouter()
	r.GET("/in", RequireSession(stubSessions{id: id, ok: true}, zap.NewNop()), func(c *gin.Context) {
		c.String(http.StatusOK, common.GetUserIDFromContext(c).String())
	})
	r.GET("/out", RequireSession(stubSessions{}, zap.NewNop()), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/in", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, id.String(), w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/out", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
