package auth

import (
	"fmt"
	"net/http"
	"time"

	"lecture_companion_backend/internal/config"
	"lecture_companion_backend/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	sessionUserIDKey = "uid"
	// sessionSignatureTTL bounds how long a signed cookie is accepted, even while the
	// browser keeps it.
	sessionSignatureTTL = 12 * time.Hour
)

// SessionManager carries the signed-in user in a signed, non-persistent cookie.
type SessionManager struct {
	store  *sessions.CookieStore
	name   string
	logger *zap.Logger
}

// NewSessionManager signs cookies with SESSION_SECRET.
func NewSessionManager(cfg *config.Config, logger *zap.Logger) *SessionManager {
	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.MaxAge(int(sessionSignatureTTL.Seconds()))
	// MaxAge 0 leaves Expires and Max-Age off the cookie, so it ends with the browser session.
	store.Options = &sessions.Options{
		Path:     "/",
		Domain:   cfg.SessionCookieDomain,
		MaxAge:   0,
		Secure:   cfg.SessionCookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionManager{
		store:  store,
		name:   cfg.SessionCookieName,
		logger: logger.Named("SessionManager"),
	}
}

// SignIn makes u the authenticated principal for this browser session.
func (m *SessionManager) SignIn(c *gin.Context, u *user.User) error {
	// A cookie that fails to decode yields a fresh session, which is what sign-in wants.
	session, _ := m.store.Get(c.Request, m.name)
	session.Values[sessionUserIDKey] = u.ID.String()
	if err := session.Save(c.Request, c.Writer); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// SignInFor adapts SignIn to the flows' SignInFunc.
func (m *SessionManager) SignInFor(c *gin.Context) SignInFunc {
	return func(u *user.User) error { return m.SignIn(c, u) }
}

// SignOut expires the session cookie.
func (m *SessionManager) SignOut(c *gin.Context) error {
	session, _ := m.store.Get(c.Request, m.name)
	opts := *m.store.Options
	opts.MaxAge = -1
	session.Options = &opts
	delete(session.Values, sessionUserIDKey)
	if err := session.Save(c.Request, c.Writer); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// CurrentUserID returns the user id stored in a valid session cookie.
func (m *SessionManager) CurrentUserID(c *gin.Context) (uuid.UUID, bool) {
	session, err := m.store.Get(c.Request, m.name)
	if err != nil {
		m.logger.Debug("Session cookie rejected", zap.Error(err))
		return uuid.Nil, false
	}
	raw, ok := session.Values[sessionUserIDKey].(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
