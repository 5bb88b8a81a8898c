package auth

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/staffmanager/internal/config"
	"github.com/mrlokans/staffmanager/internal/entities"
)

// Pages anyone may open. Signed-in users are still recognised on them so
// the layout can show their name.
var (
	openPaths    = []string{"/", "/error", "/health", "/ping", "/login", "/setup", "/favicon.ico"}
	openPrefixes = []string{"/static/", "/uploads/"}
)

// Middleware resolves the caller from a bearer token or a session cookie.
type Middleware struct {
	service  *Service
	sessions *SessionManager
	mode     config.AuthMode
}

// NewMiddleware accepts a nil session manager for API-only setups.
func NewMiddleware(service *Service, sessions *SessionManager, cfg config.Auth) *Middleware {
	return &Middleware{service: service, sessions: sessions, mode: cfg.Mode}
}

func isOpenPath(path string) bool {
	for _, p := range openPaths {
		if path == p {
			return true
		}
	}
	for _, p := range openPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// wantsJSON tells API callers apart from browsers so that failures get a
// JSON body instead of a redirect.
func wantsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/") ||
		strings.Contains(r.Header.Get("Accept"), "application/json") ||
		r.Header.Get("Authorization") != ""
}

// bearerToken extracts the token from an "Authorization: Bearer" header.
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func loginRedirect(path string) string {
	return "/login?next=" + url.QueryEscape(path)
}

// Handler authenticates each request. In "none" mode it behaves like
// ActAsAdmin.
func (m *Middleware) Handler() gin.HandlerFunc {
	if m.mode == config.AuthModeNone {
		return ActAsAdmin()
	}

	return func(c *gin.Context) {
		if isOpenPath(c.Request.URL.Path) {
			if user := m.fromSession(c.Request); user != nil {
				setUser(c, user, AuthTypeSession)
			} else {
				setAnonymous(c)
			}
			c.Next()
			return
		}

		if user := m.fromBearer(c.Request); user != nil {
			setUser(c, user, AuthTypeBearer)
			c.Next()
			return
		}
		if user := m.fromSession(c.Request); user != nil {
			setUser(c, user, AuthTypeSession)
			c.Next()
			return
		}

		if wantsJSON(c.Request) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Redirect(http.StatusFound, loginRedirect(c.Request.URL.Path))
		c.Abort()
	}
}

func (m *Middleware) fromBearer(r *http.Request) *entities.User {
	token, ok := bearerToken(r.Header.Get("Authorization"))
	if !ok {
		return nil
	}
	user, err := m.service.ValidateToken(token)
	if err != nil {
		return nil
	}
	return user
}

func (m *Middleware) fromSession(r *http.Request) *entities.User {
	if m.sessions == nil {
		return nil
	}
	id := m.sessions.UserID(r)
	if id == 0 {
		return nil
	}
	user, err := m.service.GetUserByID(id)
	if err != nil {
		return nil
	}
	return user
}

// RequireRole stops requests whose user holds none of roles. Staff users
// get 403 on the management routes.
func (m *Middleware) RequireRole(roles ...entities.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.mode == config.AuthModeNone {
			c.Next()
			return
		}
		role := GetUserRole(c)
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		if wantsJSON(c.Request) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
			return
		}
		c.AbortWithStatus(http.StatusForbidden)
	}
}
