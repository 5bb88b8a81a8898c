package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/staffmanager/internal/auth"
	"github.com/mrlokans/staffmanager/internal/config"
	"github.com/mrlokans/staffmanager/internal/entities"
)

const viewerKey = "viewer"

// Viewer describes who is looking at a page. Templates see it as .Auth.
type Viewer struct {
	Enabled   bool
	LoggedIn  bool
	Username  string
	Role      entities.UserRole
	IsAdmin   bool
	CSRFToken string
}

// ViewerMiddleware resolves the Viewer once per request, after the auth
// guard and CSRF middleware have run.
func ViewerMiddleware(mode config.AuthMode) gin.HandlerFunc {
	local := mode == config.AuthModeLocal
	return func(c *gin.Context) {
		v := Viewer{
			Enabled:   local,
			Role:      auth.GetUserRole(c),
			IsAdmin:   auth.IsAdmin(c),
			CSRFToken: auth.GetCSRFToken(c),
		}
		if local && auth.GetUserID(c) != auth.DefaultUserID {
			v.LoggedIn = true
			v.Username = auth.GetUsername(c)
		}
		c.Set(viewerKey, v)
		c.Next()
	}
}

// CurrentViewer returns the zero Viewer outside ViewerMiddleware.
func CurrentViewer(c *gin.Context) Viewer {
	raw, _ := c.Get(viewerKey)
	v, _ := raw.(Viewer)
	return v
}
