package auth

import (
	"errors"
	"html/template"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/staffmanager/internal/config"
	"github.com/mrlokans/staffmanager/internal/entities"
)

// EventLogger receives the outcome of sign-in, sign-out and setup requests.
type EventLogger interface {
	LogAuth(userID uint, action string, ipAddr, userAgent string, success bool)
}

// Actions passed to EventLogger.
const (
	EventLogin       = "login"
	EventLoginFailed = "login_failed"
	EventLogout      = "logout"
	EventSetupAdmin  = "setup_admin"
)

// isLocalPath accepts absolute paths on this host only.
func isLocalPath(path string) bool {
	return strings.HasPrefix(path, "/") &&
		!strings.HasPrefix(path, "//") &&
		!strings.Contains(path, "://") &&
		!strings.Contains(path, `\`)
}

func safeNext(path string) string {
	if isLocalPath(path) {
		return path
	}
	return "/"
}

// formView feeds templates/auth/login.html and setup.html. Without templates
// it is returned as JSON.
type formView struct {
	Title      string `json:"title"`
	Next       string `json:"next,omitempty"`
	Username   string `json:"username,omitempty"`
	Email      string `json:"email,omitempty"`
	Error      string `json:"error,omitempty"`
	RetryAfter string `json:"retry_after,omitempty"`
	CSRFToken  string `json:"-"`
}

// setupErrors maps account validation failures to form messages.
var setupErrors = []struct {
	err     error
	message string
}{
	{ErrPasswordTooShort, "Password must be at least " + strconv.Itoa(MinPasswordLength) + " characters"},
	{ErrPasswordTooLong, "Password exceeds maximum length of 72 characters"},
	{ErrPasswordRequired, "Password is required"},
	{ErrUsernameRequired, "Username is required"},
	{ErrUsernameInvalid, "Username must be 3-64 characters, alphanumeric with underscore/hyphen only"},
	{ErrEmailRequired, "Email is required"},
	{ErrEmailInvalid, "Invalid email format"},
}

func setupMessage(err error) string {
	for _, e := range setupErrors {
		if errors.Is(err, e.err) {
			return e.message
		}
	}
	return "Failed to create user"
}

// AuthController serves sign-in, sign-out and the first-run setup page that
// creates the initial administrator.
type AuthController struct {
	service   *Service
	sessions  *SessionManager
	templates *template.Template
	throttle  *Throttle
	events    EventLogger

	// setupMu makes the "no users yet" check and the admin insert atomic.
	setupMu sync.Mutex
}

// NewAuthController loads templatesPath/auth/*.html when present and falls
// back to JSON responses otherwise.
func NewAuthController(service *Service, sessions *SessionManager, templatesPath string, cfg config.Auth) (*AuthController, error) {
	tmpl, err := template.ParseGlob(filepath.Join(templatesPath, "auth", "*.html"))
	if err != nil {
		log.Printf("Auth templates not loaded, sign-in pages will answer with JSON: %v", err)
		tmpl = nil
	}

	return &AuthController{
		service:   service,
		sessions:  sessions,
		templates: tmpl,
		throttle: NewThrottle(ThrottleConfig{
			MaxAttempts: cfg.MaxLoginAttempts,
			Window:      cfg.RateLimitWindow,
			Lockout:     cfg.LockoutDuration,
		}),
	}, nil
}

func (ac *AuthController) SetEventLogger(events EventLogger) {
	ac.events = events
}

func (ac *AuthController) RegisterRoutes(router gin.IRoutes) {
	router.GET("/login", ac.LoginPage)
	router.POST("/login", ac.Login)
	router.GET("/logout", ac.Logout)
	router.POST("/logout", ac.Logout)
	router.GET("/setup", ac.SetupPage)
	router.POST("/setup", ac.Setup)
}

func (ac *AuthController) record(c *gin.Context, userID uint, action string, success bool) {
	if ac.events != nil {
		ac.events.LogAuth(userID, action, c.ClientIP(), c.Request.UserAgent(), success)
	}
}

func (ac *AuthController) render(c *gin.Context, status int, name string, view formView) {
	view.CSRFToken = GetCSRFToken(c)
	if ac.templates == nil {
		c.JSON(status, view)
		return
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(status)
	if err := ac.templates.ExecuteTemplate(c.Writer, name, view); err != nil {
		log.Printf("Render %s: %v", name, err)
	}
}

func (ac *AuthController) needsSetup(c *gin.Context) (bool, bool) {
	hasUsers, err := ac.service.HasUsers()
	if err != nil {
		log.Printf("Count users: %v", err)
		ac.render(c, http.StatusInternalServerError, "setup.html", formView{
			Title: "Initial setup",
			Error: "Database error. Please try again.",
		})
		return false, false
	}
	return !hasUsers, true
}

// LoginPage handles GET /login. Until an account exists it sends visitors
// to /setup.
func (ac *AuthController) LoginPage(c *gin.Context) {
	if ac.sessions != nil && ac.sessions.UserID(c.Request) != 0 {
		c.Redirect(http.StatusFound, "/")
		return
	}
	setup, ok := ac.needsSetup(c)
	if !ok {
		return
	}
	if setup {
		c.Redirect(http.StatusFound, "/setup")
		return
	}
	ac.render(c, http.StatusOK, "login.html", formView{
		Title: "Sign in",
		Next:  safeNext(c.Query("next")),
		Error: c.Query("error"),
	})
}

// Login handles POST /login.
func (ac *AuthController) Login(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	view := formView{
		Title:    "Sign in",
		Next:     safeNext(c.PostForm("next")),
		Username: username,
	}
	ip := c.ClientIP()

	if wait := ac.throttle.Wait(ip, username); wait > 0 {
		wait = wait.Round(time.Second)
		c.Header("Retry-After", strconv.Itoa(int(wait.Seconds())))
		view.Error = "Too many sign-in attempts. Please try again later."
		view.RetryAfter = wait.String()
		ac.render(c, http.StatusTooManyRequests, "login.html", view)
		return
	}

	user, err := ac.service.Authenticate(username, c.PostForm("password"))
	if err != nil {
		ac.throttle.Fail(ip, username)
		ac.record(c, DefaultUserID, EventLoginFailed, false)
		view.Error = "Invalid username or password"
		if errors.Is(err, ErrAccountLocked) {
			view.Error = "Account is locked. Please try again later."
		}
		ac.render(c, http.StatusUnauthorized, "login.html", view)
		return
	}
	ac.throttle.Succeed(ip, username)

	if ac.sessions != nil {
		if err := ac.sessions.SignIn(c.Request, user); err != nil {
			log.Printf("Start session for %q: %v", user.Username, err)
			view.Error = "Failed to create session"
			ac.render(c, http.StatusInternalServerError, "login.html", view)
			return
		}
	}

	ac.record(c, user.ID, EventLogin, true)
	c.Redirect(http.StatusFound, view.Next)
}

// Logout ends the session. GET is accepted for plain links.
func (ac *AuthController) Logout(c *gin.Context) {
	if ac.sessions != nil {
		if id := ac.sessions.UserID(c.Request); id != 0 {
			ac.record(c, id, EventLogout, true)
		}
		if err := ac.sessions.SignOut(c.Request); err != nil {
			log.Printf("End session: %v", err)
		}
	}
	c.Redirect(http.StatusFound, "/login")
}

// SetupPage handles GET /setup; it is only reachable while no account exists.
func (ac *AuthController) SetupPage(c *gin.Context) {
	setup, ok := ac.needsSetup(c)
	if !ok {
		return
	}
	if !setup {
		c.Redirect(http.StatusFound, "/login")
		return
	}
	ac.render(c, http.StatusOK, "setup.html", formView{
		Title: "Initial setup",
		Error: c.Query("error"),
	})
}

// Setup handles POST /setup and signs the new administrator in.
func (ac *AuthController) Setup(c *gin.Context) {
	ac.setupMu.Lock()
	defer ac.setupMu.Unlock()

	setup, ok := ac.needsSetup(c)
	if !ok {
		return
	}
	if !setup {
		c.Redirect(http.StatusFound, "/login")
		return
	}

	view := formView{
		Title:    "Initial setup",
		Username: strings.TrimSpace(c.PostForm("username")),
		Email:    strings.TrimSpace(c.PostForm("email")),
	}
	password := c.PostForm("password")
	if password != c.PostForm("confirm_password") {
		view.Error = "Passwords do not match"
		ac.render(c, http.StatusBadRequest, "setup.html", view)
		return
	}

	user, err := ac.service.CreateUser(view.Username, view.Email, password, entities.UserRoleAdmin)
	if errors.Is(err, ErrUserExists) {
		c.Redirect(http.StatusFound, "/login")
		return
	}
	if err != nil {
		view.Error = setupMessage(err)
		ac.render(c, http.StatusBadRequest, "setup.html", view)
		return
	}

	ac.record(c, user.ID, EventSetupAdmin, true)
	if ac.sessions != nil {
		if err := ac.sessions.SignIn(c.Request, user); err != nil {
			log.Printf("Start session for %q: %v", user.Username, err)
		}
	}
	c.Redirect(http.StatusFound, "/")
}

// APITokenController lets a signed-in user manage their personal API token.
type APITokenController struct {
	service *Service
}

func NewAPITokenController(service *Service) *APITokenController {
	return &APITokenController{service: service}
}

// GenerateToken handles POST /api/auth/token. The token is shown once.
func (tc *APITokenController) GenerateToken(c *gin.Context) {
	id := GetUserID(c)
	if id == DefaultUserID {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	token, err := tc.service.GenerateToken(id)
	if err != nil {
		log.Printf("Generate API token for user %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":   token,
		"message": "Store this token securely - it will not be shown again",
	})
}

// RevokeToken handles DELETE /api/auth/token.
func (tc *APITokenController) RevokeToken(c *gin.Context) {
	id := GetUserID(c)
	if id == DefaultUserID {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	if err := tc.service.RevokeToken(id); err != nil {
		log.Printf("Revoke API token for user %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "token revoked"})
}
