// Package auth provides authentication and authorization for the application.
//
// It supports two authentication modes:
//   - "none": No authentication required, all requests act as the default Admin user
//   - "local": Local user database with session cookies for web UI and Bearer tokens for API (default)
//
// # Configuration
//
// Set AUTH_MODE environment variable to select the mode:
//
//	AUTH_MODE=none   # No auth required (development)
//	AUTH_MODE=local  # Default, requires user creation and login
//
// For local mode, additional configuration:
//
//	AUTH_SESSION_SECRET=<hex-32-bytes>     # Auto-generated if empty
//	AUTH_SESSION_LIFETIME=12h              # Session duration
//	AUTH_TOKEN_EXPIRY=720h                 # API token expiry (30 days default)
//	AUTH_BCRYPT_COST=12                    # bcrypt cost factor
//	AUTH_SECURE_COOKIES=true               # HTTPS-only cookies
//	AUTH_ADMIN_PASSWORD=<password>         # Seeds the admin account at startup
//
// # Roles
//
// Users are either Admin or Staff. Management pages and the /api routes
// require Admin; Staff users can sign in and see the landing page only.
// In "none" mode every request acts as the Admin default user.
//
// # Layout
//
// accounts.go holds the user store, credentials.go the hashing helpers,
// session.go the SQLite-backed browser sessions, guard.go the request
// middleware and pages.go the sign-in and first-run setup pages. Failed
// sign-ins are limited twice: per client address in memory (throttle.go)
// and per account on the user row.
//
// Wiring, as done by the entrypoint:
//
//	accounts := auth.NewService(db, cfg.Auth)
//	sessions, _ := auth.NewSessionManager(sqlDB, cfg.Auth)
//	guard := auth.NewMiddleware(accounts, sessions, cfg.Auth)
//	router.Use(auth.CSRFMiddleware(secret, cfg.Auth.SecureCookies, accounts))
//	router.Use(sessions.Handler(), guard.Handler())
//	admin := router.Group("", guard.RequireRole(entities.UserRoleAdmin))
//
// Handlers read the caller with GetUserID, GetUsername and IsAdmin.
package auth
