package auth

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
)

const csrfContextKey = "csrf_token"

// CSRFMiddleware protects every form post. Requests carrying a valid API
// token skip the check since they cannot be forged by a browser; when
// accounts is nil any bearer header is trusted.
//
// It must run before the session middleware: gorilla/csrf replaces the
// request, and the session context has to be layered on top of it.
func CSRFMiddleware(secret []byte, secure bool, accounts *Service) gin.HandlerFunc {
	protect := csrf.Protect(
		secret,
		csrf.Secure(secure),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteStrictMode),
		csrf.Path("/"),
		csrf.ErrorHandler(http.HandlerFunc(rejectForgedRequest)),
	)

	return func(c *gin.Context) {
		if hasValidBearer(c.Request, accounts) {
			c.Next()
			return
		}
		req := c.Request
		if !secure {
			// Without TLS browsers send http:// referers, which the origin
			// check would reject; the token check still applies.
			req = csrf.PlaintextHTTPRequest(req)
		}
		passed := false
		protect(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			passed = true
			c.Set(csrfContextKey, csrf.Token(r))
			c.Request = r
			c.Next()
		})).ServeHTTP(c.Writer, req)
		if !passed {
			// rejectForgedRequest already answered; the route must not run.
			c.Abort()
		}
	}
}

func hasValidBearer(r *http.Request, accounts *Service) bool {
	token, ok := bearerToken(r.Header.Get("Authorization"))
	if !ok {
		return false
	}
	if accounts == nil {
		return true
	}
	_, err := accounts.ValidateToken(token)
	return err == nil
}

// rejectForgedRequest answers API clients with JSON and sends browsers back
// to the form they came from with a message.
func rejectForgedRequest(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"CSRF token invalid or missing"}`))
		return
	}

	// Only the path of the referer is reused so the redirect stays local.
	if ref, err := url.Parse(r.Referer()); err == nil && isLocalPath(ref.Path) {
		q := ref.Query()
		q.Set("error", "Your session expired. Please try again.")
		back := url.URL{Path: ref.Path, RawQuery: q.Encode()}
		http.Redirect(w, r, back.String(), http.StatusSeeOther)
		return
	}

	http.Error(w, "Form expired. Go back, reload the page and try again.", http.StatusForbidden)
}

// GetCSRFToken returns the token for the hidden form field; empty when
// CSRF protection is off.
func GetCSRFToken(c *gin.Context) string {
	token, _ := contextValue[string](c, csrfContextKey)
	return token
}
