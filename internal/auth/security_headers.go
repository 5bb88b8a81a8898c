package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// Pages load only same-origin scripts and styles. Photos are served from
// /uploads on the same origin.
var (
	contentPolicy = strings.Join([]string{
		"default-src 'self'",
		"script-src 'self'",
		"style-src 'self' 'unsafe-inline'",
		"img-src 'self' data:",
		"font-src 'self'",
		"connect-src 'self'",
		"frame-ancestors 'none'",
	}, "; ")

	permissionsPolicy = strings.Join([]string{
		"accelerometer=()", "camera=()", "geolocation=()", "gyroscope=()",
		"magnetometer=()", "microphone=()", "payment=()", "usb=()",
	}, ", ")

	staticHeaders = [][2]string{
		{"X-Frame-Options", "DENY"},
		{"X-Content-Type-Options", "nosniff"},
		{"Referrer-Policy", "strict-origin-when-cross-origin"},
		{"Permissions-Policy", permissionsPolicy},
	}
)

// SecurityHeadersMiddleware sets the browser hardening headers on every
// response.
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range staticHeaders {
			c.Header(h[0], h[1])
		}

		// 'self' alone is unreliable behind reverse proxies, so the host is
		// named as well.
		formAction := "'self'"
		if host := c.Request.Host; host != "" {
			formAction += " https://" + host
		}
		c.Header("Content-Security-Policy", contentPolicy+"; form-action "+formAction)

		c.Next()
	}
}
