package middleware

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/disciplinario/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader    = "X-Request-ID"
	maxRequestIDLength = 128
)

// RequestID reuses a sane incoming X-Request-ID or mints one, then exposes it
// on the gin context, the request context and the response
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > maxRequestIDLength {
			id = generateRequestID()
		}
		c.Set(logger.GinRequestIDKey, id)
		c.Header(requestIDHeader, id)

		c.Request = c.Request.WithContext(logger.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// generateRequestID returns 32 hex characters
func generateRequestID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// SecurityConfig selects the hardening headers Secure sends
type SecurityConfig struct {
	HSTSEnabled           bool
	HSTSMaxAge            time.Duration
	HSTSIncludeSubdomains bool
	HSTSPreload           bool

	// ContentSecurityPolicy is omitted when empty
	ContentSecurityPolicy string
	// PermissionsPolicy is omitted when empty
	PermissionsPolicy string
}

// DefaultSecurityConfig leaves HSTS off until the service sits behind TLS.
// Frames are limited to the same origin so the front end can embed the
// preview markup.
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		HSTSMaxAge:            365 * 24 * time.Hour,
		HSTSIncludeSubdomains: true,
		ContentSecurityPolicy: "default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'; " +
			"img-src 'self' data: https:; font-src 'self' data:; connect-src 'self'; " +
			"frame-ancestors 'self'; base-uri 'self'; form-action 'self'",
		PermissionsPolicy: "accelerometer=(), camera=(), geolocation=(), gyroscope=(), magnetometer=(), microphone=(), payment=(), usb=()",
	}
}

// Secure sends the DefaultSecurityConfig headers
func Secure() gin.HandlerFunc {
	return SecureWithConfig(DefaultSecurityConfig())
}

// SecureWithConfig sends the headers selected by cfg on every response
func SecureWithConfig(cfg SecurityConfig) gin.HandlerFunc {
	headers := [][2]string{
		{"X-Frame-Options", "SAMEORIGIN"},
		{"X-XSS-Protection", "1; mode=block"},
		{"X-Content-Type-Options", "nosniff"},
		{"Referrer-Policy", "strict-origin-when-cross-origin"},
	}
	if cfg.ContentSecurityPolicy != "" {
		headers = append(headers, [2]string{"Content-Security-Policy", cfg.ContentSecurityPolicy})
	}
	if cfg.PermissionsPolicy != "" {
		headers = append(headers, [2]string{"Permissions-Policy", cfg.PermissionsPolicy})
	}
	if cfg.HSTSEnabled {
		hsts := fmt.Sprintf("max-age=%d", int64(cfg.HSTSMaxAge.Seconds()))
		if cfg.HSTSIncludeSubdomains {
			hsts += "; includeSubDomains"
		}
		if cfg.HSTSPreload {
			hsts += "; preload"
		}
		headers = append(headers, [2]string{"Strict-Transport-Security", hsts})
	}

	return func(c *gin.Context) {
		for _, h := range headers {
			c.Header(h[0], h[1])
		}
		c.Next()
	}
}

// Timeout puts a deadline on the request context. Handlers that hold the
// connection open, such as export confirmation, give up when it passes.
func Timeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if timeout <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Request-Timeout", timeout.String())
		c.Next()
	}
}
