// Package middleware provides HTTP middleware for the disciplinary request API.
package middleware

import (
	"net/http"

	"github.com/disciplinario/backend/internal/infrastructure/logger"
	"github.com/disciplinario/backend/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig selects whether requests open a server span.
type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

// DefaultTracingConfig enables tracing under the backend service name.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{ServiceName: "disciplinario-backend", Enabled: true}
}

// TracingWithConfig opens one span per request named "METHOD route".
func TracingWithConfig(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return passThrough
	}
	return otelgin.Middleware(cfg.ServiceName)
}

// TracingAttributeInjector tags the active span with the request ID and
// the caller. It must run after authentication and role resolution.
func TracingAttributeInjector() gin.HandlerFunc {
	return func(c *gin.Context) {
		if span := trace.SpanFromContext(c.Request.Context()); span.IsRecording() {
			span.SetAttributes(callerAttributes(c)...)
		}
		c.Next()
	}
}

func callerAttributes(c *gin.Context) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	if id := getRequestID(c); id != "" {
		attrs = append(attrs, attribute.String("request_id", id))
	}
	if email := GetJWTEmail(c); email != "" {
		attrs = append(attrs, attribute.String(telemetry.SpanAttrUserEmail, email))
	}
	if _, ok := c.Get(RoleKey); ok {
		attrs = append(attrs, attribute.String("enduser.role", GetRole(c).String()))
	}
	return attrs
}

// getRequestID prefers the ID stored by RequestID and falls back to the
// truncated header.
func getRequestID(c *gin.Context) string {
	if id := c.GetString(logger.GinRequestIDKey); id != "" {
		return id
	}
	id := c.GetHeader(requestIDHeader)
	if len(id) > maxRequestIDLength {
		id = id[:maxRequestIDLength]
	}
	return id
}

// SpanErrorMarker sets an error status on the span of any 4xx or 5xx
// response. It must run after TracingWithConfig.
func SpanErrorMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		status := c.Writer.Status()
		if status < http.StatusBadRequest {
			return
		}
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}
		span.SetStatus(codes.Error, spanErrorDescription(status))
		span.SetAttributes(attribute.Int("http.status_code", status))
	}
}

func spanErrorDescription(status int) string {
	switch {
	case status >= http.StatusInternalServerError:
		return http.StatusText(http.StatusInternalServerError)
	case status == http.StatusUnauthorized, status == http.StatusForbidden,
		status == http.StatusNotFound, status == http.StatusConflict:
		return http.StatusText(status)
	default:
		return "Client Error"
	}
}
