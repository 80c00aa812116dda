package middleware

import (
	"net/http"

	"github.com/disciplinario/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
)

// BodyLimit returns a middleware that limits request body size
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return BodyLimitWithOverrides(maxBytes, nil)
}

// BodyLimitWithOverrides limits request bodies to maxBytes, except for the
// routes in overrides (keyed by gin route pattern) which get their own limit.
// Attachment uploads use this to accept larger multipart bodies.
func BodyLimitWithOverrides(maxBytes int64, overrides map[string]int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := maxBytes
		if l, ok := overrides[c.FullPath()]; ok {
			limit = l
		}
		if limit <= 0 {
			c.Next()
			return
		}

		if c.Request.ContentLength > limit {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"success": false,
				"error": gin.H{
					"code":       "ERR_REQUEST_TOO_LARGE",
					"message":    "Request body exceeds maximum allowed size",
					"request_id": c.GetString(logger.GinRequestIDKey),
				},
			})
			return
		}

		// Wrap the body with a limited reader for streaming requests
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
