package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/disciplinario/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IdempotencyKeyHeader carries the client-chosen key of a submission
const IdempotencyKeyHeader = "Idempotency-Key"

const maxIdempotencyKeyLength = 128

// IdempotencyStore holds claimed idempotency keys
type IdempotencyStore interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// Idempotency rejects a repeated request carrying an Idempotency-Key that is
// already claimed on the same route. Requests without the header pass
// through. A key whose request fails is released so the client can retry.
// Store errors are logged and the request proceeds.
func Idempotency(store IdempotencyStore, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLength {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":       "ERR_BAD_REQUEST",
					"message":    "Idempotency-Key is too long",
					"request_id": c.GetString(logger.GinRequestIDKey),
				},
			})
			return
		}

		scoped := c.Request.Method + " " + c.FullPath() + " " + key
		claimed, err := store.Claim(c.Request.Context(), scoped, ttl)
		if err != nil {
			logger.GetGinLogger(c).Warn("Idempotency store unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !claimed {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"success": false,
				"error": gin.H{
					"code":       "ERR_DUPLICATE_REQUEST",
					"message":    "This request was already submitted",
					"request_id": c.GetString(logger.GinRequestIDKey),
				},
			})
			return
		}

		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest {
			if err := store.Release(context.WithoutCancel(c.Request.Context()), scoped); err != nil {
				logger.GetGinLogger(c).Warn("Failed to release idempotency key", zap.Error(err))
			}
		}
	}
}
