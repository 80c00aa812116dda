package logger

import (
	"errors"
	"net/http"
	"slices"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Gin context keys shared with the HTTP middleware
const (
	GinRequestIDKey = "request_id"
	GinUserEmailKey = "user_email"
	ginLoggerKey    = "logger"
)

// GinMiddleware logs one line per request once it completes, at warn for 4xx
// and error for 5xx. The request scoped logger is stored in both the gin and
// the request context. Paths in skip, such as probes, get the logger but no
// access line.
func GinMiddleware(logger *zap.Logger, skip ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		req := c.Request

		reqLogger := logger.With(
			zap.String("request_id", c.GetString(GinRequestIDKey)),
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
		)
		c.Set(ginLoggerKey, reqLogger)
		c.Request = req.WithContext(WithContext(req.Context(), reqLogger))

		c.Next()

		if slices.Contains(skip, req.URL.Path) {
			return
		}

		status := c.Writer.Status()
		fields := make([]zap.Field, 0, 7)
		fields = append(fields,
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("body_size", c.Writer.Size()),
		)
		if email := c.GetString(GinUserEmailKey); email != "" {
			fields = append(fields, zap.String("user_email", email))
		}
		if q := req.URL.RawQuery; q != "" {
			fields = append(fields, zap.String("query", q))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
		}

		reqLogger.Log(statusLevel(status), "HTTP Request", fields...)
	}
}

func statusLevel(status int) zapcore.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zapcore.ErrorLevel
	case status >= http.StatusBadRequest:
		return zapcore.WarnLevel
	}
	return zapcore.InfoLevel
}

// Recovery turns a handler panic into a logged 500 with the JSON error
// envelope. A panic caused by the client hanging up is logged without a
// stack and nothing is written back.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			requestID := c.GetString(GinRequestIDKey)
			fields := []zap.Field{
				zap.String("request_id", requestID),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Any("error", rec),
			}

			if err, ok := rec.(error); ok && clientGone(err) {
				logger.Warn("Client connection lost", fields...)
				c.Abort()
				return
			}

			logger.Error("Panic recovered", append(fields, zap.Stack("stacktrace"))...)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false,
				"error": gin.H{
					"code":       "ERR_INTERNAL",
					"message":    "An internal error occurred",
					"request_id": requestID,
				},
			})
		}()
		c.Next()
	}
}

func clientGone(err error) bool {
	return errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, http.ErrAbortHandler)
}

// GetGinLogger returns the request logger, or a no-op logger outside
// GinMiddleware
func GetGinLogger(c *gin.Context) *zap.Logger {
	if l, ok := c.Value(ginLoggerKey).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}
