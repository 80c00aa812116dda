package middleware

import (
	"context"
	"slices"

	"github.com/disciplinario/backend/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
)

// Profiling labels the CPU and allocation samples taken while serving a
// request with its route pattern and method, so the preview and export
// endpoints can be told apart in Pyroscope. Requests to skipPaths are not
// labelled.
func Profiling(enabled bool, skipPaths ...string) gin.HandlerFunc {
	if !enabled {
		return passThrough
	}
	return func(c *gin.Context) {
		if slices.Contains(skipPaths, c.Request.URL.Path) {
			c.Next()
			return
		}
		labels := map[string]string{
			telemetry.ProfilingLabelMethod: c.Request.Method,
			telemetry.ProfilingLabelRoute:  c.FullPath(),
		}
		telemetry.WithProfilingLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}
