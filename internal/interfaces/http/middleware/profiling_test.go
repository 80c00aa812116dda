package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"runtime/pprof"
	"testing"

	"github.com/disciplinario/backend/internal/infrastructure/telemetry"
	"github.com/disciplinario/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestProfilingMiddleware_Disabled(t *testing.T) {
	r := gin.New()
	r.Use(middleware.Profiling(false))

	var labeled bool
	r.GET("/test", func(c *gin.Context) {
		_, labeled = pprof.Label(c.Request.Context(), telemetry.ProfilingLabelMethod)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, labeled)
}

func TestProfilingMiddleware_LabelsRoute(t *testing.T) {
	r := gin.New()
	r.Use(middleware.Profiling(true, "/health", "/metrics"))

	var route, method string
	r.POST("/api/v1/exportacion/:id/vista-previa", func(c *gin.Context) {
		route, _ = pprof.Label(c.Request.Context(), telemetry.ProfilingLabelRoute)
		method, _ = pprof.Label(c.Request.Context(), telemetry.ProfilingLabelMethod)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/exportacion/5/vista-previa", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/api/v1/exportacion/:id/vista-previa", route)
	assert.Equal(t, http.MethodPost, method)
}

func TestProfilingMiddleware_SkipPaths(t *testing.T) {
	r := gin.New()
	r.Use(middleware.Profiling(true, "/health", "/metrics"))

	var labeled bool
	r.GET("/health", func(c *gin.Context) {
		_, labeled = pprof.Label(c.Request.Context(), telemetry.ProfilingLabelRoute)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, labeled)
}
