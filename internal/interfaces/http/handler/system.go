package handler

import (
	"context"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/disciplinario/backend/internal/infrastructure/logger"
	"github.com/disciplinario/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const healthCheckTimeout = 3 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

type PingerFunc func(ctx context.Context) error

func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// SystemHandler serves liveness, readiness and build information.
type SystemHandler struct {
	BaseHandler
	name    string
	version string
	started time.Time
	checks  map[string]Pinger
}

// NewSystemHandler probes checks on every Health call; the map key is the
// name reported back.
func NewSystemHandler(name, version string, checks map[string]Pinger) *SystemHandler {
	return &SystemHandler{name: name, version: version, started: time.Now(), checks: checks}
}

type SystemInfoResponse struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	h.Success(c, SystemInfoResponse{
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.started).Round(time.Second).String(),
	})
}

type PingResponse struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Ping never touches a dependency.
func (h *SystemHandler) Ping(c *gin.Context) {
	h.Success(c, PingResponse{Message: "pong", Timestamp: time.Now().Format(time.RFC3339)})
}

type HealthResponse struct {
	Status string            `json:"status"`
	Time   string            `json:"time"`
	Checks map[string]string `json:"checks"`
}

// Health probes all checks in parallel, each bounded by healthCheckTimeout,
// and answers 503 if any fails.
func (h *SystemHandler) Health(c *gin.Context) {
	log := logger.GetGinLogger(c)
	results := make(map[string]string, len(h.checks))
	var mu sync.Mutex

	var g errgroup.Group
	for name, check := range h.checks {
		g.Go(func() error {
			ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
			defer cancel()
			state := "ok"
			if err := check.Ping(ctx); err != nil {
				log.Warn("Health check failed", zap.String("check", name), zap.Error(err))
				state = "error"
			}
			mu.Lock()
			results[name] = state
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	resp := HealthResponse{Status: "healthy", Time: time.Now().Format(time.RFC3339), Checks: results}
	status := http.StatusOK
	for _, state := range results {
		if state != "ok" {
			resp.Status, status = "unhealthy", http.StatusServiceUnavailable
			break
		}
	}
	c.JSON(status, dto.NewSuccessResponse(resp))
}
