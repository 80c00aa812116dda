package middleware

import (
	"context"
	"time"

	"github.com/disciplinario/backend/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// HTTPMetricsConfig selects the meter the HTTP instruments are created on
type HTTPMetricsConfig struct {
	Meter   metric.Meter
	Enabled bool
	// Logger reports instrument setup failures
	Logger *zap.Logger
}

// Size buckets in bytes. Exported documents reach several megabytes and
// attachment uploads up to the upload limit.
var (
	requestSizeBuckets  = []float64{100, 1e3, 1e4, 1e5, 1e6, 5e6, 2e7}
	responseSizeBuckets = []float64{100, 1e3, 1e4, 1e5, 5e5, 1e6, 5e6, 1e7}
)

type httpMetrics struct {
	requests     *telemetry.Counter
	duration     *telemetry.Histogram
	requestSize  *telemetry.Histogram
	responseSize *telemetry.Histogram
	inFlight     metric.Int64UpDownCounter
}

func newHTTPMetrics(meter metric.Meter) (*httpMetrics, error) {
	var (
		m   httpMetrics
		err error
	)
	if m.requests, err = telemetry.NewCounter(meter, "http_server_request_total",
		"HTTP requests by method, route, status and caller role", "{request}"); err != nil {
		return nil, err
	}

	histograms := []struct {
		dst  **telemetry.Histogram
		opts telemetry.HistogramOpts
	}{
		{&m.duration, telemetry.HistogramOpts{Name: "http_server_request_duration_seconds",
			Description: "HTTP request latency", Unit: "s", Boundaries: telemetry.HTTPDurationBuckets}},
		{&m.requestSize, telemetry.HistogramOpts{Name: "http_server_request_size_bytes",
			Description: "HTTP request body size", Unit: "By", Boundaries: requestSizeBuckets}},
		{&m.responseSize, telemetry.HistogramOpts{Name: "http_server_response_size_bytes",
			Description: "HTTP response body size", Unit: "By", Boundaries: responseSizeBuckets}},
	}
	for _, h := range histograms {
		if *h.dst, err = telemetry.NewHistogram(meter, h.opts); err != nil {
			return nil, err
		}
	}

	if m.inFlight, err = meter.Int64UpDownCounter("http_server_active_requests",
		metric.WithDescription("HTTP requests being served"), metric.WithUnit("{request}")); err != nil {
		return nil, err
	}
	return &m, nil
}

// HTTPMetrics counts requests and records latency and body sizes per route
// pattern. It passes requests through untouched when disabled or when the
// instruments cannot be created.
func HTTPMetrics(cfg HTTPMetricsConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.Meter == nil {
		return passThrough
	}
	m, err := newHTTPMetrics(cfg.Meter)
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Error("Failed to create HTTP metrics instruments", zap.Error(err))
		}
		return passThrough
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()

		m.inFlight.Add(ctx, 1)
		c.Next()
		m.inFlight.Add(ctx, -1)

		m.record(ctx, c, time.Since(start))
	}
}

func passThrough(c *gin.Context) {
	c.Next()
}

func (m *httpMetrics) record(ctx context.Context, c *gin.Context, elapsed time.Duration) {
	route := []attribute.KeyValue{
		telemetry.AttrHTTPMethod.String(c.Request.Method),
		telemetry.AttrHTTPRoute.String(getRoutePattern(c)),
	}

	counted := append(route[:len(route):len(route)], telemetry.AttrHTTPStatusCode.Int(c.Writer.Status()))
	// the role is only known once the role middleware ran
	if _, ok := c.Get(RoleKey); ok {
		counted = append(counted, telemetry.AttrUserRole.String(GetRole(c).String()))
	}
	m.requests.Inc(ctx, counted...)

	m.duration.ObserveDuration(ctx, elapsed, route...)
	if n := c.Request.ContentLength; n > 0 {
		m.requestSize.Observe(ctx, float64(n), route...)
	}
	if n := c.Writer.Size(); n > 0 {
		m.responseSize.Observe(ctx, float64(n), route...)
	}
}

// getRoutePattern returns the matched pattern, such as
// "/api/v1/solicitudes/:id", keeping ids out of the attribute set
func getRoutePattern(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unknown"
}
