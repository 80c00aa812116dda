package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

// MetricsConfig controls OTLP metric export
type MetricsConfig struct {
	Enabled           bool
	CollectorEndpoint string
	ExportInterval    time.Duration // a minute when unset
	ServiceName       string
	Insecure          bool
}

const defaultExportInterval = time.Minute

// MeterProvider pushes the HTTP instruments to the collector. The export
// pipeline stages are scraped from PipelineMetrics instead.
type MeterProvider struct {
	pipeline[*sdkmetric.MeterProvider]
}

func NewMeterProvider(ctx context.Context, cfg MetricsConfig, log *zap.Logger) (*MeterProvider, error) {
	if !cfg.Enabled {
		log.Info("OTEL metric export disabled")
		return &MeterProvider{}, nil
	}

	res, err := newResource(cfg.ServiceName)
	if err != nil {
		return nil, err
	}
	exporter, err := otlpmetricgrpc.New(ctx,
		grpcOptions(cfg.CollectorEndpoint, cfg.Insecure, otlpmetricgrpc.WithEndpoint, otlpmetricgrpc.WithInsecure)...)
	if err != nil {
		return nil, fmt.Errorf("create OTLP metric exporter: %w", err)
	}

	every := cfg.ExportInterval
	if every <= 0 {
		every = defaultExportInterval
	}
	sdk := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(every))),
	)
	otel.SetMeterProvider(sdk)

	log.Info("OTEL metric export started",
		zap.String("collector_endpoint", cfg.CollectorEndpoint),
		zap.String("service_name", cfg.ServiceName),
		zap.Duration("export_interval", every))
	return &MeterProvider{newPipeline(sdk, "metrics", log)}, nil
}

func (mp *MeterProvider) IsEnabled() bool {
	return mp != nil && mp.live
}

// Meter falls back to the global provider while export is disabled.
func (mp *MeterProvider) Meter(name string, opts ...metric.MeterOption) metric.Meter {
	if mp.IsEnabled() {
		return mp.sdk.Meter(name, opts...)
	}
	return otel.GetMeterProvider().Meter(name, opts...)
}

// Counter is an int64 counter with an Inc shorthand.
type Counter struct {
	metric.Int64Counter
}

func NewCounter(meter metric.Meter, name, description, unit string) (*Counter, error) {
	inner, err := meter.Int64Counter(name, metric.WithDescription(description), metric.WithUnit(unit))
	if err != nil {
		return nil, fmt.Errorf("counter %s: %w", name, err)
	}
	return &Counter{inner}, nil
}

func (c *Counter) Inc(ctx context.Context, attrs ...attribute.KeyValue) {
	c.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// Histogram is a float64 distribution of seconds or bytes.
type Histogram struct {
	metric.Float64Histogram
}

// HistogramOpts describes a histogram; nil Boundaries keep the SDK buckets.
type HistogramOpts struct {
	Name        string
	Description string
	Unit        string
	Boundaries  []float64
}

func NewHistogram(meter metric.Meter, o HistogramOpts) (*Histogram, error) {
	opts := []metric.Float64HistogramOption{metric.WithDescription(o.Description), metric.WithUnit(o.Unit)}
	if o.Boundaries != nil {
		opts = append(opts, metric.WithExplicitBucketBoundaries(o.Boundaries...))
	}
	inner, err := meter.Float64Histogram(o.Name, opts...)
	if err != nil {
		return nil, fmt.Errorf("histogram %s: %w", o.Name, err)
	}
	return &Histogram{inner}, nil
}

func (h *Histogram) Observe(ctx context.Context, v float64, attrs ...attribute.KeyValue) {
	h.Record(ctx, v, metric.WithAttributes(attrs...))
}

// ObserveDuration records d in seconds.
func (h *Histogram) ObserveDuration(ctx context.Context, d time.Duration, attrs ...attribute.KeyValue) {
	h.Observe(ctx, d.Seconds(), attrs...)
}

// Attribute keys on the HTTP instruments.
var (
	AttrHTTPMethod     = attribute.Key("http.method")
	AttrHTTPRoute      = attribute.Key("http.route")
	AttrHTTPStatusCode = attribute.Key("http.status_code")
	AttrUserRole       = attribute.Key("user.role")
	AttrStage          = attribute.Key("export.stage")
)

// HTTPDurationBuckets are request latency bounds in seconds. Export
// confirmations hold the request open for the whole capture.
var HTTPDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}
