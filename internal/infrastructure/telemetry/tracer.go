// Package telemetry wires OpenTelemetry traces, metrics and logs, Pyroscope
// profiling and the Prometheus export pipeline metrics.
package telemetry

import (
	"context"
	"fmt"
	"sync/atomic"

	otelpyroscope "github.com/grafana/otel-profiling-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Config controls OTLP trace export
type Config struct {
	Enabled           bool
	CollectorEndpoint string
	// SamplingRatio of 1 keeps every trace, 0 none. Values in between
	// respect the parent's decision.
	SamplingRatio float64
	ServiceName   string
	Insecure      bool
}

// TracerProvider batches spans to the collector. While disabled it leaves
// the global no-op provider in place.
type TracerProvider struct {
	pipeline[*sdktrace.TracerProvider]
	serviceName  string
	spanProfiles atomic.Bool
	log          *zap.Logger
}

func NewTracerProvider(ctx context.Context, cfg Config, log *zap.Logger) (*TracerProvider, error) {
	tp := &TracerProvider{serviceName: cfg.ServiceName, log: log}
	if !cfg.Enabled {
		log.Info("OTEL tracing disabled")
		return tp, nil
	}

	res, err := newResource(cfg.ServiceName)
	if err != nil {
		return nil, err
	}
	exporter, err := otlptracegrpc.New(ctx,
		grpcOptions(cfg.CollectorEndpoint, cfg.Insecure, otlptracegrpc.WithEndpoint, otlptracegrpc.WithInsecure)...)
	if err != nil {
		return nil, fmt.Errorf("create OTLP trace exporter: %w", err)
	}

	sdk := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(samplerFor(cfg.SamplingRatio)),
		sdktrace.WithBatcher(exporter),
	)
	tp.pipeline = newPipeline(sdk, "traces", log)

	otel.SetTracerProvider(sdk)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	log.Info("OTEL tracing started",
		zap.String("collector_endpoint", cfg.CollectorEndpoint),
		zap.String("service_name", cfg.ServiceName),
		zap.Float64("sampling_ratio", cfg.SamplingRatio))
	return tp, nil
}

func samplerFor(ratio float64) sdktrace.Sampler {
	switch {
	case ratio >= 1:
		return sdktrace.AlwaysSample()
	case ratio <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))
	}
}

func (tp *TracerProvider) IsEnabled() bool {
	return tp != nil && tp.live
}

// EnableSpanProfiles labels CPU samples with the active span so Pyroscope
// can link a slow capture to its trace. Start the profiler first. Calling it
// twice is harmless.
func (tp *TracerProvider) EnableSpanProfiles() error {
	switch {
	case !tp.IsEnabled():
		tp.log.Debug("Span profiles skipped, tracing disabled")
	case tp.spanProfiles.CompareAndSwap(false, true):
		otel.SetTracerProvider(otelpyroscope.NewTracerProvider(tp.sdk))
		tp.log.Info("Span profiles enabled", zap.String("service_name", tp.serviceName))
	}
	return nil
}

func (tp *TracerProvider) IsSpanProfilesEnabled() bool {
	return tp.spanProfiles.Load()
}

// Tracer falls back to the global provider while tracing is disabled.
func (tp *TracerProvider) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	if tp.IsEnabled() {
		return tp.sdk.Tracer(name, opts...)
	}
	return otel.GetTracerProvider().Tracer(name, opts...)
}
