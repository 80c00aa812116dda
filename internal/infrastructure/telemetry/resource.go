package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"
)

// ServiceVersion is reported on every exported signal
const ServiceVersion = "1.0.0"

const shutdownTimeout = 10 * time.Second

func newResource(serviceName string) (*resource.Resource, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("build resource: %w", err)
	}
	return res, nil
}

// grpcOptions builds the collector dial options. Each OTLP exporter package
// has its own option type, hence the constructor arguments.
func grpcOptions[O any](endpoint string, insecure bool, withEndpoint func(string) O, withInsecure func() O) []O {
	opts := []O{withEndpoint(endpoint)}
	if insecure {
		opts = append(opts, withInsecure())
	}
	return opts
}

// sdkProvider is the lifecycle the trace, metric and log SDK providers share
type sdkProvider interface {
	ForceFlush(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// pipeline is one OTLP export pipeline. The zero value is a disabled
// pipeline whose flush and shutdown do nothing.
type pipeline[P sdkProvider] struct {
	sdk    P
	live   bool
	signal string
	logger *zap.Logger
}

func newPipeline[P sdkProvider](sdk P, signal string, log *zap.Logger) pipeline[P] {
	return pipeline[P]{sdk: sdk, live: true, signal: signal, logger: log}
}

// ForceFlush exports whatever the pipeline still buffers.
func (p *pipeline[P]) ForceFlush(ctx context.Context) error {
	if !p.live {
		return nil
	}
	return p.sdk.ForceFlush(ctx)
}

// Shutdown flushes and closes the exporter, bounded by shutdownTimeout.
func (p *pipeline[P]) Shutdown(ctx context.Context) error {
	if !p.live {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := p.sdk.Shutdown(ctx); err != nil {
		p.logger.Error("OpenTelemetry provider shutdown failed", zap.String("signal", p.signal), zap.Error(err))
		return fmt.Errorf("shutdown %s provider: %w", p.signal, err)
	}
	p.logger.Info("OpenTelemetry provider shut down", zap.String("signal", p.signal))
	return nil
}
