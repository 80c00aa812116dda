package main

import (
	"context"

	"github.com/disciplinario/backend/internal/infrastructure/config"
	"github.com/disciplinario/backend/internal/infrastructure/logger"
	"github.com/disciplinario/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// observability bundles the OpenTelemetry providers and the profiler so they
// can be shut down together
type observability struct {
	tracer   *telemetry.TracerProvider
	meter    *telemetry.MeterProvider
	logs     *telemetry.LoggerProvider
	profiler *telemetry.Profiler
	log      *zap.Logger
}

// newLogger builds the application logger. When OTEL log export is enabled
// the zap core is teed into the OTEL logger provider.
func newLogger(ctx context.Context, cfg *config.Config) (*zap.Logger, *telemetry.LoggerProvider, error) {
	logCfg := &logger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  cfg.Log.Output,
		Service: cfg.Telemetry.ServiceName,
	}
	core, err := logger.NewCore(logCfg)
	if err != nil {
		return nil, nil, err
	}
	base := logger.Wrap(core, logCfg)

	if !cfg.Telemetry.Enabled || !cfg.Telemetry.LogsEnabled {
		return base, nil, nil
	}

	lp, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           true,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, base)
	if err != nil {
		base.Warn("OTEL log export unavailable, logging locally only", zap.Error(err))
		return base, nil, nil
	}

	otelCore := lp.Core(cfg.Telemetry.ServiceName, logger.ParseLevel(cfg.Log.Level))
	return telemetry.NewBridgedLogger(core, otelCore, logger.Options(logCfg)...), lp, nil
}

// setupObservability starts tracing, metrics and continuous profiling
func setupObservability(ctx context.Context, cfg *config.Config, logs *telemetry.LoggerProvider, log *zap.Logger) (*observability, error) {
	o := &observability{logs: logs, log: log}

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return nil, err
	}
	o.tracer = tp

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		o.shutdown(ctx)
		return nil, err
	}
	o.meter = mp

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Profiling.Enabled,
		ServerAddress:     cfg.Profiling.ServerAddress,
		ApplicationName:   cfg.Profiling.ApplicationName,
		BasicAuthUser:     cfg.Profiling.BasicAuthUser,
		BasicAuthPassword: cfg.Profiling.BasicAuthPassword,
	}, log)
	if err != nil {
		log.Warn("Continuous profiling unavailable", zap.Error(err))
	} else {
		o.profiler = profiler
	}

	if cfg.Profiling.Enabled && cfg.Profiling.SpanProfiles && o.profiler != nil {
		if err := tp.EnableSpanProfiles(); err != nil {
			log.Warn("Failed to link spans to profiles", zap.Error(err))
		}
	}

	return o, nil
}

// shutdown flushes every provider. Errors are logged, never returned.
func (o *observability) shutdown(ctx context.Context) {
	if o.profiler != nil {
		if err := o.profiler.Stop(); err != nil {
			o.log.Warn("Profiler stop failed", zap.Error(err))
		}
	}
	if o.meter != nil {
		if err := o.meter.Shutdown(ctx); err != nil {
			o.log.Warn("Meter provider shutdown failed", zap.Error(err))
		}
	}
	if o.tracer != nil {
		if err := o.tracer.Shutdown(ctx); err != nil {
			o.log.Warn("Tracer provider shutdown failed", zap.Error(err))
		}
	}
	if o.logs != nil {
		if err := o.logs.Shutdown(ctx); err != nil {
			o.log.Warn("Logger provider shutdown failed", zap.Error(err))
		}
	}
}
