package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LogsConfig struct {
	Enabled           bool
	CollectorEndpoint string
	ServiceName       string
	Insecure          bool
}

// LoggerProvider ships log records over OTLP. The zero value is a valid
// disabled provider; a nil one still answers IsEnabled and Core.
type LoggerProvider struct {
	pipeline[*sdklog.LoggerProvider]
}

func NewLoggerProvider(ctx context.Context, cfg LogsConfig, logger *zap.Logger) (*LoggerProvider, error) {
	if !cfg.Enabled {
		logger.Info("OTEL log export disabled")
		return &LoggerProvider{}, nil
	}

	exporter, err := otlploggrpc.New(ctx,
		grpcOptions(cfg.CollectorEndpoint, cfg.Insecure, otlploggrpc.WithEndpoint, otlploggrpc.WithInsecure)...)
	if err != nil {
		return nil, fmt.Errorf("create OTLP log exporter: %w", err)
	}
	res, err := newResource(cfg.ServiceName)
	if err != nil {
		return nil, err
	}

	sdk := sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
	)
	global.SetLoggerProvider(sdk)
	logger.Info("OTEL log export started",
		zap.String("collector_endpoint", cfg.CollectorEndpoint),
		zap.String("service_name", cfg.ServiceName))
	return &LoggerProvider{newPipeline(sdk, "logs", logger)}, nil
}

func (lp *LoggerProvider) IsEnabled() bool {
	return lp != nil && lp.live
}

// Core forwards entries at or above floor to the pipeline under the given
// instrumentation scope. Disabled providers hand back a no-op core.
func (lp *LoggerProvider) Core(scope string, floor zapcore.Level) zapcore.Core {
	if !lp.IsEnabled() {
		return zapcore.NewNopCore()
	}
	core := otelzap.NewCore(scope, otelzap.WithLoggerProvider(lp.sdk))
	if leveled, err := zapcore.NewIncreaseLevelCore(core, floor); err == nil {
		return leveled
	}
	return core
}

// NewBridgedLogger tees every entry into both cores.
func NewBridgedLogger(local, exported zapcore.Core, opts ...zap.Option) *zap.Logger {
	return zap.New(zapcore.NewTee(local, exported), opts...)
}
