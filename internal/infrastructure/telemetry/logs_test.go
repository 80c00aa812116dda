package telemetry_test

import (
	"context"
	"testing"

	"github.com/disciplinario/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLoggerProvider_Disabled(t *testing.T) {
	ctx := context.Background()
	cfg := telemetry.LogsConfig{ServiceName: "disciplinario-test"}

	lp, err := telemetry.NewLoggerProvider(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, lp.IsEnabled())
	assert.NoError(t, lp.ForceFlush(ctx))
	assert.NoError(t, lp.Shutdown(ctx))
}

func TestLoggerProvider_CoreDisabledIsNop(t *testing.T) {
	var nilProvider *telemetry.LoggerProvider
	assert.False(t, nilProvider.IsEnabled())
	assert.False(t, nilProvider.Core("disciplinario-test", zapcore.DebugLevel).Enabled(zapcore.ErrorLevel))

	lp, err := telemetry.NewLoggerProvider(context.Background(), telemetry.LogsConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, lp.Core("disciplinario-test", zapcore.DebugLevel).Enabled(zapcore.ErrorLevel))
}

func TestNewBridgedLogger_WritesToLocalCore(t *testing.T) {
	local, logs := observer.New(zapcore.InfoLevel)
	var disabled telemetry.LoggerProvider

	l := telemetry.NewBridgedLogger(local, disabled.Core("disciplinario-test", zapcore.InfoLevel))
	l.Info("export confirmed", zap.String("file", "Solicitud_documento.pdf"))
	l.Debug("dropped")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "export confirmed", logs.All()[0].Message)
	assert.Equal(t, "Solicitud_documento.pdf", logs.All()[0].ContextMap()["file"])
}
