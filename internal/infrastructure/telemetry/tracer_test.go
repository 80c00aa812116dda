package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap/zaptest"
)

func TestSamplerFor(t *testing.T) {
	tests := []struct {
		ratio float64
		want  string
	}{
		{1, sdktrace.AlwaysSample().Description()},
		{2.5, sdktrace.AlwaysSample().Description()},
		{0, sdktrace.NeverSample().Description()},
		{-1, sdktrace.NeverSample().Description()},
		{0.25, sdktrace.ParentBased(sdktrace.TraceIDRatioBased(0.25)).Description()},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, samplerFor(tt.ratio).Description(), "ratio %v", tt.ratio)
	}
}

func TestTracerProvider_DisabledIsInert(t *testing.T) {
	ctx := context.Background()
	tp, err := NewTracerProvider(ctx, Config{
		CollectorEndpoint: "localhost:14317",
		SamplingRatio:     1,
		ServiceName:       "disciplinario-test",
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, tp.IsEnabled())
	assert.NotNil(t, tp.Tracer("printing"), "falls back to the global provider")

	require.NoError(t, tp.EnableSpanProfiles())
	assert.False(t, tp.IsSpanProfilesEnabled())

	assert.NoError(t, tp.ForceFlush(ctx))
	assert.NoError(t, tp.Shutdown(ctx))

	var none *TracerProvider
	assert.False(t, none.IsEnabled())
}

func TestTracerProvider_Enabled(t *testing.T) {
	if testing.Short() {
		t.Skip("exporter dials a local collector")
	}

	ctx := context.Background()
	tp, err := NewTracerProvider(ctx, Config{
		Enabled:           true,
		CollectorEndpoint: "localhost:14317",
		SamplingRatio:     0.5,
		ServiceName:       "disciplinario-test",
		Insecure:          true,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.True(t, tp.IsEnabled())

	require.NoError(t, tp.EnableSpanProfiles())
	require.NoError(t, tp.EnableSpanProfiles(), "second call is a no-op")
	assert.True(t, tp.IsSpanProfilesEnabled())

	_, span := tp.Tracer("printing").Start(ctx, "capture")
	span.End()

	stopped, cancel := context.WithCancel(ctx)
	cancel()
	_ = tp.Shutdown(stopped)
}
