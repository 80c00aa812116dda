package telemetry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/grafana/pyroscope-go"
	"go.uber.org/zap"
)

// ProfilerConfig points the continuous profiler at a Pyroscope server.
type ProfilerConfig struct {
	Enabled           bool
	ServerAddress     string
	ApplicationName   string
	BasicAuthUser     string
	BasicAuthPassword string
	ProfileTypes      []pyroscope.ProfileType
	DisableGCRuns     bool
}

// DefaultProfileTypes adds allocation profiles to CPU and goroutines since
// page capture and PDF encoding allocate heavily.
var DefaultProfileTypes = []pyroscope.ProfileType{
	pyroscope.ProfileCPU,
	pyroscope.ProfileAllocSpace,
	pyroscope.ProfileInuseSpace,
	pyroscope.ProfileGoroutines,
}

// Profiler owns the Pyroscope session. The zero session is a disabled
// profiler.
type Profiler struct {
	session  *pyroscope.Profiler
	logger   *zap.Logger
	stopOnce sync.Once
	stopErr  error
}

// NewProfiler starts profiling when cfg.Enabled and returns a disabled
// profiler otherwise.
func NewProfiler(cfg ProfilerConfig, logger *zap.Logger) (*Profiler, error) {
	p := &Profiler{logger: logger}
	if !cfg.Enabled {
		logger.Info("Continuous profiling disabled")
		return p, nil
	}

	var missing []error
	if cfg.ServerAddress == "" {
		missing = append(missing, errors.New("profiler server address is required"))
	}
	if cfg.ApplicationName == "" {
		missing = append(missing, errors.New("profiler application name is required"))
	}
	if err := errors.Join(missing...); err != nil {
		return nil, err
	}

	types := cfg.ProfileTypes
	if len(types) == 0 {
		types = DefaultProfileTypes
	}
	pc := pyroscope.Config{
		ApplicationName: cfg.ApplicationName,
		ServerAddress:   cfg.ServerAddress,
		Logger:          logger.Named("pyroscope").Sugar(),
		Tags:            hostTags(),
		ProfileTypes:    types,
		DisableGCRuns:   cfg.DisableGCRuns,
	}
	if cfg.BasicAuthUser != "" && cfg.BasicAuthPassword != "" {
		pc.BasicAuthUser, pc.BasicAuthPassword = cfg.BasicAuthUser, cfg.BasicAuthPassword
	}

	session, err := pyroscope.Start(pc)
	if err != nil {
		return nil, fmt.Errorf("start pyroscope profiler: %w", err)
	}
	p.session = session
	logger.Info("Pyroscope profiler started",
		zap.String("server_address", cfg.ServerAddress),
		zap.String("application_name", cfg.ApplicationName),
		zap.Int("profile_types", len(types)),
	)
	return p, nil
}

func hostTags() map[string]string {
	tags := map[string]string{}
	if host := os.Getenv("HOSTNAME"); host != "" {
		tags["hostname"] = host
	}
	return tags
}

// Stop flushes the last profiles. Later calls return the first result.
func (p *Profiler) Stop() error {
	p.stopOnce.Do(func() {
		if p.session == nil {
			return
		}
		if err := p.session.Stop(); err != nil {
			p.logger.Error("Error stopping profiler", zap.Error(err))
			p.stopErr = fmt.Errorf("stop pyroscope profiler: %w", err)
			return
		}
		p.logger.Info("Pyroscope profiler stopped")
	})
	return p.stopErr
}

func (p *Profiler) IsEnabled() bool { return p != nil && p.session != nil }

// pprof label keys attached to samples
const (
	ProfilingLabelRoute  = "http_route"
	ProfilingLabelMethod = "http_method"
	ProfilingLabelStage  = "export_stage"
)

// WithProfilingLabels runs fn with the non-empty labels attached to its
// profiling samples.
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	var kv []string
	for k, v := range labels {
		if v != "" {
			kv = append(kv, k, v)
		}
	}
	if kv == nil {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(kv...), fn)
}
