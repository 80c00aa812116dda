package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultSlowQuery = 200 * time.Millisecond
	defaultDBSystem  = "postgresql"
)

// DBTracingConfig controls the gorm span plugin.
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool // keep bound variables on spans; development only
	SlowQueryThresh time.Duration
	DBSystem        string // postgresql or sqlite
}

func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{SlowQueryThresh: defaultSlowQuery, DBSystem: defaultDBSystem}
}

// DBTracingPlugin wraps otelgorm and adds table, row count, failure and
// slow query annotations to each statement span.
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = defaultSlowQuery
	}
	if cfg.DBSystem == "" {
		cfg.DBSystem = defaultDBSystem
	}
	return &DBTracingPlugin{config: cfg, logger: logger}
}

type queryStartKey struct{}

var queryStartTimeKey queryStartKey

type registerFunc func(name string, fn func(*gorm.DB)) error

// RegisterOtelGorm installs otelgorm plus the timing callbacks on db.
// Disabled configs leave db untouched.
func (p *DBTracingPlugin) RegisterOtelGorm(db *gorm.DB) error {
	if !p.config.Enabled {
		p.logger.Debug("Database tracing disabled")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(p.config.DBSystem)}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	hook := func(op string, before, after registerFunc) error {
		return errors.Join(
			before("otel_timing:before_"+op, markQueryStart),
			after("otel_slow_query:"+op, p.afterQuery),
		)
	}
	cb := db.Callback()
	if err := errors.Join(
		hook("create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register),
		hook("query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register),
		hook("update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register),
		hook("delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register),
		hook("row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register),
		hook("raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register),
	); err != nil {
		return err
	}

	p.logger.Info("Database tracing enabled",
		zap.String("db_system", p.config.DBSystem),
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
	)
	return nil
}

func markQueryStart(db *gorm.DB) {
	if ctx := db.Statement.Context; ctx != nil {
		db.Statement.Context = context.WithValue(ctx, queryStartTimeKey, time.Now())
	}
}

func (p *DBTracingPlugin) afterQuery(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	stmt := db.Statement
	attrs := make([]attribute.KeyValue, 0, 4)
	if stmt.RowsAffected >= 0 {
		attrs = append(attrs, attribute.Int64("db.rows_affected", stmt.RowsAffected))
	}
	if stmt.Table != "" {
		attrs = append(attrs, attribute.String("db.sql.table", stmt.Table))
	}

	if err := db.Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	}

	if started, ok := ctx.Value(queryStartTimeKey).(time.Time); ok {
		elapsed := time.Since(started)
		if elapsed > p.config.SlowQueryThresh {
			attrs = append(attrs,
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
			)
			span.AddEvent("slow_query_warning", trace.WithAttributes(
				attribute.Int64("duration_ms", elapsed.Milliseconds()),
				attribute.Int64("threshold_ms", p.config.SlowQueryThresh.Milliseconds()),
			))
		}
	}
	span.SetAttributes(attrs...)
}
