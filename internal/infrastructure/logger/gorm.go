package logger

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const defaultSlowThreshold = 200 * time.Millisecond

// GormLogger sends GORM output to zap: statements at debug, slow ones at
// warn, failures at error. Every line carries the request scope of ctx.
type GormLogger struct {
	log  *zap.Logger
	mode gormlogger.LogLevel
	slow time.Duration
	// Bound values hold national ids and worker names; they are dropped
	// from traced SQL unless WithSQLParams is given.
	params bool
}

type GormLoggerOption func(*GormLogger)

// WithSlowThreshold marks statements slower than d. Zero turns it off.
func WithSlowThreshold(d time.Duration) GormLoggerOption {
	return func(l *GormLogger) { l.slow = d }
}

func WithSQLParams() GormLoggerOption {
	return func(l *GormLogger) { l.params = true }
}

func NewGormLogger(log *zap.Logger, mode gormlogger.LogLevel, opts ...GormLoggerOption) *GormLogger {
	l := &GormLogger{log: log.Named("gorm"), mode: mode, slow: defaultSlowThreshold}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *GormLogger) LogMode(mode gormlogger.LogLevel) gormlogger.Interface {
	cp := *l
	cp.mode = mode
	return &cp
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, gormlogger.Info, msg, data)
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, gormlogger.Warn, msg, data)
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, gormlogger.Error, msg, data)
}

var zapLevelOf = map[gormlogger.LogLevel]zapcore.Level{
	gormlogger.Info:  zapcore.InfoLevel,
	gormlogger.Warn:  zapcore.WarnLevel,
	gormlogger.Error: zapcore.ErrorLevel,
}

func (l *GormLogger) printf(ctx context.Context, at gormlogger.LogLevel, msg string, data []any) {
	if l.mode >= at {
		Enrich(ctx, l.log).Sugar().Logf(zapLevelOf[at], msg, data...)
	}
}

// ParamsFilter runs before GORM renders the SQL passed to Trace.
func (l *GormLogger) ParamsFilter(_ context.Context, sql string, params ...any) (string, []any) {
	if !l.params {
		params = nil
	}
	return sql, params
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.mode <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	needs, lvl, msg := l.verdict(elapsed, err)
	if l.mode < needs {
		return
	}

	sql, rows := fc()
	fields := []zap.Field{zap.String("sql", sql), zap.Int64("rows", rows), zap.Duration("elapsed", elapsed)}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	Enrich(ctx, l.log).Log(lvl, msg, fields...)
}

// verdict returns the GORM level a finished statement needs to be logged at,
// and how to log it. Lookups that find no row are routine and never logged.
func (l *GormLogger) verdict(elapsed time.Duration, err error) (gormlogger.LogLevel, zapcore.Level, string) {
	notFound := errors.Is(err, gormlogger.ErrRecordNotFound)
	switch {
	case err != nil && !notFound:
		return gormlogger.Error, zapcore.ErrorLevel, "SQL Error"
	case l.slow > 0 && elapsed > l.slow:
		return gormlogger.Warn, zapcore.WarnLevel, "Slow SQL"
	case notFound:
		return gormlogger.Info + 1, zapcore.DebugLevel, ""
	default:
		return gormlogger.Info, zapcore.DebugLevel, "SQL Query"
	}
}

// MapGormLogLevel picks the GORM level for an application log level. SQL is
// only traced at debug.
func MapGormLogLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return gormlogger.Info
	case "error":
		return gormlogger.Error
	case "silent":
		return gormlogger.Silent
	}
	return gormlogger.Warn
}

var _ gorm.ParamsFilter = (*GormLogger)(nil)
