package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config describes where and how the process logs.
type Config struct {
	Level      string // debug, info, warn, error, fatal
	Format     string // json or console
	Output     string // stdout, stderr or a file path
	TimeFormat string
	Service    string
}

const defaultTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// New builds a logger from cfg.
func New(cfg *Config) (*zap.Logger, error) {
	core, err := NewCore(cfg)
	if err != nil {
		return nil, err
	}
	return Wrap(core, cfg), nil
}

// NewCore builds only the zap core so it can be teed into the OTLP bridge.
func NewCore(cfg *Config) (zapcore.Core, error) {
	sink, err := openSink(cfg.Output)
	if err != nil {
		return nil, err
	}
	return zapcore.NewCore(encoderFor(cfg), sink, ParseLevel(cfg.Level)), nil
}

// Wrap turns core into a logger carrying Options(cfg).
func Wrap(core zapcore.Core, cfg *Config) *zap.Logger {
	return zap.New(core, Options(cfg)...)
}

// Options are the logger options shared by every core the process uses.
func Options(cfg *Config) []zap.Option {
	opts := []zap.Option{zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)}
	if cfg != nil && cfg.Service != "" {
		opts = append(opts, zap.Fields(zap.String("service", cfg.Service)))
	}
	return opts
}

var levels = map[string]zapcore.Level{
	"debug":   zapcore.DebugLevel,
	"info":    zapcore.InfoLevel,
	"warn":    zapcore.WarnLevel,
	"warning": zapcore.WarnLevel,
	"error":   zapcore.ErrorLevel,
	"fatal":   zapcore.FatalLevel,
}

// ParseLevel maps a level name to zapcore.Level. Unknown names log at info.
func ParseLevel(level string) zapcore.Level {
	if l, ok := levels[strings.ToLower(strings.TrimSpace(level))]; ok {
		return l
	}
	return zapcore.InfoLevel
}

func encoderFor(cfg *Config) zapcore.Encoder {
	layout := cfg.TimeFormat
	if layout == "" {
		layout = defaultTimeFormat
	}

	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "time"
	ec.MessageKey = "msg"
	ec.EncodeTime = zapcore.TimeEncoderOfLayout(layout)
	ec.EncodeDuration = zapcore.MillisDurationEncoder

	if strings.EqualFold(cfg.Format, "console") {
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(ec)
	}
	return zapcore.NewJSONEncoder(ec)
}

func openSink(output string) (zapcore.WriteSyncer, error) {
	switch strings.ToLower(output) {
	case "", "stdout":
		return zapcore.Lock(os.Stdout), nil
	case "stderr":
		return zapcore.Lock(os.Stderr), nil
	}
	f, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return zapcore.AddSync(f), nil
}

// Sync flushes buffered entries.
func Sync(logger *zap.Logger) error {
	return logger.Sync()
}
