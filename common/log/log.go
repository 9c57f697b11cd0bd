package log

import (
	"sync/atomic"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Field = zap.Field

var (
	String   = zap.String
	Strings  = zap.Strings
	Int      = zap.Int
	Int64    = zap.Int64
	Bool     = zap.Bool
	Any      = zap.Any
	Duration = zap.Duration
	Err      = zap.Error
)

var globalLogger atomic.Value

func init() {
	l, _ := newLogger(DefaultConfig())
	globalLogger.Store(l)
}

// InitLogger builds a logger from cfg and installs it as the global logger.
func InitLogger(cfg *Config, opts ...Option) (*zap.Logger, error) {
	l, err := newLogger(cfg, opts...)
	if err != nil {
		return nil, err
	}
	ReplaceGlobals(l)
	return l, nil
}

func newLogger(cfg *Config, opts ...Option) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, errors.Wrapf(err, "parse log level %q", cfg.Level)
	}
	var zc zap.Config
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
		zc.Sampling = nil
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	switch cfg.Format {
	case "", "console":
		zc.Encoding = "console"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	case "json":
		zc.Encoding = "json"
	default:
		return nil, errors.Errorf("unknown log format %q", cfg.Format)
	}
	opts = append([]Option{AddCallerSkip(1)}, opts...)
	return zc.Build(opts...)
}

func ReplaceGlobals(l *zap.Logger) {
	globalLogger.Store(l)
}

// L returns the global logger without the caller skip used by the
// package level helpers.
func L() *zap.Logger {
	return globalLogger.Load().(*zap.Logger).WithOptions(zap.AddCallerSkip(-1))
}

func logger() *zap.Logger {
	return globalLogger.Load().(*zap.Logger)
}

func With(fields ...Field) *zap.Logger {
	return L().With(fields...)
}

func Debug(msg string, fields ...Field) {
	logger().Debug(msg, fields...)
}

func Info(msg string, fields ...Field) {
	logger().Info(msg, fields...)
}

func Warn(msg string, fields ...Field) {
	logger().Warn(msg, fields...)
}

func Error(msg string, fields ...Field) {
	logger().Error(msg, fields...)
}

func Panic(msg string, fields ...Field) {
	logger().Panic(msg, fields...)
}

func Fatal(msg string, fields ...Field) {
	logger().Fatal(msg, fields...)
}

func Sync() error {
	return logger().Sync()
}
