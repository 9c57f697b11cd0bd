package log

import (
	"flag"

	serrors "github.com/minio/spark-select/go/common/errors"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Option = zap.Option

var (
	WrapCore      = zap.WrapCore
	AddCallerSkip = zap.AddCallerSkip
)

// Config is the logger section of the application config.
type Config struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	Development bool   `yaml:"development"`
}

func DefaultConfig() *Config {
	return &Config{
		Level:  "info",
		Format: "console",
	}
}

func (c *Config) RegisterFlags(prefix string, f *flag.FlagSet) {
	f.StringVar(&c.Level, prefix+"level", "info", "Log level: debug, info, warn or error.")
	f.StringVar(&c.Format, prefix+"format", "console", "Log format: console or json.")
	f.BoolVar(&c.Development, prefix+"development", false, "Development logging with stack traces on warnings.")
}

func (c *Config) Validate(prefix string) error {
	if _, err := zapcore.ParseLevel(c.Level); err != nil {
		return errors.Wrapf(serrors.ErrInvalidConfig, "%slevel: %v", prefix, err)
	}
	switch c.Format {
	case "", "console", "json":
		return nil
	default:
		return errors.Wrapf(serrors.ErrInvalidConfig, "%sformat must be console or json, got %q", prefix, c.Format)
	}
}
