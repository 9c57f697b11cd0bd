// Package config holds the settings shared by the library and the
// spark-select command: object store credentials, read behaviour, the retry
// policy and logging.
package config

import (
	"flag"
	"os"
	"time"

	"github.com/grafana/dskit/backoff"
	"github.com/minio/spark-select/go/common/constant"
	serrors "github.com/minio/spark-select/go/common/errors"
	"github.com/minio/spark-select/go/common/log"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Config struct {
	S3    S3Config    `yaml:"s3"`
	Read  ReadConfig  `yaml:"read"`
	Retry RetryConfig `yaml:"retry"`
	Log   log.Config  `yaml:"log"`
}

func Default() *Config {
	cfg := &Config{}
	fs := flag.NewFlagSet("", flag.ContinueOnError)
	cfg.RegisterFlags(fs)
	return cfg
}

func (c *Config) RegisterFlags(f *flag.FlagSet) {
	c.S3.RegisterFlags("s3.", f)
	c.Read.RegisterFlags("read.", f)
	c.Retry.RegisterFlags("retry.", f)
	c.Log.RegisterFlags("log.", f)
}

func (c *Config) Validate() error {
	if err := c.S3.Validate("s3."); err != nil {
		return err
	}
	if err := c.Read.Validate("read."); err != nil {
		return err
	}
	if err := c.Retry.Validate("retry."); err != nil {
		return err
	}
	return c.Log.Validate("log.")
}

// LoadFile overlays the YAML document at path onto c.
func (c *Config) LoadFile(path string) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read config file %s", path)
	}
	if err := yaml.Unmarshal(buf, c); err != nil {
		return errors.Wrapf(serrors.ErrInvalidConfig, "parse %s: %v", path, err)
	}
	return nil
}

type S3Config struct {
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	SessionToken    string `yaml:"session_token"`
	Insecure        bool   `yaml:"insecure"`
	PathStyle       bool   `yaml:"path_style"`
}

func (c *S3Config) RegisterFlags(prefix string, f *flag.FlagSet) {
	f.StringVar(&c.Endpoint, prefix+"endpoint", os.Getenv("MINIO_ENDPOINT"), "The object store endpoint (host:port). Defaults to $MINIO_ENDPOINT.")
	f.StringVar(&c.Region, prefix+"region", "", "The region of the bucket.")
	f.StringVar(&c.AccessKeyID, prefix+"access-key-id", os.Getenv("MINIO_ACCESS_KEY"), "The access key ID used in AWS Signature Version 4 authentication.")
	f.StringVar(&c.SecretAccessKey, prefix+"secret-access-key", os.Getenv("MINIO_SECRET_KEY"), "The secret access key used in AWS Signature Version 4 authentication.")
	f.StringVar(&c.SessionToken, prefix+"session-token", "", "The session token for temporary credentials.")
	f.BoolVar(&c.Insecure, prefix+"insecure", false, "If true, use HTTP instead of HTTPS.")
	f.BoolVar(&c.PathStyle, prefix+"path-style", true, "If true, address buckets as endpoint/bucket instead of bucket.endpoint.")
}

// Validate only checks that credentials come in pairs, the endpoint is
// checked when an object store location is opened.
func (c *S3Config) Validate(prefix string) error {
	if (c.AccessKeyID == "") != (c.SecretAccessKey == "") {
		return errors.Wrap(serrors.ErrInvalidConfig, prefix+"access-key-id and "+prefix+"secret-access-key must be set together")
	}
	return nil
}

type ReadConfig struct {
	Pushdown        bool `yaml:"pushdown"`
	BatchSize       int  `yaml:"batch_size"`
	OpenConcurrency int  `yaml:"open_concurrency"`
}

func (c *ReadConfig) RegisterFlags(prefix string, f *flag.FlagSet) {
	f.BoolVar(&c.Pushdown, prefix+"pushdown", true, "Push filters down to the object store Select API when the store supports it.")
	f.IntVar(&c.BatchSize, prefix+"batch-size", constant.ReadBatchSize, "Number of rows per record batch.")
	f.IntVar(&c.OpenConcurrency, prefix+"open-concurrency", constant.DefaultOpenConcurrency, "Number of objects whose footers are fetched concurrently when opening a prefix.")
}

func (c *ReadConfig) Validate(prefix string) error {
	if c.BatchSize <= 0 {
		return errors.Wrap(serrors.ErrInvalidConfig, prefix+"batch-size must be positive")
	}
	if c.OpenConcurrency <= 0 {
		return errors.Wrap(serrors.ErrInvalidConfig, prefix+"open-concurrency must be positive")
	}
	return nil
}

// RetryConfig is the retry policy for starting object store requests. No
// request is retried unless MaxRetries is positive.
type RetryConfig struct {
	MaxRetries int           `yaml:"max_retries"`
	MinBackoff time.Duration `yaml:"min_backoff"`
	MaxBackoff time.Duration `yaml:"max_backoff"`
}

func (c *RetryConfig) RegisterFlags(prefix string, f *flag.FlagSet) {
	f.IntVar(&c.MaxRetries, prefix+"max-retries", 0, "Maximum number of retries of a failed object store request, 0 disables retries.")
	f.DurationVar(&c.MinBackoff, prefix+"min-backoff", 100*time.Millisecond, "Minimum delay between retries.")
	f.DurationVar(&c.MaxBackoff, prefix+"max-backoff", 2*time.Second, "Maximum delay between retries.")
}

func (c *RetryConfig) Validate(prefix string) error {
	if c.MaxRetries < 0 {
		return errors.Wrap(serrors.ErrInvalidConfig, prefix+"max-retries cannot be negative")
	}
	if c.MaxRetries > 0 && (c.MinBackoff <= 0 || c.MaxBackoff < c.MinBackoff) {
		return errors.Wrap(serrors.ErrInvalidConfig, prefix+"backoff bounds are invalid")
	}
	return nil
}

func (c RetryConfig) Enabled() bool {
	return c.MaxRetries > 0
}

func (c RetryConfig) Backoff() backoff.Config {
	return backoff.Config{
		MinBackoff: c.MinBackoff,
		MaxBackoff: c.MaxBackoff,
		MaxRetries: c.MaxRetries,
	}
}
