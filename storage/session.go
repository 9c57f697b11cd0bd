package storage

import (
	"github.com/minio/spark-select/go/common/log"
	"github.com/minio/spark-select/go/common/metrics"
	"github.com/minio/spark-select/go/config"
	"github.com/minio/spark-select/go/io/fs"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Session holds what every read shares: configuration, the logger, read
// metrics and the file systems opened so far.
type Session struct {
	cfg        *config.Config
	logger     *zap.Logger
	registerer prometheus.Registerer
	metrics    *metrics.ReadMetrics
	factory    *fs.Factory
}

type SessionOption func(*Session)

func WithConfig(cfg *config.Config) SessionOption {
	return func(s *Session) {
		s.cfg = cfg
	}
}

// WithRegisterer registers the read metrics with reg. Without it metrics
// are collected but not exported.
func WithRegisterer(reg prometheus.Registerer) SessionOption {
	return func(s *Session) {
		s.registerer = reg
	}
}

func WithFsFactory(f *fs.Factory) SessionOption {
	return func(s *Session) {
		s.factory = f
	}
}

func NewSession(opts ...SessionOption) (*Session, error) {
	s := &Session{}
	for _, opt := range opts {
		opt(s)
	}
	if s.cfg == nil {
		s.cfg = config.Default()
	}
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}
	logger, err := log.InitLogger(&s.cfg.Log)
	if err != nil {
		return nil, err
	}
	s.logger = logger
	s.metrics = metrics.NewReadMetrics(s.registerer)
	if s.factory == nil {
		s.factory = fs.NewFsFactory(s.cfg)
	}
	log.Debug("session created", log.Bool("pushdown", s.cfg.Read.Pushdown), log.Int("batch_size", s.cfg.Read.BatchSize))
	return s, nil
}

// Read starts the description of a dataset to load.
func (s *Session) Read() *DataFrameReader {
	return newDataFrameReader(s)
}

func (s *Session) Config() *config.Config {
	return s.cfg
}

func (s *Session) Logger() *zap.Logger {
	return s.logger
}

func (s *Session) FsFactory() *fs.Factory {
	return s.factory
}

func (s *Session) Close() error {
	// stdout/stderr sinks report ENOTTY/EINVAL on sync
	_ = s.logger.Sync()
	return nil
}
