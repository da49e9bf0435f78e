package types

import (
	"errors"
	"time"
)

// Config holds backend selection and parameters for Backend.Attach.
type Config struct {
	Backend  string         `json:"backend" yaml:"backend" mapstructure:"backend"`
	DataDir  string         `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
	SQLite   SQLiteConfig   `json:"sqlite" yaml:"sqlite,omitempty" mapstructure:"sqlite"`
	Postgres PostgresConfig `json:"postgres" yaml:"postgres,omitempty" mapstructure:"postgres"`
	S3       S3Config       `json:"s3" yaml:"s3,omitempty" mapstructure:"s3"`
}

// Supported backend names.
const (
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendS3       = "s3"
)

// Sync strategies control when the SQLite backend persists documents.jsonl.
const (
	SyncImmediate = "immediate"
	SyncOnClose   = "on_close"
	SyncBatch     = "batch"
)

// Defaults for the batch sync strategy.
const (
	DefaultBatchSize     = 10
	DefaultBatchInterval = 5 * time.Second
)

// SQLiteConfig tunes the SQLite backend.
type SQLiteConfig struct {
	SyncStrategy  string        `json:"sync_strategy" yaml:"sync_strategy,omitempty" mapstructure:"sync_strategy"`
	BatchSize     int           `json:"batch_size" yaml:"batch_size,omitempty" mapstructure:"batch_size"`
	BatchInterval time.Duration `json:"batch_interval" yaml:"batch_interval,omitempty" mapstructure:"batch_interval"`
}

// GetSyncStrategy returns the configured strategy, defaulting to immediate.
func (c SQLiteConfig) GetSyncStrategy() string {
	if c.SyncStrategy == "" {
		return SyncImmediate
	}
	return c.SyncStrategy
}

// GetBatchSize returns the configured batch size or the default.
func (c SQLiteConfig) GetBatchSize() int {
	if c.BatchSize == 0 {
		return DefaultBatchSize
	}
	return c.BatchSize
}

// GetBatchInterval returns the configured batch interval or the default.
func (c SQLiteConfig) GetBatchInterval() time.Duration {
	if c.BatchInterval == 0 {
		return DefaultBatchInterval
	}
	return c.BatchInterval
}

// PostgresConfig holds the connection string for the Postgres backend.
type PostgresConfig struct {
	DSN string `json:"dsn" yaml:"dsn,omitempty" mapstructure:"dsn"`
}

// S3Config locates the bucket the S3 backend stores documents in.
type S3Config struct {
	Bucket    string `json:"bucket" yaml:"bucket,omitempty" mapstructure:"bucket"`
	Region    string `json:"region" yaml:"region,omitempty" mapstructure:"region"`
	Endpoint  string `json:"endpoint" yaml:"endpoint,omitempty" mapstructure:"endpoint"`
	Prefix    string `json:"prefix" yaml:"prefix,omitempty" mapstructure:"prefix"`
	PathStyle bool   `json:"path_style" yaml:"path_style,omitempty" mapstructure:"path_style"`

	// Static credentials; when empty the default AWS credential chain is used.
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id,omitempty" mapstructure:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key,omitempty" mapstructure:"secret_access_key"`
}

// Config validation errors.
var (
	ErrBackendEmpty         = errors.New("backend must not be empty")
	ErrBackendUnknown       = errors.New("unknown backend")
	ErrSyncStrategyUnknown  = errors.New("unknown sync strategy")
	ErrBatchSizeInvalid     = errors.New("batch size must be positive")
	ErrBatchIntervalInvalid = errors.New("batch interval must be positive")
	ErrDSNEmpty             = errors.New("postgres dsn must not be empty")
	ErrBucketEmpty          = errors.New("s3 bucket must not be empty")
)

var knownBackends = map[string]bool{
	BackendSQLite:   true,
	BackendMemory:   true,
	BackendPostgres: true,
	BackendS3:       true,
}

var knownSyncStrategies = map[string]bool{
	SyncImmediate: true,
	SyncOnClose:   true,
	SyncBatch:     true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	switch c.Backend {
	case BackendSQLite:
		return c.SQLite.validate()
	case BackendPostgres:
		if c.Postgres.DSN == "" {
			return ErrDSNEmpty
		}
	case BackendS3:
		if c.S3.Bucket == "" {
			return ErrBucketEmpty
		}
	}
	return nil
}

func (c SQLiteConfig) validate() error {
	if c.SyncStrategy != "" && !knownSyncStrategies[c.SyncStrategy] {
		return ErrSyncStrategyUnknown
	}
	if c.BatchSize < 0 {
		return ErrBatchSizeInvalid
	}
	if c.BatchInterval < 0 {
		return ErrBatchIntervalInvalid
	}
	return nil
}
