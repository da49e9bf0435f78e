package types

import (
	"errors"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:    "empty backend returns ErrBackendEmpty",
			config:  Config{Backend: "", DataDir: "/tmp/data"},
			wantErr: ErrBackendEmpty,
		},
		{
			name:    "unknown backend returns ErrBackendUnknown",
			config:  Config{Backend: "couchdb", DataDir: "/tmp/data"},
			wantErr: ErrBackendUnknown,
		},
		{
			name:   "valid sqlite config",
			config: Config{Backend: BackendSQLite, DataDir: "/tmp/data"},
		},
		{
			name:   "sqlite with empty DataDir is valid at config level",
			config: Config{Backend: BackendSQLite},
		},
		{
			name:    "unknown sync strategy",
			config:  Config{Backend: BackendSQLite, SQLite: SQLiteConfig{SyncStrategy: "sometimes"}},
			wantErr: ErrSyncStrategyUnknown,
		},
		{
			name:    "negative batch size",
			config:  Config{Backend: BackendSQLite, SQLite: SQLiteConfig{SyncStrategy: SyncBatch, BatchSize: -1}},
			wantErr: ErrBatchSizeInvalid,
		},
		{
			name:    "negative batch interval",
			config:  Config{Backend: BackendSQLite, SQLite: SQLiteConfig{BatchInterval: -time.Second}},
			wantErr: ErrBatchIntervalInvalid,
		},
		{
			name:   "memory needs nothing else",
			config: Config{Backend: BackendMemory},
		},
		{
			name:    "postgres without dsn",
			config:  Config{Backend: BackendPostgres},
			wantErr: ErrDSNEmpty,
		},
		{
			name:   "postgres with dsn",
			config: Config{Backend: BackendPostgres, Postgres: PostgresConfig{DSN: "postgres://localhost/settee"}},
		},
		{
			name:    "s3 without bucket",
			config:  Config{Backend: BackendS3},
			wantErr: ErrBucketEmpty,
		},
		{
			name:   "s3 with bucket",
			config: Config{Backend: BackendS3, S3: S3Config{Bucket: "docs"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("expected nil error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected error %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSQLiteConfigDefaults(t *testing.T) {
	var c SQLiteConfig
	if got := c.GetSyncStrategy(); got != SyncImmediate {
		t.Errorf("GetSyncStrategy() = %q, want %q", got, SyncImmediate)
	}
	if got := c.GetBatchSize(); got != DefaultBatchSize {
		t.Errorf("GetBatchSize() = %d, want %d", got, DefaultBatchSize)
	}
	if got := c.GetBatchInterval(); got != DefaultBatchInterval {
		t.Errorf("GetBatchInterval() = %v, want %v", got, DefaultBatchInterval)
	}
}
