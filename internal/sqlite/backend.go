// Package sqlite implements the SQLite document store for settee. SQLite is
// the query engine; documents.jsonl in DataDir is the source of truth and is
// reloaded into a fresh database on every Attach.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/settee/pkg/types"
)

// dbFile is the SQLite database created in DataDir.
const dbFile = "settee.db"

// Backend implements types.Backend using SQLite as the query engine and a
// JSONL file as the source of truth.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	now      func() time.Time

	sync syncState
}

var _ types.Backend = (*Backend)(nil)

// syncState tracks writes applied to SQLite but not yet persisted to
// documents.jsonl. Every persist rewrites the whole file, so a counter and
// the latest write are all a flush needs.
type syncState struct {
	mu       sync.Mutex
	strategy string
	size     int
	interval time.Duration
	pending  int
	lastID   string
	lastOp   string
	timer    *time.Timer
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend() *Backend {
	return &Backend{now: time.Now}
}

// Attach creates DataDir if needed, opens a fresh SQLite database there and
// loads documents.jsonl into it.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}

	// The database is rebuilt from documents.jsonl on every attach.
	dbPath := filepath.Join(dataDir, dbFile)
	_ = os.Remove(dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}
	db.SetMaxOpenConns(1)
	for _, ddl := range schemaDDL {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return fmt.Errorf("creating schema: %w", err)
		}
	}

	if err := initJSONLFile(dataDir); err != nil {
		db.Close()
		return err
	}
	if _, err := loadDocumentsJSONL(db, dataDir); err != nil {
		db.Close()
		return fmt.Errorf("load JSONL: %w", err)
	}

	config.DataDir = dataDir
	b.db = db
	b.config = config
	b.sync.mu.Lock()
	b.sync.strategy = config.SQLite.GetSyncStrategy()
	b.sync.size = config.SQLite.GetBatchSize()
	b.sync.interval = config.SQLite.GetBatchInterval()
	b.sync.pending = 0
	b.sync.mu.Unlock()
	b.attached = true

	if b.sync.strategy == types.SyncBatch && b.sync.interval > 0 {
		b.startBatchTimer()
	}
	return nil
}

// Detach flushes pending JSONL writes and closes the database. After Detach,
// every operation returns ErrStoreDetached. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	b.stopBatchTimer()
	if err := b.flushPendingWritesLocked(); err != nil {
		return fmt.Errorf("flush pending writes: %w", err)
	}

	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}
	b.attached = false
	return nil
}

// persistOrQueue persists documents.jsonl now under the immediate strategy
// and otherwise records a pending write. tx holds the uncommitted write, so
// the file is written from what the transaction sees; a failure leaves the
// transaction to be rolled back. The caller must hold b.mu.
func (b *Backend) persistOrQueue(ctx context.Context, tx *sql.Tx, docID, operation string) error {
	b.sync.mu.Lock()
	defer b.sync.mu.Unlock()

	if b.sync.strategy == types.SyncImmediate || b.sync.strategy == "" {
		return b.persistJSONL(ctx, tx)
	}
	b.sync.pending++
	b.sync.lastID, b.sync.lastOp = docID, operation
	if b.sync.strategy == types.SyncBatch && b.sync.size > 0 && b.sync.pending >= b.sync.size {
		// A failed flush stays pending for the timer or Detach.
		_ = b.flushLocked(ctx, tx)
	}
	return nil
}

// flushPendingWritesLocked persists any pending writes. The caller must
// hold b.mu.
func (b *Backend) flushPendingWritesLocked() error {
	b.sync.mu.Lock()
	defer b.sync.mu.Unlock()
	return b.flushLocked(context.Background(), b.db)
}

// flushLocked requires b.sync.mu.
func (b *Backend) flushLocked(ctx context.Context, q queryer) error {
	if b.sync.pending == 0 {
		return nil
	}
	if err := b.persistJSONL(ctx, q); err != nil {
		return fmt.Errorf("flush %d writes (last %s %s): %w", b.sync.pending, b.sync.lastOp, b.sync.lastID, err)
	}
	b.sync.pending = 0
	return nil
}

func (b *Backend) startBatchTimer() {
	b.sync.mu.Lock()
	defer b.sync.mu.Unlock()
	if b.sync.timer != nil {
		return
	}
	interval := b.sync.interval
	b.sync.timer = time.AfterFunc(interval, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if !b.attached {
			return
		}
		_ = b.flushPendingWritesLocked()

		b.sync.mu.Lock()
		if b.sync.timer != nil {
			b.sync.timer.Reset(interval)
		}
		b.sync.mu.Unlock()
	})
}

func (b *Backend) stopBatchTimer() {
	b.sync.mu.Lock()
	defer b.sync.mu.Unlock()
	if b.sync.timer != nil {
		b.sync.timer.Stop()
		b.sync.timer = nil
	}
}
