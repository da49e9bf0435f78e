// Package postgres implements the settee document store on PostgreSQL.
// Documents live in one table with a JSONB attributes column; revisions are
// checked in the UPDATE predicate so concurrent writers conflict instead of
// overwriting each other.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"github.com/mesh-intelligence/settee/pkg/types"
)

const defaultDriver = "pgx"

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

var _ types.Backend = (*Store)(nil)

var ddl = []string{
	`CREATE TABLE IF NOT EXISTS settee_documents (
		seq BIGSERIAL PRIMARY KEY,
		doc_id TEXT NOT NULL UNIQUE,
		rev TEXT NOT NULL,
		doc_type TEXT NOT NULL,
		attributes JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS settee_documents_type_idx ON settee_documents (doc_type, seq)`,
	`CREATE INDEX IF NOT EXISTS settee_documents_attrs_idx ON settee_documents USING GIN (attributes jsonb_path_ops)`,
}

const selectDocument = `SELECT doc_id, rev, doc_type, attributes, created_at, updated_at FROM settee_documents`

// Store is a Postgres-backed document store.
type Store struct {
	mu  sync.RWMutex
	db  *sql.DB
	now func() time.Time
}

// New returns a detached store.
func New() *Store {
	return &Store{now: time.Now}
}

// Attach opens the configured DSN, pings the server and ensures the
// documents table exists.
func (s *Store) Attach(config types.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	openMu.Lock()
	db, err := sqlOpen(defaultDriver, config.Postgres.DSN)
	openMu.Unlock()
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("%w: ping postgres: %w", types.ErrStoreUnavailable, err)
	}
	for _, stmt := range ddl {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return fmt.Errorf("execute ddl: %w", err)
		}
	}
	s.db = db
	return nil
}

// Detach closes the connection pool. Idempotent.
func (s *Store) Detach() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) conn() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, types.ErrStoreDetached
	}
	return s.db, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", types.ErrStoreUnavailable, op, err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*types.Document, error) {
	var d types.Document
	var attrs []byte
	if err := row.Scan(&d.ID, &d.Rev, &d.Type, &attrs, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if d.Attributes, err = types.DecodeAttributes(attrs); err != nil {
		return nil, fmt.Errorf("attributes of %s: %w", d.ID, err)
	}
	return &d, nil
}

// Get retrieves a document by ID.
func (s *Store) Get(ctx context.Context, id string) (*types.Document, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	d, err := scanDocument(db.QueryRowContext(ctx, selectDocument+` WHERE doc_id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		if errors.Is(err, types.ErrInvalidData) {
			return nil, err
		}
		return nil, unavailable("select document", err)
	}
	return d, nil
}

// Write creates or updates a document. Creation relies on the unique
// doc_id; updates only apply when the stored revision matches.
func (s *Store) Write(ctx context.Context, doc *types.Document) (types.WriteResult, error) {
	if doc == nil || doc.Type == "" {
		return types.WriteResult{}, types.ErrInvalidData
	}
	attrs, err := encodeAttributes(doc.Attributes)
	if err != nil {
		return types.WriteResult{}, err
	}
	db, err := s.conn()
	if err != nil {
		return types.WriteResult{}, err
	}

	now := s.now().UTC()
	if doc.Rev == "" {
		id := doc.ID
		if id == "" {
			id = types.NewDocumentID()
		}
		rev := types.NextRevision("")
		res, err := db.ExecContext(ctx,
			`INSERT INTO settee_documents (doc_id, rev, doc_type, attributes, created_at, updated_at)
			 VALUES ($1, $2, $3, $4::jsonb, $5, $5)
			 ON CONFLICT (doc_id) DO NOTHING`,
			id, rev, doc.Type, attrs, now)
		if err != nil {
			return types.WriteResult{}, unavailable("insert document", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return types.WriteResult{}, unavailable("insert document", err)
		} else if n == 0 {
			return types.WriteResult{}, types.ErrConflict
		}
		return types.WriteResult{ID: id, Rev: rev}, nil
	}

	if doc.ID == "" {
		return types.WriteResult{}, types.ErrInvalidID
	}
	rev := types.NextRevision(doc.Rev)
	res, err := db.ExecContext(ctx,
		`UPDATE settee_documents
		 SET rev = $3, doc_type = $4, attributes = $5::jsonb, updated_at = $6
		 WHERE doc_id = $1 AND rev = $2`,
		doc.ID, doc.Rev, rev, doc.Type, attrs, now)
	if err != nil {
		return types.WriteResult{}, unavailable("update document", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return types.WriteResult{}, unavailable("update document", err)
	} else if n == 0 {
		return types.WriteResult{}, types.ErrConflict
	}
	return types.WriteResult{ID: doc.ID, Rev: rev}, nil
}

// Delete removes a document at the given revision.
func (s *Store) Delete(ctx context.Context, id, rev string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	db, err := s.conn()
	if err != nil {
		return err
	}
	res, err := db.ExecContext(ctx, `DELETE FROM settee_documents WHERE doc_id = $1 AND rev = $2`, id, rev)
	if err != nil {
		return unavailable("delete document", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable("delete document", err)
	}
	if n > 0 {
		return nil
	}
	var one int
	err = db.QueryRowContext(ctx, `SELECT 1 FROM settee_documents WHERE doc_id = $1`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return types.ErrNotFound
	}
	if err != nil {
		return unavailable("select document", err)
	}
	return types.ErrConflict
}

// Find returns documents of docType whose attributes equal the filter, in
// creation order.
func (s *Store) Find(ctx context.Context, docType string, filter map[string]any) ([]*types.Document, error) {
	where, args, err := buildFilter(docType, filter)
	if err != nil {
		return nil, err
	}
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, selectDocument+` WHERE `+where+` ORDER BY seq`, args...)
	if err != nil {
		return nil, unavailable("select documents", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*types.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate documents", err)
	}
	return out, nil
}

// buildFilter translates an equality filter into a WHERE clause. Each value
// is compared as JSONB, so type and numeric value both have to match.
func buildFilter(docType string, filter map[string]any) (string, []any, error) {
	if err := types.ValidateFilter(filter); err != nil {
		return "", nil, err
	}
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	clauses := []string{"doc_type = $1"}
	args := []any{docType}
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	for _, k := range keys {
		key := next(k)
		v := filter[k]
		if v == nil {
			clauses = append(clauses, fmt.Sprintf("(attributes -> %s IS NULL OR attributes -> %s = 'null'::jsonb)", key, key))
			continue
		}
		data, err := json.Marshal(v)
		if err != nil {
			return "", nil, types.ErrInvalidFilter
		}
		clauses = append(clauses, fmt.Sprintf("attributes -> %s = %s::jsonb", key, next(string(data))))
	}
	return strings.Join(clauses, " AND "), args, nil
}

func encodeAttributes(attrs map[string]any) (string, error) {
	if attrs == nil {
		return "{}", nil
	}
	data, err := json.Marshal(attrs)
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrInvalidData, err)
	}
	return string(data), nil
}

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore
// function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
