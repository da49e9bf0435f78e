package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mesh-intelligence/settee/pkg/types"
)

const selectDocument = `SELECT doc_id, rev, doc_type, attributes, created_at, updated_at FROM documents`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*types.Document, error) {
	var d types.Document
	var attrs, createdAt, updatedAt string
	if err := row.Scan(&d.ID, &d.Rev, &d.Type, &attrs, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	if d.Attributes, err = decodeAttributes(attrs); err != nil {
		return nil, err
	}
	if d.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if d.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &d, nil
}

// Get retrieves a document by ID.
func (b *Backend) Get(ctx context.Context, id string) (*types.Document, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrStoreDetached
	}

	row := b.db.QueryRowContext(ctx, selectDocument+" WHERE doc_id = ?", id)
	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting document %s: %w", id, err)
	}
	return d, nil
}

// Write creates or updates a document, checking the revision token.
func (b *Backend) Write(ctx context.Context, doc *types.Document) (types.WriteResult, error) {
	if doc == nil || doc.Type == "" {
		return types.WriteResult{}, types.ErrInvalidData
	}
	attrs, err := encodeAttributes(doc.Attributes)
	if err != nil {
		return types.WriteResult{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return types.WriteResult{}, types.ErrStoreDetached
	}

	id := doc.ID
	if id == "" {
		id = types.NewDocumentID()
	}
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return types.WriteResult{}, fmt.Errorf("beginning write of %s: %w", id, err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx, "SELECT rev FROM documents WHERE doc_id = ?", id).Scan(&current)
	exists := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return types.WriteResult{}, fmt.Errorf("reading revision of %s: %w", id, err)
	}
	switch {
	case doc.Rev == "" && exists:
		return types.WriteResult{}, types.ErrConflict
	case doc.Rev != "" && (!exists || current != doc.Rev):
		return types.WriteResult{}, types.ErrConflict
	}

	now := formatTime(b.now())
	var rev, op string
	if exists {
		rev, op = types.NextRevision(current), "update"
		_, err = tx.ExecContext(ctx,
			`UPDATE documents SET rev = ?, doc_type = ?, attributes = ?, updated_at = ?
			 WHERE doc_id = ? AND rev = ?`,
			rev, doc.Type, attrs, now, id, current)
	} else {
		rev, op = types.NextRevision(""), "create"
		_, err = tx.ExecContext(ctx,
			`INSERT INTO documents (doc_id, rev, doc_type, attributes, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			id, rev, doc.Type, attrs, now, now)
	}
	if err != nil {
		return types.WriteResult{}, fmt.Errorf("writing document %s: %w", id, err)
	}

	if err := b.persistOrQueue(ctx, tx, id, op); err != nil {
		return types.WriteResult{}, fmt.Errorf("persisting JSONL: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return types.WriteResult{}, fmt.Errorf("committing document %s: %w", id, err)
	}
	return types.WriteResult{ID: id, Rev: rev}, nil
}

// Delete removes a document at the given revision.
func (b *Backend) Delete(ctx context.Context, id, rev string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return types.ErrStoreDetached
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning delete of %s: %w", id, err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx, "SELECT rev FROM documents WHERE doc_id = ?", id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return types.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("reading revision of %s: %w", id, err)
	}
	if current != rev {
		return types.ErrConflict
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE doc_id = ? AND rev = ?", id, rev); err != nil {
		return fmt.Errorf("deleting document %s: %w", id, err)
	}
	if err := b.persistOrQueue(ctx, tx, id, "delete"); err != nil {
		return fmt.Errorf("persisting JSONL: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing delete of %s: %w", id, err)
	}
	return nil
}

// Find returns documents of docType whose attributes equal the filter, in
// creation order. Filter keys are bound as JSON paths; values are compared
// together with their JSON type so "1" never matches 1 and true never
// matches 1.
func (b *Backend) Find(ctx context.Context, docType string, filter map[string]any) ([]*types.Document, error) {
	where, args, err := buildFilter(docType, filter)
	if err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrStoreDetached
	}

	rows, err := b.db.QueryContext(ctx, selectDocument+" WHERE "+where+" ORDER BY seq", args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var out []*types.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return out, nil
}

// buildFilter translates an equality filter into a WHERE clause over the
// JSON attributes column. Keys are validated identifiers; they are still
// passed as parameters.
func buildFilter(docType string, filter map[string]any) (string, []any, error) {
	if err := types.ValidateFilter(filter); err != nil {
		return "", nil, err
	}
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	clauses := []string{"doc_type = ?"}
	args := []any{docType}
	for _, k := range keys {
		path := "$." + k
		switch v := filter[k].(type) {
		case nil:
			clauses = append(clauses, "(json_type(attributes, ?) IS NULL OR json_type(attributes, ?) = 'null')")
			args = append(args, path, path)
		case bool:
			jt := "false"
			if v {
				jt = "true"
			}
			clauses = append(clauses, "json_type(attributes, ?) = ?")
			args = append(args, path, jt)
		case string:
			clauses = append(clauses, "(json_type(attributes, ?) = 'text' AND json_extract(attributes, ?) = ?)")
			args = append(args, path, path, v)
		default:
			clauses = append(clauses, "(json_type(attributes, ?) IN ('integer', 'real') AND json_extract(attributes, ?) = ?)")
			args = append(args, path, path, v)
		}
	}
	return strings.Join(clauses, " AND "), args, nil
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// persistJSONL rewrites documents.jsonl from the documents table as q sees
// it, in creation order. The caller must hold b.mu.
func (b *Backend) persistJSONL(ctx context.Context, q queryer) error {
	rows, err := q.QueryContext(ctx, `SELECT doc_id, rev, doc_type, attributes, created_at, updated_at
		FROM documents ORDER BY seq`)
	if err != nil {
		return fmt.Errorf("querying documents for JSONL: %w", err)
	}
	defer rows.Close()

	var records []json.RawMessage
	for rows.Next() {
		var d documentJSON
		var attrs string
		if err := rows.Scan(&d.ID, &d.Rev, &d.Type, &attrs, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return fmt.Errorf("scanning document row: %w", err)
		}
		d.Attributes = json.RawMessage(attrs)
		data, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("marshaling document %s: %w", d.ID, err)
		}
		records = append(records, data)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating documents for JSONL: %w", err)
	}
	return writeJSONL(filepath.Join(b.config.DataDir, documentsJSONL), records)
}
