package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"
)

// loadDocumentsJSONL reads documents.jsonl from dataDir and inserts every
// record into the documents table in file order. Loading is transactional:
// either every valid record loads or the table stays empty. Malformed lines,
// records without an ID or type, and duplicate IDs are skipped; unknown
// fields are ignored.
func loadDocumentsJSONL(db *sql.DB, dataDir string) (int, error) {
	records, err := readJSONL(filepath.Join(dataDir, documentsJSONL))
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO documents
		(doc_id, rev, doc_type, attributes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(doc_id) DO NOTHING`)
	if err != nil {
		return 0, fmt.Errorf("preparing document insert: %w", err)
	}
	defer stmt.Close()

	loaded := 0
	for _, rec := range records {
		var d documentJSON
		if err := json.Unmarshal(rec, &d); err != nil {
			continue
		}
		if d.ID == "" || d.Type == "" || d.Rev == "" {
			continue
		}
		attrs := string(d.Attributes)
		if len(d.Attributes) == 0 || attrs == "null" {
			attrs = "{}"
		}
		if _, err := decodeAttributes(attrs); err != nil {
			continue
		}
		createdAt, ok := loadTime(d.CreatedAt)
		if !ok {
			continue
		}
		updatedAt, ok := loadTime(d.UpdatedAt)
		if !ok {
			continue
		}
		res, err := stmt.Exec(d.ID, d.Rev, d.Type, attrs, createdAt, updatedAt)
		if err != nil {
			return 0, fmt.Errorf("inserting document %s: %w", d.ID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			loaded++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing load transaction: %w", err)
	}
	return loaded, nil
}

// loadTime normalizes a record timestamp. A missing timestamp loads as the
// zero time; an unparseable one rejects the record.
func loadTime(s string) (string, bool) {
	if s == "" {
		return formatTime(time.Time{}), true
	}
	t, err := parseTime(s)
	if err != nil {
		return "", false
	}
	return formatTime(t), true
}
