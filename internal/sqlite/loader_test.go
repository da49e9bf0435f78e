package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/settee/pkg/types"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "load.db"))
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	for _, ddl := range schemaDDL {
		if _, err := db.Exec(ddl); err != nil {
			t.Fatalf("creating schema: %v", err)
		}
	}
	return db
}

func TestLoadDocumentsUnknownFields(t *testing.T) {
	tmpDir := t.TempDir()
	writeDataFile(t, tmpDir,
		`{"_id":"doc-1","_rev":"1-a","type":"plate","attributes":{"food":"sushi"},"created_at":"2025-01-15T10:00:00Z","updated_at":"2025-01-15T10:00:00Z","future_field":42}`+"\n")

	db := openTestDB(t)
	n, err := loadDocumentsJSONL(db, tmpDir)
	if err != nil {
		t.Fatalf("loadDocumentsJSONL failed: %v", err)
	}
	if n != 1 {
		t.Errorf("loaded %d documents, want 1", n)
	}
}

func TestLoadDocumentsSkipsIncompleteRecords(t *testing.T) {
	tmpDir := t.TempDir()
	writeDataFile(t, tmpDir, ""+
		`{"_rev":"1-a","type":"plate","attributes":{}}`+"\n"+
		`{"_id":"no-type","_rev":"1-a","attributes":{}}`+"\n"+
		`{"_id":"no-rev","type":"plate","attributes":{}}`+"\n"+
		`{"_id":"bad-attrs","_rev":"1-a","type":"plate","attributes":[1,2]}`+"\n"+
		`{"_id":"null-attrs","_rev":"1-a","type":"plate","attributes":null,"created_at":"2025-01-15T10:00:00Z","updated_at":"2025-01-15T10:00:00Z"}`+"\n"+
		docLine1+"\n"+
		docLine1+"\n")

	db := openTestDB(t)
	n, err := loadDocumentsJSONL(db, tmpDir)
	if err != nil {
		t.Fatalf("loadDocumentsJSONL failed: %v", err)
	}
	if n != 2 {
		t.Errorf("loaded %d documents, want 2 (null-attrs and doc-1)", n)
	}
}

func TestLoadDocumentsEmptyFile(t *testing.T) {
	tmpDir := t.TempDir()
	writeDataFile(t, tmpDir, "")
	n, err := loadDocumentsJSONL(openTestDB(t), tmpDir)
	if err != nil || n != 0 {
		t.Errorf("got (%d, %v), want (0, nil)", n, err)
	}
}

func TestBackendRoundTripWithUnknownFields(t *testing.T) {
	ctx := context.Background()
	tmpDir := t.TempDir()
	writeDataFile(t, tmpDir,
		`{"_id":"doc-1","_rev":"1-a","type":"plate","attributes":{"food":"sushi"},"created_at":"2025-01-15T10:00:00Z","updated_at":"2025-01-15T10:00:00Z","legacy":true}`+"\n")

	b := attachBackend(t, tmpDir, types.SQLiteConfig{})
	doc, err := b.Get(ctx, "doc-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	doc.Attributes["food"] = "ramen"
	if _, err := b.Write(ctx, doc); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := b.Detach(); err != nil {
		t.Fatalf("Detach failed: %v", err)
	}

	b2 := attachBackend(t, tmpDir, types.SQLiteConfig{})
	defer b2.Detach()
	doc, err = b2.Get(ctx, "doc-1")
	if err != nil {
		t.Fatalf("Get after restart failed: %v", err)
	}
	if doc.Attributes["food"] != "ramen" {
		t.Errorf("food = %v, want ramen", doc.Attributes["food"])
	}
}
