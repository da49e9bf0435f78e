package sqlite

// Schema DDL. seq preserves creation order for Find; documents.jsonl is
// written and reloaded in seq order.
const (
	createDocuments = `CREATE TABLE documents (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    doc_id TEXT NOT NULL UNIQUE,
    rev TEXT NOT NULL,
    doc_type TEXT NOT NULL,
    attributes TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`

	idxDocumentsType = `CREATE INDEX idx_documents_type ON documents(doc_type, seq);`
)

var schemaDDL = []string{
	createDocuments,
	idxDocumentsType,
}
