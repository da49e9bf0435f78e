package types

import "context"

// Store reads and writes raw documents. It is the store client and query
// engine the mapper delegates to; implementations never return values that
// alias their internal state.
type Store interface {
	// Get retrieves the document with the given ID.
	// Returns ErrInvalidID for an empty ID and ErrNotFound if absent.
	Get(ctx context.Context, id string) (*Document, error)

	// Write creates or updates a document. An empty doc.ID creates a new
	// document under a generated UUID v7. A non-empty ID with an empty Rev
	// creates the document under that ID, or returns ErrConflict if it
	// already exists. A non-empty Rev updates the document only when it
	// matches the stored revision; otherwise Write returns ErrConflict.
	// The returned WriteResult carries the document's ID and new revision.
	Write(ctx context.Context, doc *Document) (WriteResult, error)

	// Delete removes the document with the given ID at the given revision.
	// Returns ErrNotFound if absent and ErrConflict if rev is stale.
	Delete(ctx context.Context, id, rev string) error

	// Find returns every document of docType whose top-level attributes
	// equal the filter values, in creation order. An empty filter matches
	// all documents of the type. A nil filter value matches documents where
	// the attribute is absent or null.
	// Returns ErrInvalidFilter for malformed keys or container values.
	Find(ctx context.Context, docType string, filter map[string]any) ([]*Document, error)
}

// Backend is a Store with an attach/detach lifecycle. Callers attach to a
// backend with a Config and detach when done.
type Backend interface {
	Store

	// Attach connects the backend described by config. Returns
	// ErrAlreadyAttached if called while already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent: multiple calls succeed.
	// After Detach, store operations return ErrStoreDetached.
	Detach() error
}

// WriteResult is the identity and revision a store assigned on write.
type WriteResult struct {
	ID  string
	Rev string
}
