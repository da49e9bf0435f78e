// Package memory implements an in-process document store. It honours the
// full Store contract, revisions and conflicts included, and is used for
// tests and ephemeral databases.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mesh-intelligence/settee/pkg/types"
)

// Store keeps documents in a map guarded by a mutex.
type Store struct {
	mu       sync.RWMutex
	attached bool
	docs     map[string]*entry
	seq      int64
	now      func() time.Time
}

var _ types.Backend = (*Store)(nil)

type entry struct {
	seq int64
	doc *types.Document
}

// New returns an attached, empty store.
func New() *Store {
	return &Store{attached: true, docs: make(map[string]*entry), now: time.Now}
}

// NewDetached returns an empty store that needs Attach before use.
func NewDetached() *Store {
	s := New()
	s.attached = false
	return s
}

// Attach reattaches a detached store. Documents survive detach.
func (s *Store) Attach(config types.Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}
	s.attached = true
	return nil
}

// Detach marks the store detached. Idempotent.
func (s *Store) Detach() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attached = false
	return nil
}

// Get returns a copy of the document.
func (s *Store) Get(_ context.Context, id string) (*types.Document, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.attached {
		return nil, types.ErrStoreDetached
	}
	e, ok := s.docs[id]
	if !ok {
		return nil, types.ErrNotFound
	}
	return e.doc.Clone(), nil
}

// Write creates or updates a document.
func (s *Store) Write(_ context.Context, doc *types.Document) (types.WriteResult, error) {
	if doc == nil || doc.Type == "" {
		return types.WriteResult{}, types.ErrInvalidData
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.attached {
		return types.WriteResult{}, types.ErrStoreDetached
	}

	now := s.now().UTC()
	stored := doc.Clone()
	if stored.ID == "" {
		stored.ID = types.NewDocumentID()
	}
	existing, exists := s.docs[stored.ID]
	switch {
	case doc.Rev == "" && exists:
		return types.WriteResult{}, types.ErrConflict
	case doc.Rev != "" && (!exists || existing.doc.Rev != doc.Rev):
		return types.WriteResult{}, types.ErrConflict
	}

	if exists {
		stored.CreatedAt = existing.doc.CreatedAt
		stored.Rev = types.NextRevision(existing.doc.Rev)
		stored.UpdatedAt = now
		existing.doc = stored
	} else {
		s.seq++
		stored.CreatedAt = now
		stored.UpdatedAt = now
		stored.Rev = types.NextRevision("")
		s.docs[stored.ID] = &entry{seq: s.seq, doc: stored}
	}
	return types.WriteResult{ID: stored.ID, Rev: stored.Rev}, nil
}

// Delete removes a document at the given revision.
func (s *Store) Delete(_ context.Context, id, rev string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.attached {
		return types.ErrStoreDetached
	}
	e, ok := s.docs[id]
	if !ok {
		return types.ErrNotFound
	}
	if e.doc.Rev != rev {
		return types.ErrConflict
	}
	delete(s.docs, id)
	return nil
}

// Find returns copies of the matching documents in creation order.
func (s *Store) Find(_ context.Context, docType string, filter map[string]any) ([]*types.Document, error) {
	if err := types.ValidateFilter(filter); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.attached {
		return nil, types.ErrStoreDetached
	}
	var hits []*entry
	for _, e := range s.docs {
		if e.doc.Type == docType && e.doc.Matches(filter) {
			hits = append(hits, e)
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].seq < hits[j].seq })
	out := make([]*types.Document, len(hits))
	for i, e := range hits {
		out[i] = e.doc.Clone()
	}
	return out, nil
}

// Len returns the number of stored documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}
