package model

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/settee/internal/memory"
	"github.com/mesh-intelligence/settee/pkg/types"
)

// countingStore wraps the memory store, counts calls and can be told to
// fail writes.
type countingStore struct {
	*memory.Store
	writes  int
	finds   int
	deletes int

	failWrite func(doc *types.Document) error
}

func newCountingStore() *countingStore {
	return &countingStore{Store: memory.New()}
}

func (s *countingStore) Write(ctx context.Context, doc *types.Document) (types.WriteResult, error) {
	s.writes++
	if s.failWrite != nil {
		if err := s.failWrite(doc); err != nil {
			return types.WriteResult{}, err
		}
	}
	return s.Store.Write(ctx, doc)
}

func (s *countingStore) Find(ctx context.Context, docType string, filter map[string]any) ([]*types.Document, error) {
	s.finds++
	return s.Store.Find(ctx, docType, filter)
}

func (s *countingStore) Delete(ctx context.Context, id, rev string) error {
	s.deletes++
	return s.Store.Delete(ctx, id, rev)
}

type observation struct {
	op, docType, outcome string
}

type fakeRecorder struct {
	mu  sync.Mutex
	obs []observation
}

func (r *fakeRecorder) Observe(_ context.Context, op, docType, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.obs = append(r.obs, observation{op, docType, outcome})
}

func (r *fakeRecorder) outcomes(op string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, o := range r.obs {
		if o.op == op {
			out = append(out, o.outcome)
		}
	}
	return out
}

func plateSchemas() []*Schema {
	plate := NewSchema("plate",
		Property{Name: "food", Kind: KindAny},
		Property{Name: "tags", Kind: KindList, Default: []any{}},
	).HasMany("items", "item", "plate_id")
	item := NewSchema("item",
		Property{Name: "name", Kind: KindString},
		Property{Name: "plate_id", Kind: KindString},
	)
	return []*Schema{plate, item}
}

// nonEmptyName rejects items without a name.
var nonEmptyName = ValidatorFunc(func(_ context.Context, e *Entity) []FieldError {
	name, _ := e.Get("name").(string)
	if strings.TrimSpace(name) == "" {
		return []FieldError{{Property: "name", Message: "must not be empty"}}
	}
	return nil
})

func newTestDatabase(t *testing.T, opts ...Option) (*Database, *countingStore) {
	t.Helper()
	reg, err := NewRegistry(plateSchemas()...)
	require.NoError(t, err)
	require.NoError(t, reg.Check())
	store := newCountingStore()
	return NewDatabase(store, append([]Option{WithRegistry(reg)}, opts...)...), store
}

func mustNew(t *testing.T, db *Database, docType string, attrs map[string]any) *Entity {
	t.Helper()
	e, err := db.New(docType, attrs)
	require.NoError(t, err)
	return e
}

var errUnavailable = errors.New("connection refused")
