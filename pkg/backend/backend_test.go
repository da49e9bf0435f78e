package backend

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/settee/pkg/model"
	"github.com/mesh-intelligence/settee/pkg/types"
)

func TestNewKnownDrivers(t *testing.T) {
	for _, name := range []string{types.BackendSQLite, types.BackendMemory, types.BackendPostgres, types.BackendS3} {
		t.Run(name, func(t *testing.T) {
			b, err := New(name)
			require.NoError(t, err)
			_, err = b.Get(context.Background(), "x")
			assert.ErrorIs(t, err, types.ErrStoreDetached, "new backends start detached")
		})
	}
}

func TestNewUnknownDriver(t *testing.T) {
	_, err := New("couchdb")
	assert.ErrorIs(t, err, types.ErrBackendUnknown)
	_, err = New("")
	assert.ErrorIs(t, err, types.ErrBackendEmpty)
}

func TestOpenValidatesConfig(t *testing.T) {
	_, err := Open(types.Config{Backend: types.BackendPostgres})
	assert.ErrorIs(t, err, types.ErrDSNEmpty)
}

func TestOpenSQLiteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := types.Config{Backend: types.BackendSQLite, DataDir: dir}
	b, err := Open(cfg)
	require.NoError(t, err)

	reg, err := model.NewRegistry(model.NewSchema("plate", model.Property{Name: "food"}))
	require.NoError(t, err)
	db := model.NewDatabase(b, model.WithRegistry(reg))
	ctx := context.Background()

	e, err := db.New("plate", map[string]any{"food": "sushi"})
	require.NoError(t, err)
	require.NoError(t, db.Save(ctx, e))
	require.NoError(t, b.Detach())

	// Reattaching rebuilds the query engine from the JSONL files.
	b, err = Open(cfg)
	require.NoError(t, err)
	defer func() { _ = b.Detach() }()
	db = model.NewDatabase(b, model.WithRegistry(reg))

	loaded, err := db.Load(ctx, e.ID())
	require.NoError(t, err)
	assert.Equal(t, "sushi", loaded.Get("food"))
	assert.False(t, loaded.Dirty())
}

func TestOpenMemory(t *testing.T) {
	b, err := Open(types.Config{Backend: types.BackendMemory})
	require.NoError(t, err)
	_, err = b.Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, types.ErrNotFound))
}
