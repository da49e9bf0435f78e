// Package backend is the public factory for settee stores. It selects a
// driver by name while keeping the implementations internal.
package backend

import (
	"fmt"

	"github.com/mesh-intelligence/settee/internal/memory"
	"github.com/mesh-intelligence/settee/internal/postgres"
	"github.com/mesh-intelligence/settee/internal/s3store"
	"github.com/mesh-intelligence/settee/internal/sqlite"
	"github.com/mesh-intelligence/settee/pkg/types"
)

// New creates a detached backend for the named driver. Call Attach with a
// Config to initialize it.
//
// Example:
//
//	b, err := backend.New(types.BackendSQLite)
//	if err != nil { ... }
//	err = b.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".settee",
//	})
//	defer b.Detach()
func New(name string) (types.Backend, error) {
	switch name {
	case types.BackendSQLite:
		return sqlite.NewBackend(), nil
	case types.BackendMemory:
		return memory.NewDetached(), nil
	case types.BackendPostgres:
		return postgres.New(), nil
	case types.BackendS3:
		return s3store.New(), nil
	case "":
		return nil, types.ErrBackendEmpty
	}
	return nil, fmt.Errorf("%w: %q", types.ErrBackendUnknown, name)
}

// Open creates the backend cfg names and attaches it.
func Open(cfg types.Config) (types.Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	b, err := New(cfg.Backend)
	if err != nil {
		return nil, err
	}
	if err := b.Attach(cfg); err != nil {
		return nil, fmt.Errorf("attach %s backend: %w", cfg.Backend, err)
	}
	return b, nil
}
