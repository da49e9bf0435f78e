package postgres

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/mesh-intelligence/settee/pkg/types"
)

// TestIntegrationRoundTrip runs against a live server when
// SETTEE_POSTGRES_DSN is set.
func TestIntegrationRoundTrip(t *testing.T) {
	dsn := os.Getenv("SETTEE_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("SETTEE_POSTGRES_DSN not set")
	}
	s := New()
	if err := s.Attach(types.Config{Backend: types.BackendPostgres, Postgres: types.PostgresConfig{DSN: dsn}}); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	defer func() { _ = s.Detach() }()
	ctx := context.Background()

	docType := "plate_" + types.NewDocumentID()[:8]
	res, err := s.Write(ctx, &types.Document{Type: docType, Attributes: map[string]any{"food": "sushi", "count": 2}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := s.Get(ctx, res.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Attributes["food"] != "sushi" || got.Rev != res.Rev {
		t.Fatalf("unexpected doc %+v", got)
	}

	if _, err := s.Write(ctx, &types.Document{ID: res.ID, Type: docType}); !errors.Is(err, types.ErrConflict) {
		t.Fatalf("duplicate create: expected ErrConflict, got %v", err)
	}

	upd, err := s.Write(ctx, &types.Document{ID: res.ID, Rev: res.Rev, Type: docType, Attributes: map[string]any{"food": "burger", "count": 2.0}})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := s.Write(ctx, &types.Document{ID: res.ID, Rev: res.Rev, Type: docType}); !errors.Is(err, types.ErrConflict) {
		t.Fatalf("stale update: expected ErrConflict, got %v", err)
	}

	docs, err := s.Find(ctx, docType, map[string]any{"count": 2, "missing": nil})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(docs) != 1 || docs[0].Attributes["food"] != "burger" {
		t.Fatalf("unexpected find result %+v", docs)
	}

	if err := s.Delete(ctx, res.ID, res.Rev); !errors.Is(err, types.ErrConflict) {
		t.Fatalf("stale delete: expected ErrConflict, got %v", err)
	}
	if err := s.Delete(ctx, res.ID, upd.Rev); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, res.ID); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("Get after delete: expected ErrNotFound, got %v", err)
	}
	if err := s.Delete(ctx, res.ID, upd.Rev); !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
}
