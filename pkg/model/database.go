package model

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/mesh-intelligence/settee/pkg/types"
)

// Database orchestrates saves and loads of entities against a store. It
// decides whether a write is needed, gates writes on validation, carries
// the revision token for optimistic concurrency and re-snapshots entities
// after every successful write or load.
type Database struct {
	store     types.Store
	registry  *Registry
	validator Validator
	logger    *slog.Logger
	recorder  Recorder
	now       func() time.Time
}

// Option configures a Database.
type Option func(*Database)

// WithRegistry sets the schemas used to create and materialize entities.
func WithRegistry(r *Registry) Option {
	return func(d *Database) { d.registry = r }
}

// WithValidator sets a validator consulted for every entity type, before the
// schema's own validator.
func WithValidator(v Validator) Option {
	return func(d *Database) { d.validator = v }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(d *Database) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithRecorder sets the operation recorder.
func WithRecorder(r Recorder) Option {
	return func(d *Database) {
		if r != nil {
			d.recorder = r
		}
	}
}

// WithClock sets the clock used to time operations.
func WithClock(now func() time.Time) Option {
	return func(d *Database) {
		if now != nil {
			d.now = now
		}
	}
}

// NewDatabase returns a Database writing through store.
func NewDatabase(store types.Store, opts ...Option) *Database {
	d := &Database{
		store:    store,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		recorder: noopRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.registry == nil {
		d.registry = &Registry{schemas: make(map[string]*Schema)}
	}
	return d
}

// Registry returns the database's schema registry.
func (d *Database) Registry() *Registry { return d.registry }

// Store returns the underlying store.
func (d *Database) Store() types.Store { return d.store }

// New constructs an entity of docType bound to the database. See NewEntity.
func (d *Database) New(docType string, initial map[string]any) (*Entity, error) {
	s, err := d.registry.Schema(docType)
	if err != nil {
		return nil, err
	}
	e, err := NewEntity(s, initial)
	if err != nil {
		return nil, err
	}
	e.db = d
	return e, nil
}

// Save writes e if it is new or changed, then saves the items held by its
// instantiated collections. A persisted entity without changes is not
// written. On a revision conflict the entity keeps its changes and the
// returned error matches types.ErrConflict. The outcome is also recorded on
// the entity (Err, Errors).
func (d *Database) Save(ctx context.Context, e *Entity) error {
	if e.db == nil {
		e.db = d
	}
	err := d.save(ctx, e)
	e.err = err
	return err
}

func (d *Database) save(ctx context.Context, e *Entity) error {
	if e.destroyed {
		return fmt.Errorf("save %s: %w", e, types.ErrDestroyed)
	}
	start := d.now()

	if !e.IsNew() && !e.tracker.IsAnyChanged() {
		d.logger.DebugContext(ctx, "save skipped, no changes",
			slog.String("type", e.Type()), slog.String("id", e.id))
		d.observe(ctx, OpSave, e.Type(), OutcomeSkipped, start)
		d.cascadeSave(ctx, e)
		return nil
	}

	if fe := d.validate(ctx, e); len(fe) > 0 {
		d.logger.DebugContext(ctx, "save rejected by validation",
			slog.String("type", e.Type()), slog.String("id", e.id), slog.Int("errors", len(fe)))
		d.observe(ctx, OpSave, e.Type(), OutcomeInvalid, start)
		return &ValidationError{Type: e.Type(), Errors: fe}
	}

	changed := e.tracker.Changed()
	res, err := d.store.Write(ctx, encode(e))
	if err != nil {
		outcome := OutcomeError
		if errors.Is(err, types.ErrConflict) {
			outcome = OutcomeConflict
			d.logger.InfoContext(ctx, "write conflict",
				slog.String("type", e.Type()), slog.String("id", e.id), slog.String("rev", e.rev))
		}
		d.observe(ctx, OpSave, e.Type(), outcome, start)
		return fmt.Errorf("save %s: %w", e, err)
	}

	e.id, e.rev = res.ID, res.Rev
	e.tracker.ResetAll()
	d.logger.DebugContext(ctx, "document written",
		slog.String("type", e.Type()), slog.String("id", e.id), slog.String("rev", e.rev),
		slog.Any("changed", changed))
	d.observe(ctx, OpSave, e.Type(), OutcomeWritten, start)
	d.cascadeSave(ctx, e)
	return nil
}

// cascadeSave saves the held items of every instantiated collection. Item
// failures stay on the items.
func (d *Database) cascadeSave(ctx context.Context, e *Entity) {
	for _, c := range e.instantiated() {
		if err := c.Save(ctx); err != nil {
			d.logger.WarnContext(ctx, "collection save failed",
				slog.String("owner", e.String()), slog.String("association", c.assoc.Name),
				slog.String("error", err.Error()))
		}
	}
}

func (d *Database) validate(ctx context.Context, e *Entity) []FieldError {
	var out []FieldError
	if d.validator != nil {
		out = append(out, d.validator.Validate(ctx, e)...)
	}
	if v := e.schema.Validator(); v != nil {
		out = append(out, v.Validate(ctx, e)...)
	}
	return out
}

// Load fetches the document with the given id and materializes it as the
// entity type its discriminator names. The loaded entity reports no changes.
func (d *Database) Load(ctx context.Context, id string) (*Entity, error) {
	start := d.now()
	doc, err := d.store.Get(ctx, id)
	if err != nil {
		outcome := OutcomeError
		if errors.Is(err, types.ErrNotFound) {
			outcome = OutcomeNotFound
		}
		d.observe(ctx, OpLoad, "", outcome, start)
		return nil, fmt.Errorf("load %s: %w", id, err)
	}
	e, err := d.materialize(doc)
	if err != nil {
		d.observe(ctx, OpLoad, doc.Type, OutcomeError, start)
		return nil, fmt.Errorf("load %s: %w", id, err)
	}
	d.observe(ctx, OpLoad, doc.Type, OutcomeOK, start)
	return e, nil
}

// Find returns the entities of docType matching filter, in creation order.
func (d *Database) Find(ctx context.Context, docType string, filter map[string]any) ([]*Entity, error) {
	start := d.now()
	if _, err := d.registry.Schema(docType); err != nil {
		return nil, err
	}
	docs, err := d.store.Find(ctx, docType, filter)
	if err != nil {
		d.observe(ctx, OpFind, docType, OutcomeError, start)
		return nil, fmt.Errorf("find %s: %w", docType, err)
	}
	out := make([]*Entity, 0, len(docs))
	for _, doc := range docs {
		e, err := d.materialize(doc)
		if err != nil {
			d.observe(ctx, OpFind, docType, OutcomeError, start)
			return nil, fmt.Errorf("find %s: %w", docType, err)
		}
		out = append(out, e)
	}
	d.observe(ctx, OpFind, docType, OutcomeOK, start)
	return out, nil
}

func (d *Database) materialize(doc *types.Document) (*Entity, error) {
	s, err := d.registry.Schema(doc.Type)
	if err != nil {
		return nil, err
	}
	e, err := decode(s, doc)
	if err != nil {
		return nil, err
	}
	e.db = d
	return e, nil
}

// Destroy destroys the items held by e's instantiated collections, then
// deletes e at its current revision. A destroyed entity loses its identity
// and cannot be saved again. A new entity is destroyed without touching the
// store.
func (d *Database) Destroy(ctx context.Context, e *Entity) error {
	if e.db == nil {
		e.db = d
	}
	err := d.destroy(ctx, e)
	e.err = err
	return err
}

func (d *Database) destroy(ctx context.Context, e *Entity) error {
	if e.destroyed {
		return fmt.Errorf("destroy %s: %w", e, types.ErrDestroyed)
	}
	start := d.now()
	for _, c := range e.instantiated() {
		c.Destroy(ctx)
	}
	if !e.IsNew() {
		if err := d.store.Delete(ctx, e.id, e.rev); err != nil {
			outcome := OutcomeError
			if errors.Is(err, types.ErrConflict) {
				outcome = OutcomeConflict
			}
			d.observe(ctx, OpDestroy, e.Type(), outcome, start)
			return fmt.Errorf("destroy %s: %w", e, err)
		}
	}
	d.logger.DebugContext(ctx, "entity destroyed",
		slog.String("type", e.Type()), slog.String("id", e.id))
	e.id, e.rev = "", ""
	e.destroyed = true
	d.observe(ctx, OpDestroy, e.Type(), OutcomeOK, start)
	return nil
}

func (d *Database) observe(ctx context.Context, op, docType, outcome string, start time.Time) {
	d.recorder.Observe(ctx, op, docType, outcome, d.now().Sub(start))
}
