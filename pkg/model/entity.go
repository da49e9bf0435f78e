package model

import (
	"context"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/settee/pkg/attr"
	"github.com/mesh-intelligence/settee/pkg/types"
)

// Entity is an addressable, mutable record of one schema type. It has an
// identity and a revision once persisted.
type Entity struct {
	schema  *Schema
	db      *Database
	id      string
	rev     string
	tracker *Tracker

	collections map[string]*ForeignKeyCollection
	collOrder   []string

	err       error
	destroyed bool
}

// Change is the before/after pair of a changed property.
type Change struct {
	Old any
	New any
}

// NewEntity constructs an entity of schema s that is not bound to a
// Database. The initial values overlay the schema defaults and form the
// first snapshot. Returns ErrUnknownProperty for undeclared names.
func NewEntity(s *Schema, initial map[string]any) (*Entity, error) {
	for k := range initial {
		if _, ok := s.Property(k); !ok {
			return nil, fmt.Errorf("%s.%s: %w", s.Type(), k, types.ErrUnknownProperty)
		}
	}
	return &Entity{schema: s, tracker: NewTracker(s, initial)}, nil
}

// ID returns the identity, or "" before the first write.
func (e *Entity) ID() string { return e.id }

// Rev returns the revision token, or "" before the first write.
func (e *Entity) Rev() string { return e.rev }

// IsNew reports whether the entity has never been written.
func (e *Entity) IsNew() bool { return e.rev == "" }

// Destroyed reports whether Destroy succeeded on the entity.
func (e *Entity) Destroyed() bool { return e.destroyed }

// Type returns the schema's type discriminator.
func (e *Entity) Type() string { return e.schema.Type() }

// Schema returns the entity's schema.
func (e *Entity) Schema() *Schema { return e.schema }

// Tracker returns the entity's dirty tracker.
func (e *Entity) Tracker() *Tracker { return e.tracker }

// SetID assigns the identity a new entity will be created under.
func (e *Entity) SetID(id string) error {
	if !e.IsNew() {
		return fmt.Errorf("set id on %s %s: %w", e.Type(), e.id, types.ErrNotNew)
	}
	e.id = id
	return nil
}

// Get returns the live value of a property, or nil if it is not declared.
// Nested sequences and mappings are returned by reference; mutating them in
// place is tracked like a Set.
func (e *Entity) Get(name string) any {
	return e.tracker.Value(name)
}

// Set assigns a property.
func (e *Entity) Set(name string, v any) error {
	if !e.tracker.Tracks(name) {
		return fmt.Errorf("%s.%s: %w", e.Type(), name, types.ErrUnknownProperty)
	}
	e.tracker.Set(name, v)
	return nil
}

// Attributes returns a deep copy of every property value.
func (e *Entity) Attributes() map[string]any {
	out := make(map[string]any, len(e.schema.props))
	for _, p := range e.schema.props {
		out[p.Name] = attr.Clone(e.tracker.Value(p.Name))
	}
	return out
}

// Changed reports whether a property differs from its last synchronized
// value.
func (e *Entity) Changed(name string) bool { return e.tracker.IsChanged(name) }

// Dirty reports whether any property is changed.
func (e *Entity) Dirty() bool { return e.tracker.IsAnyChanged() }

// ChangedProperties lists changed properties in declaration order.
func (e *Entity) ChangedProperties() []string { return e.tracker.Changed() }

// Changes returns the old and new value of every changed property.
func (e *Entity) Changes() map[string]Change {
	names := e.tracker.Changed()
	if len(names) == 0 {
		return nil
	}
	out := make(map[string]Change, len(names))
	for _, n := range names {
		out[n] = Change{Old: e.tracker.PreviousValue(n), New: attr.Clone(e.tracker.Value(n))}
	}
	return out
}

// Was returns the value a property held at the last load or save.
func (e *Entity) Was(name string) any { return e.tracker.PreviousValue(name) }

// NotChanged marks a property unchanged without altering its value, so a
// pending change to it alone does not trigger a write.
func (e *Entity) NotChanged(name string) { e.tracker.MarkUnchanged(name) }

// Reset marks every property unchanged.
func (e *Entity) Reset() { e.tracker.ResetAll() }

// Err returns the error of the last Save or Destroy, or nil.
func (e *Entity) Err() error { return e.err }

// Errors returns the validation failures of the last save, if it failed
// validation.
func (e *Entity) Errors() []FieldError {
	var ve *ValidationError
	if errors.As(e.err, &ve) {
		out := make([]FieldError, len(ve.Errors))
		copy(out, ve.Errors)
		return out
	}
	return nil
}

// Save persists the entity through its Database and reports success. On
// failure it returns false; Err and Errors describe why.
func (e *Entity) Save(ctx context.Context) bool {
	return e.SaveStrict(ctx) == nil
}

// SaveStrict persists the entity and returns any failure.
func (e *Entity) SaveStrict(ctx context.Context) error {
	if e.db == nil {
		e.err = fmt.Errorf("save %s: %w", e.Type(), types.ErrNotBound)
		return e.err
	}
	return e.db.Save(ctx, e)
}

// Destroy deletes the entity and the items its instantiated collections
// hold.
func (e *Entity) Destroy(ctx context.Context) error {
	if e.db == nil {
		e.err = fmt.Errorf("destroy %s: %w", e.Type(), types.ErrNotBound)
		return e.err
	}
	return e.db.Destroy(ctx, e)
}

// Collection returns the named association's collection, creating it on
// first use. Subsequent calls return the same instance.
func (e *Entity) Collection(name string) (*ForeignKeyCollection, error) {
	if c, ok := e.collections[name]; ok {
		return c, nil
	}
	a, ok := e.schema.Association(name)
	if !ok {
		return nil, fmt.Errorf("%s.%s: %w", e.Type(), name, types.ErrUnknownAssociation)
	}
	if e.db == nil {
		return nil, fmt.Errorf("collection %s.%s: %w", e.Type(), name, types.ErrNotBound)
	}
	item, err := e.db.registry.Schema(a.ItemType)
	if err != nil {
		return nil, fmt.Errorf("collection %s.%s: %w", e.Type(), name, err)
	}
	if _, ok := item.Property(a.ForeignKey); !ok {
		return nil, fmt.Errorf("collection %s.%s: %s.%s: %w", e.Type(), name, item.Type(), a.ForeignKey, types.ErrUnknownProperty)
	}
	c := newForeignKeyCollection(e, a, item, e.db)
	if e.collections == nil {
		e.collections = make(map[string]*ForeignKeyCollection)
	}
	e.collections[name] = c
	e.collOrder = append(e.collOrder, name)
	return c, nil
}

// instantiated returns the collections created so far, in creation order.
func (e *Entity) instantiated() []*ForeignKeyCollection {
	out := make([]*ForeignKeyCollection, 0, len(e.collOrder))
	for _, n := range e.collOrder {
		out = append(out, e.collections[n])
	}
	return out
}

func (e *Entity) String() string {
	if e.id == "" {
		return e.Type() + "(new)"
	}
	return e.Type() + "(" + e.id + ")"
}
