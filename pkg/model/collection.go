package model

import (
	"context"
	"iter"
)

// State is the materialization state of a collection.
type State int

// Collection states. Materialization is the only Unloaded to Loaded
// transition; only Reload goes back.
const (
	Unloaded State = iota
	Loaded
)

func (s State) String() string {
	if s == Loaded {
		return "loaded"
	}
	return "unloaded"
}

// Collection is an ordered, lazily materialized container of entities bound
// to one owner entity.
type Collection interface {
	// Owner returns the entity the collection belongs to.
	Owner() *Entity

	// Items materializes the collection on first call and returns the
	// cached items thereafter.
	Items(ctx context.Context) ([]*Entity, error)

	// All iterates the items, materializing first if needed. A
	// materialization failure is yielded once with a nil entity.
	All(ctx context.Context) iter.Seq2[*Entity, error]

	// State reports whether the collection has been materialized.
	State() State

	// Loaded is shorthand for State() == Loaded.
	Loaded() bool

	// Len returns the number of items currently held, without
	// materializing.
	Len() int

	// Append adds an existing entity to the collection.
	Append(ctx context.Context, item *Entity) error

	// Save saves every item held. Per-item failures are reported on the
	// items themselves.
	Save(ctx context.Context) error

	// Destroy destroys every item held, without materializing first.
	// Per-item failures are reported on the items themselves.
	Destroy(ctx context.Context)

	// Reload discards the materialized items and queries again.
	Reload(ctx context.Context) error
}

// all adapts an Items call to an iterator.
func all(ctx context.Context, c Collection) iter.Seq2[*Entity, error] {
	return func(yield func(*Entity, error) bool) {
		items, err := c.Items(ctx)
		if err != nil {
			yield(nil, err)
			return
		}
		for _, it := range items {
			if !yield(it, nil) {
				return
			}
		}
	}
}
