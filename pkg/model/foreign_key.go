package model

import (
	"context"
	"fmt"
	"iter"
	"log/slog"

	"github.com/mesh-intelligence/settee/pkg/types"
)

// Finder resolves an equality filter over top-level properties into the
// matching entities of docType, in creation order.
type Finder interface {
	Find(ctx context.Context, docType string, filter map[string]any) ([]*Entity, error)
}

// ForeignKeyCollection holds the items of a has-many association: entities
// of the item type whose foreign-key property equals the owner's identity.
//
// Items are resolved through a Finder on first read. While the owner is new
// no query is issued; items built in that state are held as pending and are
// merged with the query result, by identity, on materialization.
type ForeignKeyCollection struct {
	owner  *Entity
	assoc  Association
	schema *Schema
	finder Finder
	db     *Database

	state   State
	items   []*Entity
	pending []*Entity
}

var _ Collection = (*ForeignKeyCollection)(nil)

func newForeignKeyCollection(owner *Entity, a Association, item *Schema, db *Database) *ForeignKeyCollection {
	return &ForeignKeyCollection{owner: owner, assoc: a, schema: item, finder: db, db: db}
}

// Owner returns the owning entity.
func (c *ForeignKeyCollection) Owner() *Entity { return c.owner }

// Association returns the association the collection was declared with.
func (c *ForeignKeyCollection) Association() Association { return c.assoc }

// ForeignKey returns the item property that holds the owner's identity.
func (c *ForeignKeyCollection) ForeignKey() string { return c.assoc.ForeignKey }

// State reports the materialization state.
func (c *ForeignKeyCollection) State() State { return c.state }

// Loaded reports whether the collection has been materialized.
func (c *ForeignKeyCollection) Loaded() bool { return c.state == Loaded }

// Len returns the number of items held, without materializing.
func (c *ForeignKeyCollection) Len() int { return len(c.held()) }

// Items returns the collection's items, querying the Finder once if the
// owner is persisted and the collection is unloaded.
func (c *ForeignKeyCollection) Items(ctx context.Context) ([]*Entity, error) {
	if err := c.materialize(ctx); err != nil {
		return nil, err
	}
	held := c.held()
	out := make([]*Entity, len(held))
	copy(out, held)
	return out, nil
}

// All iterates the items.
func (c *ForeignKeyCollection) All(ctx context.Context) iter.Seq2[*Entity, error] {
	return all(ctx, c)
}

// Build constructs an item from attrs, adds it to the collection and stamps
// the owner's identity into its foreign key. Nothing is written.
func (c *ForeignKeyCollection) Build(ctx context.Context, attrs map[string]any) (*Entity, error) {
	if err := c.materialize(ctx); err != nil {
		return nil, err
	}
	item, err := c.db.New(c.schema.Type(), attrs)
	if err != nil {
		return nil, err
	}
	c.add(item)
	c.stamp(item)
	return item, nil
}

// Create builds an item and saves it. A save failure does not make Create
// fail; it is reported by the item's Err and Errors. The returned error is
// non-nil only when the item could not be built.
func (c *ForeignKeyCollection) Create(ctx context.Context, attrs map[string]any) (*Entity, error) {
	item, err := c.Build(ctx, attrs)
	if err != nil {
		return nil, err
	}
	item.Save(ctx)
	return item, nil
}

// CreateStrict builds an item and saves it, returning the save failure. The
// item is returned even when the save fails.
func (c *ForeignKeyCollection) CreateStrict(ctx context.Context, attrs map[string]any) (*Entity, error) {
	item, err := c.Build(ctx, attrs)
	if err != nil {
		return nil, err
	}
	if err := item.SaveStrict(ctx); err != nil {
		return item, err
	}
	return item, nil
}

// Append adds an existing item of the association's type and stamps the
// owner's identity into it.
func (c *ForeignKeyCollection) Append(ctx context.Context, item *Entity) error {
	if item.Type() != c.schema.Type() {
		return fmt.Errorf("append %s to %s.%s: %w", item, c.owner.Type(), c.assoc.Name, types.ErrUnknownType)
	}
	if err := c.materialize(ctx); err != nil {
		return err
	}
	c.add(item)
	c.stamp(item)
	return nil
}

// Save stamps the owner's identity into every held item and saves each in
// order. An unloaded collection is never loaded to be saved. Returns
// ErrOwnerNotPersisted if items are held while the owner is new.
func (c *ForeignKeyCollection) Save(ctx context.Context) error {
	held := c.held()
	if len(held) == 0 {
		return nil
	}
	if c.owner.IsNew() {
		return fmt.Errorf("save %s.%s: %w", c.owner.Type(), c.assoc.Name, types.ErrOwnerNotPersisted)
	}
	for _, item := range held {
		c.stamp(item)
		item.Save(ctx)
	}
	return nil
}

// Destroy destroys every held item. An unloaded collection is not
// materialized first: only items already in memory are destroyed. Items that
// were destroyed are dropped from the collection; the rest stay held and keep
// their error.
func (c *ForeignKeyCollection) Destroy(ctx context.Context) {
	held := c.held()
	kept := held[:0:0]
	for _, item := range held {
		if err := item.Destroy(ctx); err != nil {
			c.db.logger.WarnContext(ctx, "item destroy failed",
				slog.String("owner", c.owner.String()), slog.String("association", c.assoc.Name),
				slog.String("item", item.String()), slog.String("error", err.Error()))
			kept = append(kept, item)
		}
	}
	if c.state == Loaded {
		c.items = kept
	} else {
		c.pending = kept
	}
}

// Reload discards loaded items and materializes again. Items that have
// never been saved are kept.
func (c *ForeignKeyCollection) Reload(ctx context.Context) error {
	var unsaved []*Entity
	for _, item := range c.held() {
		if item.IsNew() {
			unsaved = append(unsaved, item)
		}
	}
	prevState, prevItems, prevPending := c.state, c.items, c.pending
	c.state, c.items, c.pending = Unloaded, nil, unsaved
	if err := c.materialize(ctx); err != nil {
		c.state, c.items, c.pending = prevState, prevItems, prevPending
		return err
	}
	return nil
}

func (c *ForeignKeyCollection) held() []*Entity {
	if c.state == Loaded {
		return c.items
	}
	return c.pending
}

func (c *ForeignKeyCollection) add(item *Entity) {
	if c.state == Loaded {
		c.items = append(c.items, item)
		return
	}
	c.pending = append(c.pending, item)
}

func (c *ForeignKeyCollection) stamp(item *Entity) {
	if c.owner.IsNew() {
		return
	}
	_ = item.Set(c.assoc.ForeignKey, c.owner.ID())
}

func (c *ForeignKeyCollection) materialize(ctx context.Context) error {
	if c.state == Loaded || c.owner.IsNew() {
		return nil
	}
	filter := map[string]any{c.assoc.ForeignKey: c.owner.ID()}
	found, err := c.finder.Find(ctx, c.schema.Type(), filter)
	if err != nil {
		return fmt.Errorf("materialize %s.%s: %w", c.owner.Type(), c.assoc.Name, err)
	}
	c.items = mergePending(found, c.pending)
	c.pending = nil
	c.state = Loaded
	c.db.logger.DebugContext(ctx, "collection materialized",
		slog.String("owner", c.owner.String()),
		slog.String("association", c.assoc.Name),
		slog.Int("items", len(c.items)))
	return nil
}

// mergePending replaces query results with the in-memory instance of the
// same identity and appends pending items the query did not return.
func mergePending(found, pending []*Entity) []*Entity {
	if len(pending) == 0 {
		return found
	}
	index := make(map[string]int, len(found))
	for i, f := range found {
		index[f.ID()] = i
	}
	for _, p := range pending {
		if i, ok := index[p.ID()]; ok && p.ID() != "" {
			found[i] = p
			continue
		}
		found = append(found, p)
	}
	return found
}
