package model

import "github.com/mesh-intelligence/settee/pkg/attr"

// Tracker is the dirty tracker of one entity. It owns the entity's live
// property values and the snapshot they are compared against. The tracked
// property set is fixed at construction from the schema's descriptors.
type Tracker struct {
	names []string
	live  map[string]any
	snap  Snapshot
}

// NewTracker returns a tracker over the schema's properties, seeded with the
// defaults overlaid by initial. The snapshot starts equal to the live values,
// so a fresh tracker reports no changes.
func NewTracker(s *Schema, initial map[string]any) *Tracker {
	live := s.defaults()
	for k, v := range initial {
		if _, ok := s.index[k]; ok {
			live[k] = v
		}
	}
	names := make([]string, len(s.props))
	for i, p := range s.props {
		names[i] = p.Name
	}
	return &Tracker{names: names, live: live, snap: newSnapshot(live)}
}

// Value returns the live value of name. Nested containers are returned by
// reference, so the caller may mutate them in place.
func (t *Tracker) Value(name string) any {
	return t.live[name]
}

// Set replaces the live value of name. The tracker must already track name.
func (t *Tracker) Set(name string, v any) {
	t.live[name] = v
}

// Tracks reports whether name is a tracked property.
func (t *Tracker) Tracks(name string) bool {
	_, ok := t.live[name]
	return ok
}

// IsChanged reports whether name's live value differs from its snapshot
// under deep structural equality.
func (t *Tracker) IsChanged(name string) bool {
	if !t.Tracks(name) {
		return false
	}
	return !attr.Equal(t.live[name], t.snap.Value(name))
}

// IsAnyChanged reports whether any tracked property is changed.
func (t *Tracker) IsAnyChanged() bool {
	for _, n := range t.names {
		if t.IsChanged(n) {
			return true
		}
	}
	return false
}

// Changed returns the names of changed properties in declaration order.
func (t *Tracker) Changed() []string {
	var out []string
	for _, n := range t.names {
		if t.IsChanged(n) {
			out = append(out, n)
		}
	}
	return out
}

// MarkUnchanged re-snapshots name so it reads as unchanged until mutated
// again.
func (t *Tracker) MarkUnchanged(name string) {
	if !t.Tracks(name) {
		return
	}
	t.snap.record(name, t.live[name])
}

// ResetAll replaces the snapshot with a deep copy of every live value.
func (t *Tracker) ResetAll() {
	t.snap = newSnapshot(t.live)
}

// PreviousValue returns a copy of the value name held at the last
// synchronization, even while name is changed.
func (t *Tracker) PreviousValue(name string) any {
	return attr.Clone(t.snap.Value(name))
}
