package model

import "github.com/mesh-intelligence/settee/pkg/attr"

// Snapshot holds, per tracked property, the value at the last
// synchronization point. Every stored value is an independent deep copy.
type Snapshot struct {
	values map[string]any
}

func newSnapshot(live map[string]any) Snapshot {
	s := Snapshot{values: make(map[string]any, len(live))}
	for k, v := range live {
		s.values[k] = attr.Clone(v)
	}
	return s
}

// Value returns the recorded value for name.
func (s Snapshot) Value(name string) any {
	return s.values[name]
}

func (s Snapshot) record(name string, v any) {
	s.values[name] = attr.Clone(v)
}
