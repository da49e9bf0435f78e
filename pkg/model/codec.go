package model

import (
	"fmt"
	"time"

	"github.com/mesh-intelligence/settee/pkg/types"
)

// encode serializes an entity into the document a store writes.
func encode(e *Entity) *types.Document {
	return &types.Document{
		ID:         e.id,
		Rev:        e.rev,
		Type:       e.Type(),
		Attributes: e.Attributes(),
	}
}

// decode materializes a stored document as an entity of schema s.
// Attributes the schema does not declare are dropped; declared properties
// absent from the document take their defaults.
func decode(s *Schema, doc *types.Document) (*Entity, error) {
	values := make(map[string]any, len(s.props))
	for _, p := range s.props {
		raw, ok := doc.Attributes[p.Name]
		if !ok {
			continue
		}
		v, err := decodeValue(p, raw)
		if err != nil {
			return nil, fmt.Errorf("decode %s %s: %w", s.Type(), doc.ID, err)
		}
		values[p.Name] = v
	}
	e := &Entity{schema: s, id: doc.ID, rev: doc.Rev, tracker: NewTracker(s, values)}
	e.tracker.ResetAll()
	return e, nil
}

// decodeValue restores values that lose their Go type in JSON.
func decodeValue(p Property, raw any) (any, error) {
	if p.Kind != KindTime {
		return raw, nil
	}
	s, ok := raw.(string)
	if !ok {
		return raw, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.Name, types.ErrInvalidData)
	}
	return t, nil
}
