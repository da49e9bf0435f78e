package model

import (
	"fmt"
	"sync"

	"github.com/mesh-intelligence/settee/pkg/attr"
	"github.com/mesh-intelligence/settee/pkg/types"
)

// Kind is the logical type of a property. It guides decoding and the typing
// of validation rules; it never coerces values on Set.
type Kind int

// Property kinds.
const (
	KindAny Kind = iota
	KindString
	KindNumber
	KindBool
	KindTime
	KindList
	KindMap
)

var kindNames = map[Kind]string{
	KindAny:    "any",
	KindString: "string",
	KindNumber: "number",
	KindBool:   "bool",
	KindTime:   "time",
	KindList:   "list",
	KindMap:    "map",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind maps a kind name such as "string" or "list" to a Kind.
func ParseKind(name string) (Kind, error) {
	if name == "" {
		return KindAny, nil
	}
	for k, s := range kindNames {
		if s == name {
			return k, nil
		}
	}
	return KindAny, fmt.Errorf("unknown property kind %q", name)
}

// Property describes one declared property of an entity type.
type Property struct {
	Name    string
	Kind    Kind
	Default any
}

// Association declares a has-many relation: items of ItemType whose
// ForeignKey property holds the owner's identity.
type Association struct {
	Name       string
	ItemType   string
	ForeignKey string
}

// Schema is the declared shape of one entity type: an ordered property list,
// its associations and an optional validator.
type Schema struct {
	docType    string
	props      []Property
	index      map[string]int
	assocs     []Association
	assocIndex map[string]int
	validator  Validator
}

// NewSchema declares an entity type with the given properties, in order.
// Declaring the same property name twice keeps the last declaration.
func NewSchema(docType string, props ...Property) *Schema {
	s := &Schema{
		docType:    docType,
		index:      make(map[string]int, len(props)),
		assocIndex: make(map[string]int),
	}
	for _, p := range props {
		if i, ok := s.index[p.Name]; ok {
			s.props[i] = p
			continue
		}
		s.index[p.Name] = len(s.props)
		s.props = append(s.props, p)
	}
	return s
}

// HasMany declares a foreign-key association and returns the schema.
func (s *Schema) HasMany(name, itemType, foreignKey string) *Schema {
	a := Association{Name: name, ItemType: itemType, ForeignKey: foreignKey}
	if i, ok := s.assocIndex[name]; ok {
		s.assocs[i] = a
		return s
	}
	s.assocIndex[name] = len(s.assocs)
	s.assocs = append(s.assocs, a)
	return s
}

// WithValidator attaches a validator consulted before every write of an
// entity of this type.
func (s *Schema) WithValidator(v Validator) *Schema {
	s.validator = v
	return s
}

// Type returns the type discriminator.
func (s *Schema) Type() string { return s.docType }

// Properties returns the declared properties in declaration order.
func (s *Schema) Properties() []Property {
	out := make([]Property, len(s.props))
	copy(out, s.props)
	return out
}

// Property looks up a declared property.
func (s *Schema) Property(name string) (Property, bool) {
	i, ok := s.index[name]
	if !ok {
		return Property{}, false
	}
	return s.props[i], true
}

// Associations returns the declared associations in declaration order.
func (s *Schema) Associations() []Association {
	out := make([]Association, len(s.assocs))
	copy(out, s.assocs)
	return out
}

// Association looks up a declared association.
func (s *Schema) Association(name string) (Association, bool) {
	i, ok := s.assocIndex[name]
	if !ok {
		return Association{}, false
	}
	return s.assocs[i], true
}

// Validator returns the schema's validator, or nil.
func (s *Schema) Validator() Validator { return s.validator }

// defaults returns a fresh copy of every property's default value.
func (s *Schema) defaults() map[string]any {
	out := make(map[string]any, len(s.props))
	for _, p := range s.props {
		out[p.Name] = attr.Clone(p.Default)
	}
	return out
}

// Registry maps type discriminators to schemas. Load uses it to materialize
// a raw document as the right entity type.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]*Schema
	order   []string
}

// NewRegistry returns a registry holding the given schemas.
func NewRegistry(schemas ...*Schema) (*Registry, error) {
	r := &Registry{schemas: make(map[string]*Schema)}
	for _, s := range schemas {
		if err := r.Register(s); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a schema. Returns an error for an empty type or one that is
// already registered.
func (r *Registry) Register(s *Schema) error {
	if s == nil || s.docType == "" {
		return fmt.Errorf("register schema: %w", types.ErrUnknownType)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.schemas[s.docType]; ok {
		return fmt.Errorf("register schema %q: already registered", s.docType)
	}
	r.schemas[s.docType] = s
	r.order = append(r.order, s.docType)
	return nil
}

// Schema returns the schema for docType.
func (r *Registry) Schema(docType string) (*Schema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[docType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownType, docType)
	}
	return s, nil
}

// Types returns the registered type discriminators in registration order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Check verifies that every association resolves to a registered item type
// declaring the foreign-key property.
func (r *Registry) Check() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, name := range r.order {
		for _, a := range r.schemas[name].assocs {
			item, ok := r.schemas[a.ItemType]
			if !ok {
				return fmt.Errorf("%s.%s: %w: %q", name, a.Name, types.ErrUnknownType, a.ItemType)
			}
			if _, ok := item.Property(a.ForeignKey); !ok {
				return fmt.Errorf("%s.%s: %w: %s.%s", name, a.Name, types.ErrUnknownProperty, a.ItemType, a.ForeignKey)
			}
		}
	}
	return nil
}
