package cli

import (
	"fmt"

	"github.com/mesh-intelligence/settee/pkg/model"
	"github.com/mesh-intelligence/settee/pkg/validate"
)

// buildRegistry turns the schema declarations of config.yaml into a checked
// registry, compiling each type's rules with the configured engine.
func buildRegistry(s *settings) (*model.Registry, error) {
	reg, err := model.NewRegistry()
	if err != nil {
		return nil, err
	}
	engine := validate.Engine(s.RuleEngine)
	for _, spec := range s.Schemas {
		if spec.Type == "" {
			return nil, fmt.Errorf("schema without a type")
		}
		props := make([]model.Property, 0, len(spec.Properties))
		for _, p := range spec.Properties {
			kind, err := model.ParseKind(p.Kind)
			if err != nil {
				return nil, fmt.Errorf("schema %s: property %s: %w", spec.Type, p.Name, err)
			}
			props = append(props, model.Property{Name: p.Name, Kind: kind, Default: p.Default})
		}
		schema := model.NewSchema(spec.Type, props...)
		for _, a := range spec.HasMany {
			schema.HasMany(a.Name, a.Type, a.ForeignKey)
		}
		if len(spec.Rules) > 0 {
			rules, err := validate.Compile(engine, schema, spec.Rules...)
			if err != nil {
				return nil, fmt.Errorf("schema %s: %w", spec.Type, err)
			}
			schema.WithValidator(rules)
		}
		if err := reg.Register(schema); err != nil {
			return nil, err
		}
	}
	if err := reg.Check(); err != nil {
		return nil, err
	}
	return reg, nil
}
