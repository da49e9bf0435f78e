// Package validate turns declarative rules into model validators. A rule is
// a boolean expression over an entity's properties; when it evaluates to
// false the save is rejected with the rule's message.
//
// Three engines are available: expr (the default), CEL, and JavaScript
// through goja. The JavaScript engine is only compiled in with the js_eval
// build tag.
package validate

import (
	"context"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/settee/pkg/model"
	"github.com/mesh-intelligence/settee/pkg/types"
)

// Engine names an expression language.
type Engine string

// Supported engines.
const (
	EngineExpr Engine = "expr"
	EngineCEL  Engine = "cel"
	EngineJS   Engine = "js"
)

// DefaultMessage is reported for rules that do not carry their own.
const DefaultMessage = "is invalid"

var (
	ErrUnknownEngine     = errors.New("unknown rule engine")
	ErrEngineUnavailable = errors.New("rule engine not available in this build")
	ErrEmptyExpression   = errors.New("rule expression must not be empty")
)

// Rule is one boolean check. Property is optional and names the property
// the failure is reported against.
type Rule struct {
	Property string `json:"property,omitempty" yaml:"property,omitempty" mapstructure:"property"`
	Expr     string `json:"expr" yaml:"expr" mapstructure:"expr"`
	Message  string `json:"message,omitempty" yaml:"message,omitempty" mapstructure:"message"`
}

// program is a compiled rule expression.
type program interface {
	eval(env map[string]any) (any, error)
}

// compiler compiles an expression that may reference vars.
type compiler func(expression string, vars []string) (program, error)

func compilerFor(engine Engine) (compiler, error) {
	switch engine {
	case "", EngineExpr:
		return compileExpr, nil
	case EngineCEL:
		return compileCEL, nil
	case EngineJS:
		if !jsAvailable() {
			return nil, fmt.Errorf("%w: %s", ErrEngineUnavailable, engine)
		}
		return compileJS, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, engine)
}

type compiledRule struct {
	Rule
	prog program
}

// RuleSet validates entities of one schema. It implements model.Validator.
type RuleSet struct {
	docType string
	vars    []string
	rules   []compiledRule
}

var _ model.Validator = (*RuleSet)(nil)

// Compile compiles rules for entities of schema s. Every expression may
// refer to any property s declares; a rule's Property must be one of them.
func Compile(engine Engine, s *model.Schema, rules ...Rule) (*RuleSet, error) {
	compile, err := compilerFor(engine)
	if err != nil {
		return nil, err
	}
	props := s.Properties()
	vars := make([]string, len(props))
	for i, p := range props {
		vars[i] = p.Name
	}

	rs := &RuleSet{docType: s.Type(), vars: vars, rules: make([]compiledRule, 0, len(rules))}
	for _, r := range rules {
		if r.Expr == "" {
			return nil, ErrEmptyExpression
		}
		if r.Property != "" {
			if _, ok := s.Property(r.Property); !ok {
				return nil, fmt.Errorf("rule %q: %w: %s.%s", r.Expr, types.ErrUnknownProperty, s.Type(), r.Property)
			}
		}
		prog, err := compile(r.Expr, vars)
		if err != nil {
			return nil, fmt.Errorf("compile rule %q: %w", r.Expr, err)
		}
		rs.rules = append(rs.rules, compiledRule{Rule: r, prog: prog})
	}
	return rs, nil
}

// Type returns the document type the rules were compiled for.
func (rs *RuleSet) Type() string { return rs.docType }

// Len returns the number of rules.
func (rs *RuleSet) Len() int { return len(rs.rules) }

// Validate evaluates every rule against e's current values. A rule that
// fails to evaluate, or yields something other than a boolean, counts as
// a failure.
func (rs *RuleSet) Validate(_ context.Context, e *model.Entity) []model.FieldError {
	env := e.Attributes()
	for _, name := range rs.vars {
		if _, ok := env[name]; !ok {
			env[name] = nil
		}
	}
	var out []model.FieldError
	for _, r := range rs.rules {
		result, err := r.prog.eval(env)
		switch {
		case err != nil:
			out = append(out, model.FieldError{Property: r.Property, Message: fmt.Sprintf("rule %q: %v", r.Expr, err)})
		default:
			ok, isBool := result.(bool)
			if !isBool {
				out = append(out, model.FieldError{Property: r.Property, Message: fmt.Sprintf("rule %q returned %T, not a boolean", r.Expr, result)})
				continue
			}
			if !ok {
				out = append(out, model.FieldError{Property: r.Property, Message: r.message()})
			}
		}
	}
	return out
}

func (r Rule) message() string {
	if r.Message == "" {
		return DefaultMessage
	}
	return r.Message
}
