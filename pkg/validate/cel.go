package validate

import (
	celgo "github.com/google/cel-go/cel"
)

type celProgram struct {
	program celgo.Program
	vars    []string
}

// compileCEL declares every property as a dynamically typed variable.
func compileCEL(expression string, vars []string) (program, error) {
	opts := []celgo.EnvOption{celgo.CrossTypeNumericComparisons(true)}
	for _, name := range vars {
		opts = append(opts, celgo.Variable(name, celgo.DynType))
	}
	env, err := celgo.NewEnv(opts...)
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, err
	}
	return &celProgram{program: prg, vars: vars}, nil
}

func (p *celProgram) eval(env map[string]any) (any, error) {
	activation := make(map[string]any, len(p.vars))
	for _, name := range p.vars {
		activation[name] = env[name]
	}
	out, _, err := p.program.Eval(activation)
	if err != nil {
		return nil, err
	}
	return out.Value(), nil
}
