package validate

import (
	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

type exprProgram struct {
	program *exprvm.Program
}

func compileExpr(expression string, _ []string) (program, error) {
	p, err := exprlang.Compile(expression,
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
		exprlang.AsBool(),
	)
	if err != nil {
		return nil, err
	}
	return &exprProgram{program: p}, nil
}

func (p *exprProgram) eval(env map[string]any) (any, error) {
	return exprlang.Run(p.program, env)
}
