//go:build js_eval

package validate

import (
	"fmt"

	"github.com/dop251/goja"
)

type jsProgram struct {
	program *goja.Program
}

func jsAvailable() bool { return true }

func compileJS(expression string, _ []string) (program, error) {
	p, err := goja.Compile("", fmt.Sprintf("(function(){ return (%s); })()", expression), false)
	if err != nil {
		return nil, err
	}
	return &jsProgram{program: p}, nil
}

// eval runs on a fresh runtime; goja runtimes are not safe for concurrent use.
func (p *jsProgram) eval(env map[string]any) (any, error) {
	vm := goja.New()
	for k, v := range env {
		if err := vm.Set(k, v); err != nil {
			return nil, err
		}
	}
	value, err := vm.RunProgram(p.program)
	if err != nil {
		return nil, err
	}
	return value.Export(), nil
}
