//go:build !js_eval

package validate

func jsAvailable() bool { return false }

func compileJS(string, []string) (program, error) {
	return nil, ErrEngineUnavailable
}
