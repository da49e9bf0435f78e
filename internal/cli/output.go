package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mesh-intelligence/settee/pkg/model"
	"github.com/mesh-intelligence/settee/pkg/types"
)

// entityView is the JSON shape of an entity on the command line.
type entityView struct {
	ID         string         `json:"id"`
	Rev        string         `json:"rev"`
	Type       string         `json:"type"`
	Attributes map[string]any `json:"attributes"`
}

func viewOf(e *model.Entity) entityView {
	return entityView{ID: e.ID(), Rev: e.Rev(), Type: e.Type(), Attributes: e.Attributes()}
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysError(fmt.Errorf("marshal output: %w", err))
	}
	fmt.Fprintln(w, string(data))
	return nil
}

// writeEntity prints one entity, as JSON or as a key: value block.
func writeEntity(w io.Writer, e *model.Entity) error {
	if flags.jsonMode {
		return writeJSON(w, viewOf(e))
	}
	fmt.Fprintf(w, "id:   %s\ntype: %s\nrev:  %s\n", e.ID(), e.Type(), e.Rev())
	attrs := e.Attributes()
	for _, k := range sortedKeys(attrs) {
		fmt.Fprintf(w, "  %s: %s\n", k, formatValue(attrs[k]))
	}
	return nil
}

// writeEntities prints one line per entity, or a JSON array.
func writeEntities(w io.Writer, es []*model.Entity) error {
	if flags.jsonMode {
		views := make([]entityView, len(es))
		for i, e := range es {
			views[i] = viewOf(e)
		}
		return writeJSON(w, views)
	}
	for _, e := range es {
		attrs := e.Attributes()
		pairs := make([]string, 0, len(attrs))
		for _, k := range sortedKeys(attrs) {
			pairs = append(pairs, k+"="+formatValue(attrs[k]))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.ID(), e.Type(), strings.Join(pairs, " "))
	}
	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatValue(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

// parseAssignments parses key=value arguments. Values that parse as JSON
// keep their JSON type; anything else is a string.
func parseAssignments(args []string) (map[string]any, error) {
	out := make(map[string]any, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, userError(fmt.Errorf("invalid assignment %q (expected key=value)", arg))
		}
		var parsed any
		dec := json.NewDecoder(strings.NewReader(value))
		dec.UseNumber()
		if err := dec.Decode(&parsed); err != nil || dec.More() {
			out[key] = value
			continue
		}
		out[key] = types.NormalizeNumbers(parsed)
	}
	return out, nil
}
