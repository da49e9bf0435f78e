package attr

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneNestedIsIndependent(t *testing.T) {
	orig := map[string]any{
		"veggies": []any{"carrots", "peas"},
		"sauce":   map[string]any{"name": "soy", "tags": []string{"salty"}},
	}
	cp := Clone(orig).(map[string]any)
	require.True(t, Equal(orig, cp))

	orig["veggies"] = append(orig["veggies"].([]any), "beans")
	orig["sauce"].(map[string]any)["tags"].([]string)[0] = "sweet"
	orig["sauce"].(map[string]any)["name"] = "teriyaki"

	assert.Equal(t, []any{"carrots", "peas"}, cp["veggies"])
	assert.Equal(t, "soy", cp["sauce"].(map[string]any)["name"])
	assert.Equal(t, []string{"salty"}, cp["sauce"].(map[string]any)["tags"])
	assert.False(t, Equal(orig, cp))
}

func TestCloneInPlaceSliceMutation(t *testing.T) {
	s := []any{"a", []any{"b"}}
	cp := Clone(s).([]any)
	s[1].([]any)[0] = "z"
	assert.Equal(t, "b", cp[1].([]any)[0])
}

func TestCloneReflectedContainers(t *testing.T) {
	t.Run("typed slice of maps", func(t *testing.T) {
		in := []map[string]int{{"a": 1}}
		cp := Clone(in).([]map[string]int)
		in[0]["a"] = 2
		assert.Equal(t, 1, cp[0]["a"])
	})

	t.Run("map of slices", func(t *testing.T) {
		in := map[string][]int{"xs": {1, 2}}
		cp := Clone(in).(map[string][]int)
		in["xs"][0] = 9
		assert.Equal(t, []int{1, 2}, cp["xs"])
	})

	t.Run("nil containers keep their type", func(t *testing.T) {
		var s []any
		var m map[string]any
		assert.Nil(t, Clone(s))
		assert.IsType(t, []any(nil), Clone(s))
		assert.IsType(t, map[string]any(nil), Clone(m))
	})
}

func TestEqual(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"same strings", "sushi", "sushi", true},
		{"different strings", "sushi", "burger", false},
		{"int and float", 3, float64(3), true},
		{"int64 and int", int64(7), 7, true},
		{"number and string", 1, "1", false},
		{"bools", true, true, true},
		{"bool vs number", true, 1, false},
		{"nil and nil", nil, nil, true},
		{"nil and empty string", nil, "", false},
		{"nil and typed nil slice", nil, []any(nil), true},
		{"nil and empty slice", nil, []any{}, false},
		{"typed nil and empty slice", []string(nil), []any{}, true},
		{"string slices across types", []string{"a", "b"}, []any{"a", "b"}, true},
		{"order matters", []any{"a", "b"}, []any{"b", "a"}, false},
		{"length differs", []any{"a"}, []any{"a", "b"}, false},
		{"maps across types", map[string]string{"k": "v"}, map[string]any{"k": "v"}, true},
		{"map missing key", map[string]any{"k": 1}, map[string]any{"j": 1}, false},
		{"nested", map[string]any{"veggies": []any{"carrots", "peas"}}, map[string]any{"veggies": []string{"carrots", "peas"}}, true},
		{"nested differs", map[string]any{"veggies": []any{"carrots"}}, map[string]any{"veggies": []any{"carrots", "beans"}}, false},
		{"times", now, now.UTC(), true},
		{"map vs slice", map[string]any{}, []any{}, false},
		{"int keyed maps", map[int]any{1: "a"}, map[int]any{1: "a"}, true},
		{"int keyed maps differ", map[int]any{1: "a"}, map[int]any{2: "a"}, false},
		{"int keyed map nested", map[string]any{"m": map[int][]any{7: {"x"}}}, map[string]any{"m": map[int][]any{7: {"x"}}}, true},
		{"key kinds differ", map[int]any{1: "a"}, map[int64]any{1: "a"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
			assert.Equal(t, tt.want, Equal(tt.b, tt.a), "Equal must be symmetric")
		})
	}
}

func TestEqualDoesNotUseIdentity(t *testing.T) {
	a := map[string]any{"veggies": []any{"carrots"}}
	b := a
	assert.True(t, Equal(a, b))

	snap := Clone(a)
	a["veggies"] = append(a["veggies"].([]any), "beans")
	assert.False(t, Equal(a, snap))
}

func TestEqualLargeIntegers(t *testing.T) {
	const big = int64(1) << 53
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"int64 neighbours above 2^53", big, big + 1, false},
		{"int64 same", big + 1, big + 1, true},
		{"int64 and uint64 same", big + 1, uint64(big + 1), true},
		{"uint64 neighbours at the top", uint64(math.MaxUint64), uint64(math.MaxUint64 - 1), false},
		{"max int64 and max uint64", int64(math.MaxInt64), uint64(math.MaxUint64), false},
		{"min int64", int64(math.MinInt64), int64(math.MinInt64), true},
		{"negative and unsigned", int64(-1), uint64(math.MaxUint64), false},
		{"int and integral float", big, float64(big), true},
		{"int and float that rounded", big + 1, float64(big + 1), false},
		{"int and fractional float", 1, 1.5, false},
		{"negative int and float", -3, float64(-3), true},
		{"int and NaN", 0, math.NaN(), false},
		{"uint64 and float out of range", uint64(math.MaxUint64), math.Inf(1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
			assert.Equal(t, tt.want, Equal(tt.b, tt.a))
		})
	}
}

func TestCloneIntKeyedMap(t *testing.T) {
	in := map[int]any{1: []any{"a"}}
	cp := Clone(in).(map[int]any)
	require.True(t, Equal(in, cp))
	in[1] = append(in[1].([]any), "b")
	assert.False(t, Equal(in, cp))
	assert.Equal(t, []any{"a"}, cp[1])
}
