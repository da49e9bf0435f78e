package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentCloneIsDeep(t *testing.T) {
	doc := &Document{ID: "a", Type: "plate", Attributes: map[string]any{
		"veggies": []any{"carrots"},
	}}
	cp := doc.Clone()
	doc.Attributes["veggies"] = append(doc.Attributes["veggies"].([]any), "peas")
	assert.Equal(t, []any{"carrots"}, cp.Attributes["veggies"])

	var nilDoc *Document
	assert.Nil(t, nilDoc.Clone())
}

func TestDocumentMatches(t *testing.T) {
	doc := &Document{Type: "item", Attributes: map[string]any{
		"plate_id": "p1",
		"count":    float64(2),
		"note":     nil,
	}}
	tests := []struct {
		name   string
		filter map[string]any
		want   bool
	}{
		{"empty filter", nil, true},
		{"string match", map[string]any{"plate_id": "p1"}, true},
		{"string mismatch", map[string]any{"plate_id": "p2"}, false},
		{"number across kinds", map[string]any{"count": 2}, true},
		{"nil matches null", map[string]any{"note": nil}, true},
		{"nil matches absent", map[string]any{"missing": nil}, true},
		{"nil rejects present", map[string]any{"plate_id": nil}, false},
		{"absent rejects value", map[string]any{"missing": "x"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, doc.Matches(tt.filter))
		})
	}
}

func TestValidateFilter(t *testing.T) {
	require.NoError(t, ValidateFilter(map[string]any{"plate_id": "p1", "n": 3, "ok": true, "gone": nil}))
	assert.ErrorIs(t, ValidateFilter(map[string]any{"a.b": "x"}), ErrInvalidFilter)
	assert.ErrorIs(t, ValidateFilter(map[string]any{"1abc": "x"}), ErrInvalidFilter)
	assert.ErrorIs(t, ValidateFilter(map[string]any{"x'); DROP": "x"}), ErrInvalidFilter)
	assert.ErrorIs(t, ValidateFilter(map[string]any{"tags": []any{"a"}}), ErrInvalidFilter)
	assert.ErrorIs(t, ValidateFilter(map[string]any{"m": map[string]any{}}), ErrInvalidFilter)
}

func TestDecodeAttributesKeepsIntegers(t *testing.T) {
	attrs, err := DecodeAttributes([]byte(`{
		"big": 9007199254740993,
		"neg": -42,
		"huge": 18446744073709551615,
		"ratio": 1.5,
		"exp": 1e3,
		"nested": {"ids": [9007199254740993, 2.25]},
		"name": "plate"
	}`))
	require.NoError(t, err)
	assert.Equal(t, int64(9007199254740993), attrs["big"])
	assert.Equal(t, int64(-42), attrs["neg"])
	assert.Equal(t, uint64(18446744073709551615), attrs["huge"])
	assert.Equal(t, 1.5, attrs["ratio"])
	assert.Equal(t, float64(1000), attrs["exp"])
	assert.Equal(t, map[string]any{"ids": []any{int64(9007199254740993), 2.25}}, attrs["nested"])
	assert.Equal(t, "plate", attrs["name"])
}

func TestDecodeAttributesErrors(t *testing.T) {
	_, err := DecodeAttributes([]byte(`{"a":`))
	assert.ErrorIs(t, err, ErrInvalidData)

	attrs, err := DecodeAttributes([]byte(`null`))
	require.NoError(t, err)
	assert.Empty(t, attrs)
}
