package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/mesh-intelligence/settee/pkg/attr"
)

// Document is the raw record a Store persists. Type is the discriminator
// used to materialize the document as the right entity schema.
type Document struct {
	ID         string         `json:"_id"`
	Rev        string         `json:"_rev,omitempty"`
	Type       string         `json:"type"`
	Attributes map[string]any `json:"attributes"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	cp := *d
	if d.Attributes != nil {
		cp.Attributes = attr.Clone(d.Attributes).(map[string]any)
	}
	return &cp
}

// Matches reports whether the document's attributes equal every filter
// value. A nil filter value matches an absent or null attribute.
func (d *Document) Matches(filter map[string]any) bool {
	for k, want := range filter {
		got, ok := d.Attributes[k]
		if want == nil {
			if ok && got != nil {
				return false
			}
			continue
		}
		if !ok || !attr.Equal(got, want) {
			return false
		}
	}
	return true
}

var filterKeyPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidateFilter checks that every key is a plain identifier and every
// value is a scalar. Stores call it before translating a filter.
func ValidateFilter(filter map[string]any) error {
	for k, v := range filter {
		if !filterKeyPattern.MatchString(k) {
			return ErrInvalidFilter
		}
		switch v.(type) {
		case nil, bool, string,
			int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64,
			float32, float64:
		default:
			return ErrInvalidFilter
		}
	}
	return nil
}

// DecodeAttributes parses a JSON object of attributes without losing integer
// precision: integral numbers decode as int64, or uint64 above the int64
// range, and every other number as float64.
func DecodeAttributes(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var attrs map[string]any
	if err := dec.Decode(&attrs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	if attrs == nil {
		return map[string]any{}, nil
	}
	return NormalizeNumbers(attrs).(map[string]any), nil
}

// NormalizeNumbers replaces every json.Number reachable from v, in place,
// with the int64, uint64 or float64 it denotes.
func NormalizeNumbers(v any) any {
	switch x := v.(type) {
	case json.Number:
		return numberValue(x)
	case []any:
		for i, e := range x {
			x[i] = NormalizeNumbers(e)
		}
	case map[string]any:
		for k, e := range x {
			x[k] = NormalizeNumbers(e)
		}
	}
	return v
}

func numberValue(n json.Number) any {
	if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
		return i
	}
	if u, err := strconv.ParseUint(n.String(), 10, 64); err == nil {
		return u
	}
	f, _ := strconv.ParseFloat(n.String(), 64)
	return f
}
