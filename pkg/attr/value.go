// Package attr implements the attribute value model shared by entities,
// trackers and stores: deep copy and deep structural equality.
//
// Supported logical types are nil, bool, string, every integer and float
// kind, time.Time, ordered sequences and string-keyed mappings nested to
// any depth. Sequences and mappings of other element types are walked with
// reflection, element by element; nothing is ever compared or copied by
// reference.
package attr

import (
	"math"
	"reflect"
	"time"
)

// Clone returns a deep copy of v. The result shares no mutable structure
// with v, so mutating a nested sequence or mapping reachable from one
// never changes the other.
func Clone(v any) any {
	switch x := v.(type) {
	case nil, bool, string, time.Time,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return x
	case []any:
		if x == nil {
			return []any(nil)
		}
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = Clone(e)
		}
		return out
	case []string:
		if x == nil {
			return []string(nil)
		}
		out := make([]string, len(x))
		copy(out, x)
		return out
	case map[string]any:
		if x == nil {
			return map[string]any(nil)
		}
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = Clone(e)
		}
		return out
	case map[string]string:
		if x == nil {
			return map[string]string(nil)
		}
		out := make(map[string]string, len(x))
		for k, e := range x {
			out[k] = e
		}
		return out
	}
	return cloneReflect(reflect.ValueOf(v)).Interface()
}

func cloneReflect(rv reflect.Value) reflect.Value {
	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			return reflect.Zero(rv.Type())
		}
		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out.Index(i).Set(cloneElem(rv.Index(i), rv.Type().Elem()))
		}
		return out
	case reflect.Array:
		out := reflect.New(rv.Type()).Elem()
		for i := 0; i < rv.Len(); i++ {
			out.Index(i).Set(cloneElem(rv.Index(i), rv.Type().Elem()))
		}
		return out
	case reflect.Map:
		if rv.IsNil() {
			return reflect.Zero(rv.Type())
		}
		out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), cloneElem(iter.Value(), rv.Type().Elem()))
		}
		return out
	case reflect.Pointer:
		if rv.IsNil() {
			return reflect.Zero(rv.Type())
		}
		out := reflect.New(rv.Type().Elem())
		out.Elem().Set(cloneElem(rv.Elem(), rv.Type().Elem()))
		return out
	}
	return rv
}

// cloneElem clones an element and converts it back to the container's
// element type, so interface-typed slots keep holding interfaces.
func cloneElem(rv reflect.Value, elemType reflect.Type) reflect.Value {
	if rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return reflect.Zero(elemType)
		}
		rv = rv.Elem()
	}
	c := reflect.ValueOf(Clone(rv.Interface()))
	if !c.IsValid() {
		return reflect.Zero(elemType)
	}
	if c.Type() != elemType && c.Type().ConvertibleTo(elemType) {
		return c.Convert(elemType)
	}
	return c
}

// Equal reports whether a and b are structurally equal. Sequences compare
// element-wise in order, mappings compare key sets and values recursively,
// and numbers compare by value regardless of their Go kind. Integers are
// compared exactly, never through float64.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return isEmptyish(a) && isEmptyish(b)
	}
	if na, ok := toNum(a); ok {
		nb, ok := toNum(b)
		return ok && na.equal(nb)
	}
	switch x := a.(type) {
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case string:
		y, ok := b.(string)
		return ok && x == y
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	}

	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch {
	case isSeq(ra) && isSeq(rb):
		if ra.Len() != rb.Len() {
			return false
		}
		for i := 0; i < ra.Len(); i++ {
			if !Equal(ra.Index(i).Interface(), rb.Index(i).Interface()) {
				return false
			}
		}
		return true
	case isMapping(ra, rb):
		if ra.Len() != rb.Len() {
			return false
		}
		keyType := rb.Type().Key()
		iter := ra.MapRange()
		for iter.Next() {
			key := iter.Key()
			if key.Type() != keyType {
				key = key.Convert(keyType)
			}
			other := rb.MapIndex(key)
			if !other.IsValid() {
				return false
			}
			if !Equal(iter.Value().Interface(), other.Interface()) {
				return false
			}
		}
		return true
	case ra.Kind() == reflect.Pointer && rb.Kind() == reflect.Pointer:
		if ra.IsNil() || rb.IsNil() {
			return ra.IsNil() && rb.IsNil()
		}
		return Equal(ra.Elem().Interface(), rb.Elem().Interface())
	}
	if ra.Type() == rb.Type() && ra.Type().Comparable() {
		return a == b
	}
	return false
}

// isEmptyish treats nil and nil-valued containers alike; an untyped nil is
// only equal to another nil, never to an empty container.
func isEmptyish(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Pointer:
		return rv.IsNil()
	}
	return false
}

func isSeq(rv reflect.Value) bool {
	k := rv.Kind()
	return k == reflect.Slice || k == reflect.Array
}

// isMapping reports whether ra and rb are maps whose keys can be looked up
// in each other: both string-keyed, or keyed by the same kind.
func isMapping(ra, rb reflect.Value) bool {
	if ra.Kind() != reflect.Map || rb.Kind() != reflect.Map {
		return false
	}
	ka, kb := ra.Type().Key(), rb.Type().Key()
	return ka.Kind() == kb.Kind() && ka.ConvertibleTo(kb)
}

// num holds a number without loss. Integers are split by sign so that the
// whole int64 and uint64 ranges fit: neg for negative values, u otherwise.
type num struct {
	float bool
	f     float64
	neg   bool
	i     int64
	u     uint64
}

func toNum(v any) (num, bool) {
	switch n := v.(type) {
	case int:
		return signed(int64(n)), true
	case int8:
		return signed(int64(n)), true
	case int16:
		return signed(int64(n)), true
	case int32:
		return signed(int64(n)), true
	case int64:
		return signed(n), true
	case uint:
		return num{u: uint64(n)}, true
	case uint8:
		return num{u: uint64(n)}, true
	case uint16:
		return num{u: uint64(n)}, true
	case uint32:
		return num{u: uint64(n)}, true
	case uint64:
		return num{u: n}, true
	case float32:
		return num{float: true, f: float64(n)}, true
	case float64:
		return num{float: true, f: n}, true
	}
	return num{}, false
}

func signed(i int64) num {
	if i < 0 {
		return num{neg: true, i: i}
	}
	return num{u: uint64(i)}
}

func (a num) equal(b num) bool {
	switch {
	case a.float && b.float:
		return a.f == b.f
	case a.float:
		return b.equalsFloat(a.f)
	case b.float:
		return a.equalsFloat(b.f)
	case a.neg != b.neg:
		return false
	case a.neg:
		return a.i == b.i
	}
	return a.u == b.u
}

// equalsFloat compares an integer with f. Only integral floats inside the
// integer's range can be equal to it.
func (a num) equalsFloat(f float64) bool {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return false
	}
	if a.neg {
		return f < 0 && f >= math.MinInt64 && int64(f) == a.i
	}
	return f >= 0 && f < math.MaxUint64 && uint64(f) == a.u
}
