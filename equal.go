package cnx

import (
	"math"
	"math/big"
	"reflect"
	"time"
)

// Equal reports deep structural equality, ignoring key order. Numbers
// compare by value across Go kinds and NaN equals NaN. Cyclic structures
// are compared coinductively.
func (o *Object) Equal(other *Object) bool {
	if o == nil || other == nil {
		return o == other
	}
	return deepEqual(o, other)
}

// Equal reports deep equality of two Maps with the same key set.
func (m *Map) Equal(other *Map) bool {
	if m == nil || other == nil {
		return m == other
	}
	return deepEqual(m, other)
}

// Equal reports whether both sets hold the same members.
func (s *Set) Equal(other *Set) bool {
	if s == nil || other == nil {
		return s == other
	}
	return deepEqual(s, other)
}

// DeepEqual reports whether a and b are structurally equal under the same
// rules as Object.Equal.
func DeepEqual(a, b any) bool {
	return deepEqual(a, b)
}

func deepEqual(a, b any) bool {
	return (&equalState{seen: make(map[[2]any]bool)}).equal(a, b)
}

type equalState struct {
	seen map[[2]any]bool
}

func (e *equalState) equal(a, b any) bool {
	if af, ok := toFloat(a); ok {
		bf, ok := toFloat(b)
		if !ok {
			return false
		}
		if math.IsNaN(af) && math.IsNaN(bf) {
			return true
		}
		if ai, ok := a.(*big.Int); ok {
			if bi, ok := b.(*big.Int); ok {
				return ai.Cmp(bi) == 0
			}
		}
		return af == bf
	}

	ka, kb := kindOf(a), kindOf(b)
	if ka != kb {
		return false
	}

	switch ka {
	case KindMapping:
		if !e.visit(a, b) {
			return true
		}
		if mappingLen(a) != mappingLen(b) {
			return false
		}
		for k, av := range entries(a) {
			bv, ok := lookup(b, k)
			if !ok || !e.equal(av, bv) {
				return false
			}
		}
		return true
	case KindSequence:
		if !e.visit(a, b) {
			return true
		}
		if sequenceLen(a) != sequenceLen(b) {
			return false
		}
		bs := make([]any, 0, sequenceLen(b))
		for v := range elements(b) {
			bs = append(bs, v)
		}
		i := 0
		for v := range elements(a) {
			if !e.equal(v, bs[i]) {
				return false
			}
			i++
		}
		return true
	case KindThunk:
		return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
	}

	switch at := a.(type) {
	case time.Time, *time.Time:
		x, okA := asTime(at)
		y, okB := asTime(b)
		if !okA || !okB {
			return okA == okB
		}
		return x.Equal(y)
	case *Map:
		bm, ok := b.(*Map)
		if !ok || at.Len() != bm.Len() {
			return false
		}
		if !e.visit(a, b) {
			return true
		}
		for k, av := range at.All() {
			bv, ok := bm.Get(k)
			if !ok || !e.equal(av, bv) {
				return false
			}
		}
		return true
	case *Set:
		bs, ok := b.(*Set)
		if !ok || at.Len() != bs.Len() {
			return false
		}
		for v := range at.All() {
			if !bs.Has(v) {
				return false
			}
		}
		return true
	}

	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta == nil || ta.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

// visit records the pair (a, b) and reports whether it is new. A pair seen
// before is assumed equal, which terminates cyclic comparisons.
func (e *equalState) visit(a, b any) bool {
	ia, okA := identity(a)
	ib, okB := identity(b)
	if !okA || !okB {
		return true
	}
	key := [2]any{ia, ib}
	if e.seen[key] {
		return false
	}
	e.seen[key] = true
	return true
}

// kindOf classifies for equality purposes: unlike Classify, falsy values
// keep their structural kind.
func kindOf(v any) Kind {
	switch v.(type) {
	case *Object, map[string]any:
		return KindMapping
	case []any:
		return KindSequence
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			return KindMapping
		}
	case reflect.Slice:
		if rv.Type() != bytesType {
			return KindSequence
		}
	case reflect.Array:
		return KindSequence
	case reflect.Func:
		if !rv.IsNil() && rv.Type().NumOut() > 0 {
			return KindThunk
		}
	}
	return KindPrimitive
}

func lookup(m any, key any) (any, bool) {
	switch t := m.(type) {
	case *Object:
		return t.getKey(key)
	case map[string]any:
		k, ok := key.(string)
		if !ok {
			return nil, false
		}
		v, ok := t[k]
		return v, ok
	}
	k, ok := key.(string)
	rv := reflect.ValueOf(m)
	if !ok || rv.Kind() != reflect.Map {
		return nil, false
	}
	v := rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key()))
	if !v.IsValid() {
		return nil, false
	}
	return v.Interface(), true
}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t != nil {
			return *t, true
		}
	}
	return time.Time{}, false
}

// toFloat converts any Go number to float64. Booleans are not numbers.
func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case float64:
		return t, true
	case *big.Int:
		if t == nil {
			return 0, false
		}
		f, _ := new(big.Float).SetInt(t).Float64()
		return f, true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}
