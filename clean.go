package cnx

import (
	"math"
	"math/big"
	"reflect"
)

// Clean returns a copy of v with empty values pruned: nil, Undefined,
// false, "", numeric zero, NaN, and mappings or slices that are empty after
// their own children were cleaned. Values listed in include are kept. An
// empty *Object or map in include keeps empty mappings; an empty slice keeps
// empty slices. The root itself is never removed and v is never mutated.
func Clean[T any](v T, include ...any) T {
	out, ok := std.Clean(v, include...).(T)
	if !ok {
		return v
	}
	return out
}

// Clean is the untyped form of the package-level Clean. Mappings and slices
// come back with the same type as the input.
func (c *Composer) Clean(v any, include ...any) any {
	st := &cleanState{
		c:      c,
		active: make(map[any]any),
	}
	for _, a := range include {
		switch kindOf(a) {
		case KindMapping:
			if mappingLen(a) == 0 {
				st.keepEmptyMapping = true
				continue
			}
		case KindSequence:
			if sequenceLen(a) == 0 {
				st.keepEmptySequence = true
				continue
			}
		}
		st.include = append(st.include, a)
	}

	switch kindOf(v) {
	case KindMapping, KindSequence:
		if Classify(v) == KindSkip {
			return v
		}
		out, _ := st.container(v)
		return out
	}
	return v
}

type cleanState struct {
	c                 *Composer
	include           []any
	keepEmptyMapping  bool
	keepEmptySequence bool

	// active maps containers on the current path to their cleaned output
	// under construction, so cycles are rebuilt as cycles.
	active map[any]any
	depth  int
}

// value cleans v and reports whether it survives.
func (st *cleanState) value(v any) (any, bool) {
	if st.allowed(v) {
		return v, true
	}
	switch Classify(v) {
	case KindSkip:
		return nil, false
	case KindMapping, KindSequence:
		out, n := st.container(v)
		if n > 0 {
			return out, true
		}
		if kindOf(v) == KindMapping {
			return out, st.keepEmptyMapping
		}
		return out, st.keepEmptySequence
	}
	return v, true
}

// container cleans a mapping or slice and returns it with its surviving
// entry count. A container met again on the current path resolves to its
// cleaned copy (or, for slices, to itself).
func (st *cleanState) container(v any) (any, int) {
	id, hasID := identity(v)
	if hasID {
		if out, ok := st.active[id]; ok {
			return out, 1
		}
	}
	if st.depth >= st.c.opts.MaxDepth {
		st.c.logger.Warnf("clean depth limit %d reached at %s", st.c.opts.MaxDepth, valueSummary(v, 0))
		return v, 1
	}
	st.depth++
	defer func() { st.depth-- }()
	if hasID {
		defer delete(st.active, id)
	}

	if kindOf(v) == KindMapping {
		return st.mapping(v, id)
	}
	if hasID {
		st.active[id] = v
	}
	return st.sequence(v)
}

func (st *cleanState) mapping(v, id any) (any, int) {
	if o, ok := v.(*Object); ok {
		out := NewObject()
		if id != nil {
			st.active[id] = out
		}
		for k, e := range o.Entries() {
			if ce, keep := st.value(e); keep {
				out.setKey(k, ce)
			}
		}
		return out, out.Len()
	}
	if m, ok := v.(map[string]any); ok {
		out := make(map[string]any, len(m))
		if id != nil {
			st.active[id] = out
		}
		for k, e := range m {
			if ce, keep := st.value(e); keep {
				out[k] = ce
			}
		}
		return out, len(out)
	}

	rv := reflect.ValueOf(v)
	elem := rv.Type().Elem()
	out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
	if id != nil {
		st.active[id] = out.Interface()
	}
	iter := rv.MapRange()
	for iter.Next() {
		ce, keep := st.value(iter.Value().Interface())
		if !keep {
			continue
		}
		out.SetMapIndex(iter.Key(), cleanedElem(ce, iter.Value(), elem))
	}
	return out.Interface(), out.Len()
}

// cleanedElem converts a cleaned child back to the element type of its
// typed container, keeping the original element when the shapes differ.
func cleanedElem(ce any, orig reflect.Value, elem reflect.Type) reflect.Value {
	cv := reflect.ValueOf(ce)
	if !cv.IsValid() {
		return reflect.Zero(elem)
	}
	if !cv.Type().AssignableTo(elem) {
		return orig
	}
	return cv
}

func (st *cleanState) sequence(v any) (any, int) {
	if s, ok := v.([]any); ok {
		out := make([]any, 0, len(s))
		for _, e := range s {
			if ce, keep := st.value(e); keep {
				out = append(out, ce)
			}
		}
		return out, len(out)
	}

	rv := reflect.ValueOf(v)
	elem := rv.Type().Elem()
	out := reflect.MakeSlice(reflect.SliceOf(elem), 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		ce, keep := st.value(rv.Index(i).Interface())
		if !keep {
			continue
		}
		out = reflect.Append(out, cleanedElem(ce, rv.Index(i), elem))
	}
	return out.Interface(), out.Len()
}

func (st *cleanState) allowed(v any) bool {
	for _, a := range st.include {
		if allowMatch(a, v) {
			return true
		}
	}
	return false
}

// allowMatch compares an allow-list entry with a candidate. Numbers match by
// value across kinds; everything else must be a comparable, identical value.
func allowMatch(a, v any) bool {
	if af, ok := toFloat(a); ok {
		vf, ok := toFloat(v)
		if !ok {
			return false
		}
		if math.IsNaN(af) {
			return math.IsNaN(vf)
		}
		if ai, ok := a.(*big.Int); ok {
			if vi, ok := v.(*big.Int); ok {
				return ai.Cmp(vi) == 0
			}
		}
		return af == vf
	}
	ta, tv := reflect.TypeOf(a), reflect.TypeOf(v)
	if ta != tv {
		return false
	}
	if ta == nil {
		return true
	}
	if !ta.Comparable() {
		return false
	}
	return a == v
}
