// Package cnx composes heterogeneous values into merged objects and
// class-name strings.
//
// Inputs are plain Go values: nil, Undefined, booleans, numbers, strings,
// symbols, *Object mappings (or native map[string]any), slices, thunks
// (zero-argument functions) and the instance types time.Time, *Map and *Set.
// Every engine in this package first classifies a value into a Kind and then
// dispatches on it; see Classify.
package cnx

import (
	"math"
	"math/big"
	"reflect"
	"time"
)

// Kind classifies a value for the merge, clean and serialize engines.
type Kind uint8

const (
	// KindSkip values are treated as absent: nil, Undefined, false, NaN,
	// numeric zero and the empty string.
	KindSkip Kind = iota
	// KindPrimitive covers non-empty strings, non-zero numbers, true,
	// *big.Int and *Symbol values.
	KindPrimitive
	// KindMapping covers *Object and map[string]T values.
	KindMapping
	// KindSequence covers slices and arrays other than []byte.
	KindSequence
	// KindThunk covers functions that are invoked to produce a value.
	KindThunk
	// KindInstance covers time.Time, *Map and *Set.
	KindInstance
)

func (k Kind) String() string {
	switch k {
	case KindSkip:
		return "skip"
	case KindPrimitive:
		return "primitive"
	case KindMapping:
		return "mapping"
	case KindSequence:
		return "sequence"
	case KindThunk:
		return "thunk"
	case KindInstance:
		return "instance"
	default:
		return "unknown"
	}
}

type undefined struct{}

func (undefined) String() string { return "undefined" }

// Undefined marks a value that was never set. Unlike nil it survives
// ObjectRaw as an explicit entry distinct from null.
var Undefined = undefined{}

// Symbol is an identity token usable both as a value and as an Object key.
// Two symbols are equal only if they are the same pointer.
type Symbol struct {
	desc string
}

// NewSymbol returns a fresh symbol with the given description.
func NewSymbol(desc string) *Symbol {
	return &Symbol{desc: desc}
}

// Description returns the description the symbol was created with.
func (s *Symbol) Description() string {
	if s == nil {
		return ""
	}
	return s.desc
}

func (s *Symbol) String() string {
	return "Symbol(" + s.Description() + ")"
}

// Equal reports identity; it lets go-cmp compare symbols.
func (s *Symbol) Equal(other *Symbol) bool {
	return s == other
}

// Thunk is a deferred value. Any func with no parameters and at least one
// result is treated as a thunk as well; a func(string) any receives the
// serializer's accumulated output.
type Thunk func() any

var bytesType = reflect.TypeOf([]byte(nil))

// Classify returns the Kind of v. It has no side effects.
func Classify(v any) Kind {
	switch t := v.(type) {
	case nil, undefined:
		return KindSkip
	case bool:
		if t {
			return KindPrimitive
		}
		return KindSkip
	case string:
		if t == "" {
			return KindSkip
		}
		return KindPrimitive
	case int:
		return numberKind(t == 0)
	case int64:
		return numberKind(t == 0)
	case float64:
		return numberKind(t == 0 || math.IsNaN(t))
	case *big.Int:
		return numberKind(t == nil || t.Sign() == 0)
	case *Symbol:
		if t == nil {
			return KindSkip
		}
		return KindPrimitive
	case *Object:
		if t == nil {
			return KindSkip
		}
		return KindMapping
	case map[string]any:
		if t == nil {
			return KindSkip
		}
		return KindMapping
	case []any:
		return KindSequence
	case Thunk:
		if t == nil {
			return KindSkip
		}
		return KindThunk
	case func() any:
		if t == nil {
			return KindSkip
		}
		return KindThunk
	case func(string) any:
		if t == nil {
			return KindSkip
		}
		return KindThunk
	case time.Time:
		return KindInstance
	case *time.Time:
		if t == nil {
			return KindSkip
		}
		return KindInstance
	case *Map:
		if t == nil {
			return KindSkip
		}
		return KindInstance
	case *Set:
		if t == nil {
			return KindSkip
		}
		return KindInstance
	}
	return classifyReflect(reflect.ValueOf(v))
}

func classifyReflect(rv reflect.Value) Kind {
	switch rv.Kind() {
	case reflect.Bool:
		if rv.Bool() {
			return KindPrimitive
		}
		return KindSkip
	case reflect.String:
		if rv.Len() == 0 {
			return KindSkip
		}
		return KindPrimitive
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return numberKind(rv.Int() == 0)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return numberKind(rv.Uint() == 0)
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return numberKind(f == 0 || math.IsNaN(f))
	case reflect.Slice:
		if rv.Type() == bytesType {
			if rv.Len() == 0 {
				return KindSkip
			}
			return KindPrimitive
		}
		return KindSequence
	case reflect.Array:
		return KindSequence
	case reflect.Map:
		if rv.IsNil() {
			return KindSkip
		}
		if rv.Type().Key().Kind() == reflect.String {
			return KindMapping
		}
		return KindPrimitive
	case reflect.Func:
		if rv.IsNil() {
			return KindSkip
		}
		if rv.Type().NumOut() > 0 {
			return KindThunk
		}
		return KindPrimitive
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return KindSkip
		}
		return KindPrimitive
	case reflect.Invalid:
		return KindSkip
	}
	return KindPrimitive
}

func numberKind(zero bool) Kind {
	if zero {
		return KindSkip
	}
	return KindPrimitive
}

// Truthy reports whether v contributes to a merge or serialization.
func Truthy(v any) bool {
	return Classify(v) != KindSkip
}

// invoke calls a single thunk layer. acc is handed to thunks that accept a
// string parameter and ignored by the rest.
func invoke(v any, acc string) any {
	switch t := v.(type) {
	case Thunk:
		return t()
	case func() any:
		return t()
	case func(string) any:
		return t(acc)
	}
	rv := reflect.ValueOf(v)
	ft := rv.Type()
	args := make([]reflect.Value, ft.NumIn())
	for i := range args {
		in := ft.In(i)
		if ft.IsVariadic() && i == len(args)-1 {
			args = args[:i]
			break
		}
		if i == 0 && in.Kind() == reflect.String {
			args[i] = reflect.ValueOf(acc).Convert(in)
			continue
		}
		args[i] = reflect.Zero(in)
	}
	out := rv.Call(args)
	if len(out) == 0 {
		return nil
	}
	return out[0].Interface()
}
