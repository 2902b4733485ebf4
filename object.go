package cnx

import (
	"iter"
	"reflect"
	"sort"

	"github.com/speakeasy-api/openapi/sequencedmap"
)

// Object is an insertion-ordered mapping with two key-spaces: string keys
// and *Symbol keys. Symbol keys are never stringified, so a symbol and a
// string with the same description never collide.
//
// The zero value is an empty object ready to use.
type Object struct {
	keys *sequencedmap.Map[string, any]
	syms *sequencedmap.Map[*Symbol, any]
}

// NewObject returns an empty object.
func NewObject() *Object {
	return &Object{}
}

// ObjectOf builds an object from alternating key/value arguments. Keys must
// be strings or *Symbol; pairs with other key types are ignored.
func ObjectOf(kv ...any) *Object {
	o := NewObject()
	for i := 0; i+1 < len(kv); i += 2 {
		o.setKey(kv[i], kv[i+1])
	}
	return o
}

// Set assigns a string-keyed entry. An existing key keeps its position.
func (o *Object) Set(key string, v any) *Object {
	if o.keys == nil {
		o.keys = sequencedmap.New[string, any]()
	}
	o.keys.Set(key, v)
	return o
}

// SetSymbol assigns a symbol-keyed entry.
func (o *Object) SetSymbol(key *Symbol, v any) *Object {
	if o.syms == nil {
		o.syms = sequencedmap.New[*Symbol, any]()
	}
	o.syms.Set(key, v)
	return o
}

// Get returns the value stored under a string key.
func (o *Object) Get(key string) (any, bool) {
	if o == nil || o.keys == nil {
		return nil, false
	}
	return o.keys.Get(key)
}

// GetSymbol returns the value stored under a symbol key.
func (o *Object) GetSymbol(key *Symbol) (any, bool) {
	if o == nil || o.syms == nil {
		return nil, false
	}
	return o.syms.Get(key)
}

// Len returns the number of entries across both key-spaces.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	n := 0
	if o.keys != nil {
		n += o.keys.Len()
	}
	if o.syms != nil {
		n += o.syms.Len()
	}
	return n
}

// Keys returns the string keys in insertion order.
func (o *Object) Keys() []string {
	if o == nil || o.keys == nil {
		return nil
	}
	keys := make([]string, 0, o.keys.Len())
	for k := range o.keys.All() {
		keys = append(keys, k)
	}
	return keys
}

// Symbols returns the symbol keys in insertion order.
func (o *Object) Symbols() []*Symbol {
	if o == nil || o.syms == nil {
		return nil
	}
	syms := make([]*Symbol, 0, o.syms.Len())
	for k := range o.syms.All() {
		syms = append(syms, k)
	}
	return syms
}

// All iterates the string-keyed entries in insertion order.
func (o *Object) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		if o == nil || o.keys == nil {
			return
		}
		for k, v := range o.keys.All() {
			if !yield(k, v) {
				return
			}
		}
	}
}

// Entries iterates every entry: string keys first, then symbol keys, each in
// insertion order. Keys are either string or *Symbol.
func (o *Object) Entries() iter.Seq2[any, any] {
	return func(yield func(any, any) bool) {
		if o == nil {
			return
		}
		if o.keys != nil {
			for k, v := range o.keys.All() {
				if !yield(k, v) {
					return
				}
			}
		}
		if o.syms != nil {
			for k, v := range o.syms.All() {
				if !yield(k, v) {
					return
				}
			}
		}
	}
}

// Clone returns a shallow copy.
func (o *Object) Clone() *Object {
	out := NewObject()
	for k, v := range o.Entries() {
		out.setKey(k, v)
	}
	return out
}

func (o *Object) setKey(key, v any) {
	switch k := key.(type) {
	case string:
		o.Set(k, v)
	case *Symbol:
		if k != nil {
			o.SetSymbol(k, v)
		}
	}
}

func (o *Object) getKey(key any) (any, bool) {
	switch k := key.(type) {
	case string:
		return o.Get(k)
	case *Symbol:
		return o.GetSymbol(k)
	}
	return nil, false
}

// entries iterates any mapping-kind value. Native Go maps have no order, so
// their keys are visited sorted.
func entries(m any) iter.Seq2[any, any] {
	switch t := m.(type) {
	case *Object:
		return t.Entries()
	case map[string]any:
		return func(yield func(any, any) bool) {
			keys := make([]string, 0, len(t))
			for k := range t {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				if !yield(k, t[k]) {
					return
				}
			}
		}
	}
	rv := reflect.ValueOf(m)
	return func(yield func(any, any) bool) {
		if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
			return
		}
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		for _, k := range keys {
			if !yield(k.String(), rv.MapIndex(k).Interface()) {
				return
			}
		}
	}
}

func mappingLen(m any) int {
	switch t := m.(type) {
	case *Object:
		return t.Len()
	case map[string]any:
		return len(t)
	}
	rv := reflect.ValueOf(m)
	if rv.Kind() == reflect.Map {
		return rv.Len()
	}
	return 0
}

// elements iterates any sequence-kind value.
func elements(s any) iter.Seq[any] {
	if t, ok := s.([]any); ok {
		return func(yield func(any) bool) {
			for _, v := range t {
				if !yield(v) {
					return
				}
			}
		}
	}
	rv := reflect.ValueOf(s)
	return func(yield func(any) bool) {
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return
		}
		for i := 0; i < rv.Len(); i++ {
			if !yield(rv.Index(i).Interface()) {
				return
			}
		}
	}
}

func sequenceLen(s any) int {
	if t, ok := s.([]any); ok {
		return len(t)
	}
	rv := reflect.ValueOf(s)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		return rv.Len()
	}
	return 0
}

type mapID uintptr

type seqID struct {
	ptr uintptr
	len int
}

// identity returns a comparable token for reference-like containers so that
// traversals can detect re-entry. Arrays and empty slices have no identity.
func identity(v any) (any, bool) {
	switch t := v.(type) {
	case *Object:
		return t, true
	case *Map:
		return t, true
	case *Set:
		return t, true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.IsNil() {
			return nil, false
		}
		return mapID(rv.Pointer()), true
	case reflect.Slice:
		if rv.Len() == 0 {
			return nil, false
		}
		return seqID{ptr: rv.Pointer(), len: rv.Len()}, true
	}
	return nil, false
}
