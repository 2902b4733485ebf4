package cnx

import (
	"iter"

	"github.com/speakeasy-api/openapi/sequencedmap"
)

// Map is an insertion-ordered keyed collection whose keys may be any
// comparable value. It is an instance, not a mapping: the merge engine
// stores it by reference and only the instance serializer looks inside.
type Map struct {
	m *sequencedmap.Map[any, any]
}

// NewMap returns an empty Map.
func NewMap() *Map {
	return &Map{m: sequencedmap.New[any, any]()}
}

// MapOf builds a Map from alternating key/value arguments.
func MapOf(kv ...any) *Map {
	m := NewMap()
	for i := 0; i+1 < len(kv); i += 2 {
		m.Set(kv[i], kv[i+1])
	}
	return m
}

// Set stores v under key. key must be comparable.
func (m *Map) Set(key, v any) *Map {
	if m.m == nil {
		m.m = sequencedmap.New[any, any]()
	}
	m.m.Set(key, v)
	return m
}

func (m *Map) Get(key any) (any, bool) {
	if m == nil || m.m == nil {
		return nil, false
	}
	return m.m.Get(key)
}

func (m *Map) Len() int {
	if m == nil || m.m == nil {
		return 0
	}
	return m.m.Len()
}

// All iterates entries in insertion order.
func (m *Map) All() iter.Seq2[any, any] {
	return func(yield func(any, any) bool) {
		if m == nil || m.m == nil {
			return
		}
		for k, v := range m.m.All() {
			if !yield(k, v) {
				return
			}
		}
	}
}

// Set is an insertion-ordered collection of distinct comparable members.
type Set struct {
	m *sequencedmap.Map[any, struct{}]
}

// NewSet returns a Set holding members, duplicates dropped.
func NewSet(members ...any) *Set {
	s := &Set{m: sequencedmap.New[any, struct{}]()}
	for _, v := range members {
		s.Add(v)
	}
	return s
}

func (s *Set) Add(v any) *Set {
	if s.m == nil {
		s.m = sequencedmap.New[any, struct{}]()
	}
	if _, ok := s.m.Get(v); !ok {
		s.m.Set(v, struct{}{})
	}
	return s
}

func (s *Set) Has(v any) bool {
	if s == nil || s.m == nil {
		return false
	}
	_, ok := s.m.Get(v)
	return ok
}

func (s *Set) Len() int {
	if s == nil || s.m == nil {
		return 0
	}
	return s.m.Len()
}

// All iterates members in insertion order.
func (s *Set) All() iter.Seq[any] {
	return func(yield func(any) bool) {
		if s == nil || s.m == nil {
			return
		}
		for v := range s.m.All() {
			if !yield(v) {
				return
			}
		}
	}
}
