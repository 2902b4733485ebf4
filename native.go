package cnx

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"time"
)

// FromNative converts native Go trees (map[string]any, []any, as produced by
// encoding/json or YAML decoders) into *Object trees. Map keys are sorted
// since Go maps carry no order. Other values are returned as they are.
func FromNative(v any) any {
	switch kindOf(v) {
	case KindMapping:
		if _, ok := v.(*Object); ok {
			return v
		}
		o := NewObject()
		for k, e := range entries(v) {
			o.setKey(k, FromNative(e))
		}
		return o
	case KindSequence:
		if sequenceLen(v) == 0 && reflect.ValueOf(v).Kind() == reflect.Slice && reflect.ValueOf(v).IsNil() {
			return v
		}
		out := make([]any, 0, sequenceLen(v))
		for e := range elements(v) {
			out = append(out, FromNative(e))
		}
		return out
	}
	return v
}

// ToNative converts v into plain Go values: *Object becomes map[string]any
// (symbol keys dropped), *Map a map keyed by the rendered key, *Set a slice,
// Undefined nil. Cyclic references are cut off with nil.
func ToNative(v any) any {
	return toNative(v, make(map[any]bool))
}

func toNative(v any, active map[any]bool) any {
	if v == Undefined {
		return nil
	}
	if id, ok := identity(v); ok {
		if active[id] {
			return nil
		}
		active[id] = true
		defer delete(active, id)
	}
	switch t := v.(type) {
	case *Object:
		if t == nil {
			return nil
		}
		out := make(map[string]any, t.Len())
		for k, e := range t.All() {
			out[k] = toNative(e, active)
		}
		return out
	case *Map:
		out := make(map[string]any, t.Len())
		for k, e := range t.All() {
			out[keyString(k)] = toNative(e, active)
		}
		return out
	case *Set:
		out := make([]any, 0, t.Len())
		for m := range t.All() {
			out = append(out, toNative(m, active))
		}
		return out
	}
	switch kindOf(v) {
	case KindMapping:
		out := make(map[string]any, mappingLen(v))
		for k, e := range entries(v) {
			out[k.(string)] = toNative(e, active)
		}
		return out
	case KindSequence:
		if _, isBytes := v.([]byte); isBytes {
			return v
		}
		out := make([]any, 0, sequenceLen(v))
		for e := range elements(v) {
			out = append(out, toNative(e, active))
		}
		return out
	}
	return v
}

// ErrCycle is returned when encoding a value that contains itself.
var ErrCycle = errors.New("cnx: cyclic structure cannot be encoded")

// MarshalJSON encodes the string-keyed entries in insertion order. Entries
// holding Undefined, symbols or thunks are omitted and NaN/Inf become null,
// as JSON.stringify does.
func (o *Object) MarshalJSON() ([]byte, error) {
	enc := &jsonEncoder{active: make(map[any]bool)}
	if err := enc.encode(o); err != nil {
		return nil, err
	}
	return enc.buf.Bytes(), nil
}

type jsonEncoder struct {
	buf    bytes.Buffer
	active map[any]bool
}

func omitInJSON(v any) bool {
	if v == Undefined {
		return true
	}
	switch v.(type) {
	case *Symbol:
		return true
	}
	return kindOf(v) == KindThunk
}

func (e *jsonEncoder) encode(v any) error {
	if id, ok := identity(v); ok {
		if e.active[id] {
			return ErrCycle
		}
		e.active[id] = true
		defer delete(e.active, id)
	}

	switch t := v.(type) {
	case nil:
		e.buf.WriteString("null")
		return nil
	case *Object:
		if t == nil {
			e.buf.WriteString("null")
			return nil
		}
		e.buf.WriteByte('{')
		first := true
		for k, val := range t.All() {
			if omitInJSON(val) {
				continue
			}
			if !first {
				e.buf.WriteByte(',')
			}
			first = false
			kb, _ := json.Marshal(k)
			e.buf.Write(kb)
			e.buf.WriteByte(':')
			if err := e.encode(val); err != nil {
				return err
			}
		}
		e.buf.WriteByte('}')
		return nil
	case *Map, *Set:
		e.buf.WriteString("{}")
		return nil
	case time.Time:
		e.buf.WriteString(`"` + isoString(t) + `"`)
		return nil
	case *time.Time:
		if t == nil {
			e.buf.WriteString("null")
			return nil
		}
		e.buf.WriteString(`"` + isoString(*t) + `"`)
		return nil
	case *big.Int:
		// JSON.stringify refuses BigInt; emit the digits as a string.
		kb, _ := json.Marshal(t.String())
		e.buf.Write(kb)
		return nil
	case bool:
		if t {
			e.buf.WriteString("true")
		} else {
			e.buf.WriteString("false")
		}
		return nil
	}

	if f, ok := toFloat(v); ok {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			e.buf.WriteString("null")
			return nil
		}
		e.buf.WriteString(primitiveString(v))
		return nil
	}
	if omitInJSON(v) {
		e.buf.WriteString("null")
		return nil
	}

	switch kindOf(v) {
	case KindMapping:
		e.buf.WriteByte('{')
		first := true
		for k, val := range entries(v) {
			if omitInJSON(val) {
				continue
			}
			if !first {
				e.buf.WriteByte(',')
			}
			first = false
			kb, _ := json.Marshal(k)
			e.buf.Write(kb)
			e.buf.WriteByte(':')
			if err := e.encode(val); err != nil {
				return err
			}
		}
		e.buf.WriteByte('}')
		return nil
	case KindSequence:
		if _, isBytes := v.([]byte); !isBytes {
			e.buf.WriteByte('[')
			i := 0
			for val := range elements(v) {
				if i > 0 {
					e.buf.WriteByte(',')
				}
				i++
				if omitInJSON(val) {
					e.buf.WriteString("null")
					continue
				}
				if err := e.encode(val); err != nil {
					return err
				}
			}
			e.buf.WriteByte(']')
			return nil
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %T: %w", v, err)
	}
	e.buf.Write(b)
	return nil
}
