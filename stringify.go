package cnx

import (
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/itchyny/timefmt-go"
)

// Mode selects what a Serializer extracts from mappings and instances.
type Mode uint8

const (
	// ModeClass emits the keys of truthy mapping entries (class-name lists).
	ModeClass Mode = iota
	// ModeRecursive emits "key: value" pairs, joining nested keys with ".".
	ModeRecursive
	// ModeInstance renders time.Time, *Map and *Set contents.
	ModeInstance
)

// Serializer folds values into a single separator-joined string.
type Serializer struct {
	c    *Composer
	mode Mode
	sep  string
}

// Serializer returns a serializer in the given mode joining with one space.
func (c *Composer) Serializer(mode Mode) Serializer {
	return Serializer{c: c, mode: mode, sep: " "}
}

// WithSeparator returns a copy joining tokens with Separator(sep).
func (s Serializer) WithSeparator(sep any) Serializer {
	s.sep = Separator(sep)
	return s
}

// String serializes inputs left to right.
func (s Serializer) String(inputs ...any) string {
	w := &stringWriter{s: s, active: make(map[any]bool)}
	for _, in := range inputs {
		w.walk("", in)
	}
	return strings.Join(w.tokens, s.sep)
}

// Raw interleaves template segments with the serialized values, then
// collapses whitespace runs to single spaces.
func (s Serializer) Raw(segments []string, values ...any) string {
	var b strings.Builder
	for i, seg := range segments {
		b.WriteString(seg)
		if i < len(values) {
			b.WriteString(s.String(values[i]))
		}
	}
	for i := len(segments); i < len(values); i++ {
		b.WriteByte(' ')
		b.WriteString(s.String(values[i]))
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Trim serializes input and collapses every whitespace run to the
// separator, one space by default.
func (s Serializer) Trim(input any, separator ...any) string {
	sep := " "
	if len(separator) > 0 {
		sep = Separator(separator[0])
	}
	return strings.Join(strings.Fields(s.String(input)), sep)
}

// ClassNames joins the class names found in inputs with single spaces:
// strings and non-zero numbers contribute themselves, mappings the keys of
// their truthy entries, slices are flattened and thunks invoked.
func ClassNames(inputs ...any) string {
	return std.Serializer(ModeClass).String(inputs...)
}

// String is the general-purpose alias of ClassNames.
func String(inputs ...any) string {
	return ClassNames(inputs...)
}

// Recursive serializes mapping entries as "key: value" pairs, with nested
// keys joined by ".".
func Recursive(inputs ...any) string {
	return std.Serializer(ModeRecursive).String(inputs...)
}

// StringRecursive is the string-family alias of Recursive.
func StringRecursive(inputs ...any) string {
	return Recursive(inputs...)
}

// Instance serializes like ClassNames but also renders dates as ISO-8601,
// Map entries as "key: value" and the truthy members of a Set.
func Instance(inputs ...any) string {
	return std.Serializer(ModeInstance).String(inputs...)
}

// StringInstanceOf is the string-family alias of Instance.
func StringInstanceOf(inputs ...any) string {
	return Instance(inputs...)
}

// Raw is the tagged-template form of ClassNames: segments[i] is followed by
// the serialized values[i].
func Raw(segments []string, values ...any) string {
	return std.Serializer(ModeClass).Raw(segments, values...)
}

// Join serializes like ClassNames, joining tokens with Separator(sep).
func Join(sep any, inputs ...any) string {
	return std.Serializer(ModeClass).WithSeparator(sep).String(inputs...)
}

// Trim serializes input and collapses whitespace runs to the separator.
func Trim(input any, separator ...any) string {
	return std.Serializer(ModeClass).Trim(input, separator...)
}

// Separator maps a separator argument to the string used between tokens.
// Strings are used as given; nil and numbers <= 0 give ""; Undefined, true,
// positive numbers and anything else give " ".
func Separator(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if v == nil {
		return ""
	}
	if f, ok := toFloat(v); ok && f <= 0 {
		return ""
	}
	return " "
}

type stringWriter struct {
	s      Serializer
	tokens []string
	active map[any]bool
	depth  int
}

func (w *stringWriter) emit(prefix, tok string) {
	if tok == "" {
		return
	}
	if prefix != "" {
		tok = prefix + ": " + tok
	}
	w.tokens = append(w.tokens, tok)
}

func (w *stringWriter) enter(v any) bool {
	if w.depth >= w.s.c.opts.MaxDepth {
		w.s.c.logger.Warnf("serialize depth limit %d reached at %s", w.s.c.opts.MaxDepth, valueSummary(v, 0))
		return false
	}
	if id, ok := identity(v); ok {
		if w.active[id] {
			return false
		}
		w.active[id] = true
	}
	w.depth++
	return true
}

func (w *stringWriter) leave(v any) {
	w.depth--
	if id, ok := identity(v); ok {
		delete(w.active, id)
	}
}

func (w *stringWriter) walk(prefix string, v any) {
	if Classify(v) == KindThunk {
		v = w.s.c.resolve(v, strings.Join(w.tokens, w.s.sep))
	}
	switch Classify(v) {
	case KindPrimitive:
		if prefix != "" {
			if b, ok := v.(bool); ok && b {
				w.emit(prefix, "true")
				return
			}
		}
		w.emit(prefix, primitiveString(v))
	case KindSequence:
		if !w.enter(v) {
			return
		}
		for e := range elements(v) {
			w.walk(prefix, e)
		}
		w.leave(v)
	case KindMapping:
		if !w.enter(v) {
			return
		}
		w.mapping(prefix, v)
		w.leave(v)
	case KindInstance:
		if w.s.mode == ModeClass {
			return
		}
		if !w.enter(v) {
			return
		}
		w.instance(prefix, v)
		w.leave(v)
	}
}

func (w *stringWriter) mapping(prefix string, v any) {
	if w.s.mode != ModeRecursive {
		for k, e := range entries(v) {
			if name, ok := k.(string); ok && Truthy(e) {
				w.emit("", name)
			}
		}
		return
	}
	for k, e := range entries(v) {
		if Truthy(e) {
			w.walk(joinPath(prefix, keyString(k)), e)
		}
	}
}

func (w *stringWriter) instance(prefix string, v any) {
	switch t := v.(type) {
	case time.Time:
		w.emit(prefix, isoString(t))
	case *time.Time:
		w.emit(prefix, isoString(*t))
	case *Map:
		for k, e := range t.All() {
			if !Truthy(e) {
				continue
			}
			if w.s.mode == ModeRecursive {
				w.walk(joinPath(prefix, keyString(k)), e)
				continue
			}
			sub := w.sub(e)
			if sub != "" {
				w.emit(prefix, keyString(k)+": "+sub)
			}
		}
	case *Set:
		for m := range t.All() {
			if Truthy(m) {
				w.walk(prefix, m)
			}
		}
	}
}

// sub serializes v on its own, sharing the cycle table of w.
func (w *stringWriter) sub(v any) string {
	inner := &stringWriter{s: w.s, active: w.active, depth: w.depth}
	inner.walk("", v)
	return strings.Join(inner.tokens, " ")
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// keyString renders a key of an Object or Map.
func keyString(k any) string {
	switch t := k.(type) {
	case string:
		return t
	case *Symbol:
		return t.String()
	}
	if s := primitiveString(k); s != "" {
		return s
	}
	return fmt.Sprint(k)
}

// primitiveString renders strings and numbers. Booleans, symbols and
// unrecognized values render as "".
func primitiveString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool, *Symbol:
		return ""
	case *big.Int:
		return t.String()
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return formatFloat(t)
	case []byte:
		return string(t)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 32)
	case reflect.Float64:
		return formatFloat(rv.Float())
	}
	return ""
}

// formatFloat renders a float the way JavaScript's String(number) does for
// the common range.
func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	if abs := math.Abs(f); abs != 0 && (abs >= 1e21 || abs < 1e-6) {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		// Go writes e+06 / e-07; JavaScript drops the leading zero.
		s = strings.Replace(s, "e+0", "e+", 1)
		return strings.Replace(s, "e-0", "e-", 1)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// isoString formats t as an ISO-8601 UTC timestamp with milliseconds, the
// same shape as JavaScript's Date.prototype.toISOString.
func isoString(t time.Time) string {
	t = t.UTC()
	return timefmt.Format(t, "%Y-%m-%dT%H:%M:%S") + fmt.Sprintf(".%03dZ", t.Nanosecond()/int(time.Millisecond))
}
