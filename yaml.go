package cnx

import (
	"math"
	"math/big"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// YAML tags used for values that plain YAML cannot express. The playground
// decoder understands the same tags, so encoded documents round-trip.
const (
	TagUndefined = "!undefined"
	TagSymbol    = "!symbol"
	TagThunk     = "!thunk"
	TagMap       = "!map"
	TagSet       = "!set"
	TagDate      = "!date"
)

// MarshalYAML encodes the object as an ordered mapping node.
func (o *Object) MarshalYAML() (any, error) {
	return NodeOf(o)
}

// NodeOf converts v into a yaml.v3 node tree, keeping insertion order and
// tagging Undefined, symbols, dates, *Map and *Set. Thunks are resolved.
// A container met again inside itself is encoded as an alias of its
// anchored first occurrence.
func NodeOf(v any) (*yaml.Node, error) {
	return (&nodeBuilder{active: make(map[any]*yaml.Node)}).node(v)
}

type nodeBuilder struct {
	active  map[any]*yaml.Node
	anchors int
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

// container returns an empty node of kind and tag, registered under v's
// identity until done is called.
func (b *nodeBuilder) container(v any, kind yaml.Kind, tag string) (n *yaml.Node, done func()) {
	n = &yaml.Node{Kind: kind, Tag: tag}
	id, ok := identity(v)
	if !ok {
		return n, func() {}
	}
	b.active[id] = n
	return n, func() { delete(b.active, id) }
}

func (b *nodeBuilder) node(v any) (*yaml.Node, error) {
	if kindOf(v) == KindThunk {
		v = std.resolve(v, "")
	}
	if id, ok := identity(v); ok {
		if target := b.active[id]; target != nil {
			if target.Anchor == "" {
				b.anchors++
				target.Anchor = "ref" + strconv.Itoa(b.anchors)
			}
			return &yaml.Node{Kind: yaml.AliasNode, Value: target.Anchor, Alias: target}, nil
		}
	}

	switch t := v.(type) {
	case nil:
		return scalar("!!null", "null"), nil
	case undefined:
		return scalar(TagUndefined, ""), nil
	case *Symbol:
		return scalar(TagSymbol, t.Description()), nil
	case bool:
		return scalar("!!bool", strconv.FormatBool(t)), nil
	case string:
		return scalar("!!str", t), nil
	case *big.Int:
		return scalar("!!int", t.String()), nil
	case time.Time:
		return scalar("!!timestamp", t.UTC().Format(time.RFC3339Nano)), nil
	case *time.Time:
		if t == nil {
			return scalar("!!null", "null"), nil
		}
		return scalar("!!timestamp", t.UTC().Format(time.RFC3339Nano)), nil
	case *Object:
		n, done := b.container(t, yaml.MappingNode, "!!map")
		defer done()
		for k, e := range t.Entries() {
			kn, err := b.node(k)
			if err != nil {
				return nil, err
			}
			en, err := b.node(e)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, kn, en)
		}
		return n, nil
	case *Map:
		n, done := b.container(t, yaml.MappingNode, TagMap)
		defer done()
		for k, e := range t.All() {
			kn, err := b.node(k)
			if err != nil {
				return nil, err
			}
			en, err := b.node(e)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, kn, en)
		}
		return n, nil
	case *Set:
		n, done := b.container(t, yaml.SequenceNode, TagSet)
		defer done()
		for m := range t.All() {
			mn, err := b.node(m)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, mn)
		}
		return n, nil
	}

	if f, ok := toFloat(v); ok {
		switch {
		case math.IsNaN(f):
			return scalar("!!float", ".nan"), nil
		case math.IsInf(f, 1):
			return scalar("!!float", ".inf"), nil
		case math.IsInf(f, -1):
			return scalar("!!float", "-.inf"), nil
		}
		if f == math.Trunc(f) && !isFloatKind(v) {
			return scalar("!!int", primitiveString(v)), nil
		}
		return scalar("!!float", primitiveString(v)), nil
	}

	switch kindOf(v) {
	case KindMapping:
		n, done := b.container(v, yaml.MappingNode, "!!map")
		defer done()
		for k, e := range entries(v) {
			en, err := b.node(e)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, scalar("!!str", k.(string)), en)
		}
		return n, nil
	case KindSequence:
		if bs, isBytes := v.([]byte); isBytes {
			return scalar("!!str", string(bs)), nil
		}
		n, done := b.container(v, yaml.SequenceNode, "!!seq")
		defer done()
		for e := range elements(v) {
			en, err := b.node(e)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, en)
		}
		return n, nil
	}

	n := &yaml.Node{}
	if err := n.Encode(v); err != nil {
		return nil, err
	}
	return n, nil
}

func isFloatKind(v any) bool {
	switch v.(type) {
	case float32, float64:
		return true
	}
	return false
}
