package playground

import (
	"fmt"
	"math"
	"math/big"
	"strings"
	"time"

	"github.com/speakeasy-api/cnx"
	"gopkg.in/yaml.v3"
)

// Op names an operation a playground document can request.
type Op string

const (
	OpObject    Op = "object"
	OpRaw       Op = "raw"
	OpPreserve  Op = "preserve"
	OpClean     Op = "clean"
	OpClass     Op = "class"
	OpRecursive Op = "recursive"
	OpInstance  Op = "instance"
	OpJoin      Op = "join"
	OpTrim      Op = "trim"
	OpTemplate  Op = "template"
	OpVariant   Op = "variant"
	OpCVX       Op = "cvx"
)

var knownOps = map[Op]bool{
	OpObject: true, OpRaw: true, OpPreserve: true, OpClean: true,
	OpClass: true, OpRecursive: true, OpInstance: true, OpJoin: true,
	OpTrim: true, OpTemplate: true, OpVariant: true, OpCVX: true,
}

// Request is a decoded playground document.
type Request struct {
	Op        Op
	Inputs    []any
	Include   []any
	Separator any
	Segments  []string
	Config    cnx.VariantConfig
	Selection []map[string]any
	Options   cnx.Options
	Strict    bool
}

// ParseRequest decodes a YAML or JSON playground document.
func ParseRequest(doc string) (*Request, error) {
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(doc), &root); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return nil, fmt.Errorf("document is empty")
	}
	node := root.Content[0]
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: document must be a mapping", node.Line)
	}

	d := newDecoder()
	req := &Request{Op: OpObject, Separator: cnx.Undefined, Options: cnx.DefaultOptions()}
	// Engine warnings are collected by the evaluator, not printed.
	req.Options.LogLevel = ""

	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		var err error
		switch key.Value {
		case "op":
			req.Op = Op(strings.ToLower(strings.TrimSpace(val.Value)))
			if !knownOps[req.Op] {
				err = fmt.Errorf("line %d: unknown op %q", val.Line, val.Value)
			}
		case "inputs":
			req.Inputs, err = d.list(val)
		case "include":
			req.Include, err = d.list(val)
		case "separator":
			req.Separator, err = d.value(val)
		case "segments":
			err = val.Decode(&req.Segments)
		case "config":
			err = val.Decode(&req.Config)
			if err == nil {
				err = req.Config.Validate()
			}
		case "selection":
			req.Selection, err = d.selection(val)
		case "options":
			err = val.Decode(&optionsDoc{&req.Options})
		case "strict":
			err = val.Decode(&req.Strict)
		default:
			err = fmt.Errorf("line %d: unknown field %q", key.Line, key.Value)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key.Value, err)
		}
	}
	return req, nil
}

type optionsDoc struct {
	opts *cnx.Options
}

func (o *optionsDoc) UnmarshalYAML(node *yaml.Node) error {
	var raw struct {
		MaxDepth      int `yaml:"maxDepth"`
		CycleUnroll   int `yaml:"cycleUnroll"`
		MaxThunkDepth int `yaml:"maxThunkDepth"`
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if raw.MaxDepth > 0 {
		o.opts.MaxDepth = raw.MaxDepth
	}
	if raw.CycleUnroll > 0 {
		o.opts.CycleUnroll = raw.CycleUnroll
	}
	if raw.MaxThunkDepth > 0 {
		o.opts.MaxThunkDepth = raw.MaxThunkDepth
	}
	return nil
}

// decoder turns yaml.v3 nodes into cnx values. Symbols are interned by
// description and anchored nodes decode to a single shared value.
type decoder struct {
	symbols map[string]*cnx.Symbol
	anchors map[*yaml.Node]any
}

func newDecoder() *decoder {
	return &decoder{
		symbols: make(map[string]*cnx.Symbol),
		anchors: make(map[*yaml.Node]any),
	}
}

// DecodeValue decodes a single YAML value using the playground tags.
func DecodeValue(doc string) (any, error) {
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(doc), &root); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	if len(root.Content) == 0 {
		return cnx.Undefined, nil
	}
	return newDecoder().value(root.Content[0])
}

func (d *decoder) symbol(desc string) *cnx.Symbol {
	if s, ok := d.symbols[desc]; ok {
		return s
	}
	s := cnx.NewSymbol(desc)
	d.symbols[desc] = s
	return s
}

func (d *decoder) list(n *yaml.Node) ([]any, error) {
	v, err := d.value(n)
	if err != nil {
		return nil, err
	}
	if s, ok := v.([]any); ok && n.ShortTag() == "!!seq" {
		return s, nil
	}
	return []any{v}, nil
}

func (d *decoder) selection(n *yaml.Node) ([]map[string]any, error) {
	items := []*yaml.Node{n}
	if n.Kind == yaml.SequenceNode {
		items = n.Content
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		v, err := d.value(item)
		if err != nil {
			return nil, err
		}
		o, ok := v.(*cnx.Object)
		if !ok {
			return nil, fmt.Errorf("line %d: selection must be a mapping", item.Line)
		}
		sel := make(map[string]any, o.Len())
		for k, v := range o.All() {
			sel[k] = v
		}
		out = append(out, sel)
	}
	return out, nil
}

func (d *decoder) value(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return cnx.Undefined, nil
		}
		return d.value(n.Content[0])
	case yaml.AliasNode:
		if v, ok := d.anchors[n.Alias]; ok {
			return v, nil
		}
		return d.value(n.Alias)
	}

	switch n.Tag {
	case cnx.TagThunk:
		inner := *n
		inner.Tag = ""
		inner.Anchor = ""
		v, err := d.value(&inner)
		if err != nil {
			return nil, err
		}
		return cnx.Thunk(func() any { return v }), nil
	case cnx.TagMap:
		return d.instanceMap(n)
	case cnx.TagSet:
		return d.instanceSet(n)
	}

	switch n.Kind {
	case yaml.MappingNode:
		return d.mapping(n)
	case yaml.SequenceNode:
		out := make([]any, len(n.Content))
		if n.Anchor != "" {
			d.anchors[n] = out
		}
		for i, c := range n.Content {
			v, err := d.value(c)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}
	v, err := d.scalar(n)
	if err == nil && n.Anchor != "" {
		d.anchors[n] = v
	}
	return v, err
}

func (d *decoder) mapping(n *yaml.Node) (*cnx.Object, error) {
	o := cnx.NewObject()
	if n.Anchor != "" {
		d.anchors[n] = o
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		v, err := d.value(val)
		if err != nil {
			return nil, err
		}
		if key.Tag == cnx.TagSymbol {
			o.SetSymbol(d.symbol(key.Value), v)
			continue
		}
		if key.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: mapping keys must be scalars", key.Line)
		}
		o.Set(key.Value, v)
	}
	return o, nil
}

func (d *decoder) instanceMap(n *yaml.Node) (*cnx.Map, error) {
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: %s requires a mapping", n.Line, cnx.TagMap)
	}
	m := cnx.NewMap()
	if n.Anchor != "" {
		d.anchors[n] = m
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, err := d.value(n.Content[i])
		if err != nil {
			return nil, err
		}
		if cnx.Classify(k) == cnx.KindMapping || cnx.Classify(k) == cnx.KindSequence {
			return nil, fmt.Errorf("line %d: %s keys must be scalars", n.Content[i].Line, cnx.TagMap)
		}
		v, err := d.value(n.Content[i+1])
		if err != nil {
			return nil, err
		}
		m.Set(k, v)
	}
	return m, nil
}

func (d *decoder) instanceSet(n *yaml.Node) (*cnx.Set, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: %s requires a sequence", n.Line, cnx.TagSet)
	}
	s := cnx.NewSet()
	if n.Anchor != "" {
		d.anchors[n] = s
	}
	for _, c := range n.Content {
		v, err := d.value(c)
		if err != nil {
			return nil, err
		}
		if cnx.Classify(v) == cnx.KindMapping || cnx.Classify(v) == cnx.KindSequence {
			return nil, fmt.Errorf("line %d: %s members must be scalars", c.Line, cnx.TagSet)
		}
		s.Add(v)
	}
	return s, nil
}

func (d *decoder) scalar(n *yaml.Node) (any, error) {
	switch n.ShortTag() {
	case cnx.TagUndefined:
		return cnx.Undefined, nil
	case cnx.TagSymbol:
		return d.symbol(n.Value), nil
	case cnx.TagDate:
		t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(n.Value))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid date %q: %w", n.Line, n.Value, err)
		}
		return t, nil
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return b, nil
	case "!!int":
		var i int
		if err := n.Decode(&i); err == nil {
			return i, nil
		}
		if b, ok := new(big.Int).SetString(strings.ReplaceAll(n.Value, "_", ""), 0); ok {
			return b, nil
		}
		return nil, fmt.Errorf("line %d: invalid integer %q", n.Line, n.Value)
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			if strings.EqualFold(n.Value, "nan") {
				return math.NaN(), nil
			}
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return f, nil
	case "!!timestamp":
		var t time.Time
		if err := n.Decode(&t); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return t, nil
	case "!!str", "":
		return n.Value, nil
	}
	if strings.HasPrefix(n.Tag, "!") && !strings.HasPrefix(n.Tag, "!!") {
		return nil, fmt.Errorf("line %d: unknown tag %s", n.Line, n.Tag)
	}
	return n.Value, nil
}
