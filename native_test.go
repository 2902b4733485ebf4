package cnx

import (
	"encoding/json"
	"errors"
	"math"
	"math/big"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

func TestFromNative(t *testing.T) {
	var decoded any
	if err := json.Unmarshal([]byte(`{"b":{"y":1,"x":[{"k":true}]},"a":null}`), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	got, ok := FromNative(decoded).(*Object)
	if !ok {
		t.Fatalf("FromNative returned %T, want *Object", FromNative(decoded))
	}
	if diff := cmp.Diff([]string{"a", "b"}, got.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}
	b, _ := got.Get("b")
	x, _ := b.(*Object).Get("x")
	if _, ok := x.([]any)[0].(*Object); !ok {
		t.Errorf("nested mapping in slice is %T, want *Object", x.([]any)[0])
	}
}

func TestToNative(t *testing.T) {
	o := ObjectOf("a", 1, "u", Undefined, "s", NewSet("x"), "m", MapOf(1, "one"))
	o.SetSymbol(NewSymbol("hidden"), true)
	o.Set("self", o)

	want := map[string]any{
		"a":    1,
		"u":    nil,
		"s":    []any{"x"},
		"m":    map[string]any{"1": "one"},
		"self": nil,
	}
	if diff := cmp.Diff(want, ToNative(o)); diff != "" {
		t.Errorf("ToNative mismatch (-want +got):\n%s", diff)
	}
}

func TestObjectMarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   *Object
		want string
	}{
		{"ordered", ObjectOf("z", 1, "a", "x"), `{"z":1,"a":"x"}`},
		{"nested", ObjectOf("a", ObjectOf("b", []any{1, "two", nil})), `{"a":{"b":[1,"two",null]}}`},
		{"omitted entries", ObjectOf("u", Undefined, "s", NewSymbol("s"), "f", Thunk(func() any { return 1 }), "k", true), `{"k":true}`},
		{"non-finite numbers", ObjectOf("n", math.NaN(), "i", math.Inf(1)), `{"n":null,"i":null}`},
		{"instances", ObjectOf("d", time.Date(2020, 5, 6, 7, 8, 9, 0, time.UTC), "m", NewMap()), `{"d":"2020-05-06T07:08:09.000Z","m":{}}`},
		{"bigint", ObjectOf("b", big.NewInt(42)), `{"b":"42"}`},
		{"symbol keys dropped", NewObject().SetSymbol(NewSymbol("x"), 1), `{}`},
		{"undefined in slice", ObjectOf("a", []any{Undefined}), `{"a":[null]}`},
		{"native map", ObjectOf("m", map[string]any{"b": 2, "a": 1}), `{"m":{"a":1,"b":2}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.in)
			if err != nil {
				t.Fatalf("Marshal failed: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Marshal() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestObjectMarshalJSONCycle(t *testing.T) {
	o := ObjectOf("a", 1)
	o.Set("self", o)

	_, err := o.MarshalJSON()
	if !errors.Is(err, ErrCycle) {
		t.Errorf("MarshalJSON() error = %v, want ErrCycle", err)
	}
}

func TestObjectMarshalYAML(t *testing.T) {
	o := ObjectOf(
		"name", "btn",
		"size", 2,
		"ratio", 0.5,
		"enabled", true,
		"none", nil,
		"u", Undefined,
		"tags", []any{"a", "b"},
		"set", NewSet("x"),
		"lazy", Thunk(func() any { return "resolved" }),
	)
	o.SetSymbol(NewSymbol("meta"), "m")

	out, err := yaml.Marshal(o)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(out, &doc); err != nil {
		t.Fatalf("Unmarshal failed: %v\n%s", err, out)
	}
	root := doc.Content[0]

	type entry struct{ Key, KeyTag, Value, Tag string }
	var got []entry
	for i := 0; i+1 < len(root.Content); i += 2 {
		k, v := root.Content[i], root.Content[i+1]
		got = append(got, entry{k.Value, k.Tag, v.Value, v.Tag})
	}
	want := []entry{
		{"name", "!!str", "btn", "!!str"},
		{"size", "!!str", "2", "!!int"},
		{"ratio", "!!str", "0.5", "!!float"},
		{"enabled", "!!str", "true", "!!bool"},
		{"none", "!!str", "null", "!!null"},
		{"u", "!!str", "", TagUndefined},
		{"tags", "!!str", "", "!!seq"},
		{"set", "!!str", "", TagSet},
		{"lazy", "!!str", "resolved", "!!str"},
		{"meta", TagSymbol, "m", "!!str"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("encoded document mismatch (-want +got):\n%s", diff)
	}
}

func TestNodeOfCycle(t *testing.T) {
	o := ObjectOf("a", 1)
	o.Set("self", o)

	out, err := yaml.Marshal(o)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(out, &doc); err != nil {
		t.Fatalf("Unmarshal failed: %v\n%s", err, out)
	}
	root := doc.Content[0]
	if root.Anchor == "" {
		t.Fatalf("root mapping has no anchor:\n%s", out)
	}
	self := root.Content[3]
	if self.Kind != yaml.AliasNode || self.Alias != root {
		t.Errorf("self is not an alias of the root:\n%s", out)
	}

	s := make([]any, 2)
	s[0] = "x"
	s[1] = s
	n, err := NodeOf(s)
	if err != nil {
		t.Fatalf("NodeOf failed: %v", err)
	}
	if n.Anchor != "ref1" || n.Content[1].Kind != yaml.AliasNode || n.Content[1].Value != "ref1" {
		t.Errorf("NodeOf(cyclic slice) = anchor %q, element kind %v", n.Anchor, n.Content[1].Kind)
	}
}

func TestNodeOfSharedNotAliased(t *testing.T) {
	shared := ObjectOf("x", 1)
	n, err := NodeOf(ObjectOf("a", shared, "b", shared))
	if err != nil {
		t.Fatalf("NodeOf failed: %v", err)
	}
	for i := 1; i < len(n.Content); i += 2 {
		if n.Content[i].Kind != yaml.MappingNode || n.Content[i].Anchor != "" {
			t.Errorf("entry %d: kind %v anchor %q, want plain mapping", i/2, n.Content[i].Kind, n.Content[i].Anchor)
		}
	}
}
