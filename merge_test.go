package cnx

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestMergeSkipsEmptyInputs tests that Skip values contribute nothing wherever they appear
func TestMergeSkipsEmptyInputs(t *testing.T) {
	base := ObjectOf("a", 1, "b", ObjectOf("c", "x"))
	want := Merge(base)

	skips := []any{nil, Undefined, false, 0, "", math.NaN(), []any{}}
	for _, s := range skips {
		if diff := cmp.Diff(want, Merge(s, base)); diff != "" {
			t.Errorf("Merge(%v, base) mismatch (-want +got):\n%s", s, diff)
		}
		if diff := cmp.Diff(want, Merge(base, s)); diff != "" {
			t.Errorf("Merge(base, %v) mismatch (-want +got):\n%s", s, diff)
		}
	}
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name   string
		inputs []any
		want   *Object
	}{
		{
			name:   "no inputs",
			inputs: nil,
			want:   NewObject(),
		},
		{
			name:   "later wins",
			inputs: []any{ObjectOf("a", 1, "b", 2), ObjectOf("b", 3)},
			want:   ObjectOf("a", 1, "b", 3),
		},
		{
			name:   "nested mappings merge",
			inputs: []any{ObjectOf("a", ObjectOf("b", 1)), ObjectOf("a", ObjectOf("c", 2))},
			want:   ObjectOf("a", ObjectOf("b", 1, "c", 2)),
		},
		{
			name:   "falsy entries dropped",
			inputs: []any{ObjectOf("a", 1, "b", false, "c", nil, "d", Undefined, "e", "")},
			want:   ObjectOf("a", 1),
		},
		{
			name:   "falsy entry does not overwrite",
			inputs: []any{ObjectOf("a", 1), ObjectOf("a", 0)},
			want:   ObjectOf("a", 1),
		},
		{
			name:   "top-level slices flatten",
			inputs: []any{[]any{ObjectOf("a", 1), []any{ObjectOf("b", 2)}}, ObjectOf("c", 3)},
			want:   ObjectOf("a", 1, "b", 2, "c", 3),
		},
		{
			name:   "top-level primitives ignored",
			inputs: []any{"str", 42, true, ObjectOf("a", 1)},
			want:   ObjectOf("a", 1),
		},
		{
			name: "thunks resolved at every level",
			inputs: []any{
				Thunk(func() any { return ObjectOf("a", Thunk(func() any { return ObjectOf("b", 1) })) }),
				func() any { return func() any { return ObjectOf("c", 2) } },
			},
			want: ObjectOf("a", ObjectOf("b", 1), "c", 2),
		},
		{
			name:   "slice of mappings under key folds",
			inputs: []any{ObjectOf("a", []any{ObjectOf("b", 1), nil, ObjectOf("c", 2)})},
			want:   ObjectOf("a", ObjectOf("b", 1, "c", 2)),
		},
		{
			name:   "slice of primitives under key copied",
			inputs: []any{ObjectOf("a", []any{"x", 0, "y"})},
			want:   ObjectOf("a", []any{"x", "y"}),
		},
		{
			name:   "mapping replaces primitive",
			inputs: []any{ObjectOf("a", "x"), ObjectOf("a", ObjectOf("b", 1))},
			want:   ObjectOf("a", ObjectOf("b", 1)),
		},
		{
			name:   "native maps",
			inputs: []any{map[string]any{"b": 2, "a": map[string]any{"x": 1}}},
			want:   ObjectOf("a", ObjectOf("x", 1), "b", 2),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tt.inputs...)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Merge mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// TestMergeKeepsInsertionOrder tests that keys keep their first position
func TestMergeKeepsInsertionOrder(t *testing.T) {
	got := Merge(ObjectOf("z", 1, "a", 2), ObjectOf("m", 3, "z", 4))
	want := []string{"z", "a", "m"}
	if diff := cmp.Diff(want, got.Keys()); diff != "" {
		t.Errorf("key order mismatch (-want +got):\n%s", diff)
	}
}

// TestMergeDoesNotMutateInputs tests that nested input objects are copied before being merged into
func TestMergeDoesNotMutateInputs(t *testing.T) {
	inner := ObjectOf("b", 1)
	a := ObjectOf("a", inner)
	b := ObjectOf("a", ObjectOf("c", 2))

	got := Merge(a, b)

	if diff := cmp.Diff(ObjectOf("b", 1), inner); diff != "" {
		t.Errorf("input mutated (-want +got):\n%s", diff)
	}
	v, _ := got.Get("a")
	if v.(*Object) == inner {
		t.Error("result shares the input object that was merged into")
	}
}

func TestMergeSymbolKeys(t *testing.T) {
	sym := NewSymbol("id")
	a := NewObject().Set("id", "string").SetSymbol(sym, "symbol")

	got := Merge(a)

	if v, _ := got.Get("id"); v != "string" {
		t.Errorf("string key = %v, want string", v)
	}
	if v, _ := got.GetSymbol(sym); v != "symbol" {
		t.Errorf("symbol key = %v, want symbol", v)
	}
	if got.Len() != 2 {
		t.Errorf("Len() = %d, want 2", got.Len())
	}
}

// TestMergeInstancesByReference tests that dates, Maps and Sets are stored, not copied
func TestMergeInstancesByReference(t *testing.T) {
	m := MapOf("k", "v")
	s := NewSet("x")

	got := Merge(ObjectOf("m", m, "s", s))

	if v, _ := got.Get("m"); v != any(m) {
		t.Error("Map was not stored by reference")
	}
	if v, _ := got.Get("s"); v != any(s) {
		t.Error("Set was not stored by reference")
	}
}

func TestMergeRaw(t *testing.T) {
	got := MergeRaw(
		ObjectOf("a", 1, "b", "x"),
		ObjectOf("a", 0, "b", false, "c", nil, "d", Undefined),
		nil,
		false,
	)
	want := ObjectOf("a", 0, "b", false, "c", nil, "d", Undefined)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MergeRaw mismatch (-want +got):\n%s", diff)
	}

	nested := MergeRaw(ObjectOf("a", ObjectOf("b", 1)), ObjectOf("a", ObjectOf("b", "")))
	if diff := cmp.Diff(ObjectOf("a", ObjectOf("b", "")), nested); diff != "" {
		t.Errorf("nested MergeRaw mismatch (-want +got):\n%s", diff)
	}
}

// TestMergeCycle tests that self references terminate and unroll once
func TestMergeCycle(t *testing.T) {
	o := ObjectOf("a", 1)
	o.Set("self", o)

	r := Merge(o)

	self, ok := r.Get("self")
	if !ok {
		t.Fatal("result has no self entry")
	}
	selfObj, ok := self.(*Object)
	if !ok {
		t.Fatalf("self is %T, want *Object", self)
	}
	if selfObj == o {
		t.Fatal("first level should be a copy")
	}
	if v, _ := selfObj.Get("a"); v != 1 {
		t.Errorf("self.a = %v, want 1", v)
	}
	inner, _ := selfObj.Get("self")
	if inner != any(o) {
		t.Errorf("self.self = %v, want the original object", inner)
	}
}

func TestMergeMutualCycle(t *testing.T) {
	a := ObjectOf("name", "a")
	b := ObjectOf("name", "b", "a", a)
	a.Set("b", b)

	r := Merge(a)
	if v, _ := r.Get("name"); v != "a" {
		t.Errorf("name = %v, want a", v)
	}
	rb, _ := r.Get("b")
	if _, ok := rb.(*Object); !ok {
		t.Fatalf("b is %T, want *Object", rb)
	}
}

func TestMergeSliceCycle(t *testing.T) {
	s := make([]any, 2)
	s[0] = ObjectOf("a", 1)
	s[1] = s

	got := Merge(s)
	if diff := cmp.Diff(ObjectOf("a", 1), got); diff != "" {
		t.Errorf("Merge mismatch (-want +got):\n%s", diff)
	}
}

func TestMergeDepthLimit(t *testing.T) {
	c := New(Options{MaxDepth: 3})

	deep := ObjectOf("v", 1)
	for i := 0; i < 10; i++ {
		deep = ObjectOf("n", deep)
	}

	got := c.Merge(deep)
	if got.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", got.Len())
	}
}

func TestPreserve(t *testing.T) {
	inner := ObjectOf("x", 1)
	other := ObjectOf("y", 2)
	acc := ObjectOf("a", inner, "b", other, "c", "keep")

	t.Run("no-op returns acc", func(t *testing.T) {
		for _, in := range []any{nil, ObjectOf(), ObjectOf("c", "keep"), ObjectOf("a", ObjectOf("x", 1))} {
			if got := Preserve(acc, in); got != acc {
				t.Errorf("Preserve(acc, %v) returned a new object", in)
			}
		}
	})

	t.Run("untouched nested objects keep identity", func(t *testing.T) {
		got := Preserve(acc, ObjectOf("a", ObjectOf("z", 3)))
		if got == acc {
			t.Fatal("expected a new object")
		}
		b, _ := got.Get("b")
		if b != any(other) {
			t.Error("b lost its reference")
		}
		a, _ := got.Get("a")
		if a == any(inner) {
			t.Error("a should be a new object")
		}
		if diff := cmp.Diff(ObjectOf("x", 1, "z", 3), a); diff != "" {
			t.Errorf("a mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff(ObjectOf("x", 1), inner); diff != "" {
			t.Errorf("acc was mutated (-want +got):\n%s", diff)
		}
	})

	t.Run("nil acc", func(t *testing.T) {
		got := Preserve(nil, ObjectOf("a", 1))
		if diff := cmp.Diff(ObjectOf("a", 1), got); diff != "" {
			t.Errorf("Preserve mismatch (-want +got):\n%s", diff)
		}
	})
}
