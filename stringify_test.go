package cnx

import (
	"math"
	"math/big"
	"testing"
	"time"
)

func TestClassNames(t *testing.T) {
	tests := []struct {
		name   string
		inputs []any
		want   string
	}{
		{"empty", nil, ""},
		{"strings", []any{"a", "b"}, "a b"},
		{"skips falsy", []any{nil, Undefined, false, 0, "", math.NaN(), "a"}, "a"},
		{"truthy keys", []any{ObjectOf("class1", true, "class2", false)}, "class1"},
		{"nested arrays", []any{[]any{"a", []any{"b", []any{"c", 1}}, "d"}}, "a b c 1 d"},
		{"numbers", []any{1, 2.5, -3, big.NewInt(12)}, "1 2.5 -3 12"},
		{"true contributes nothing", []any{true, "a"}, "a"},
		{"symbols contribute nothing", []any{NewSymbol("s"), "a"}, "a"},
		{"symbol keys ignored", []any{NewObject().Set("a", 1).SetSymbol(NewSymbol("s"), true)}, "a"},
		{"thunks", []any{Thunk(func() any { return func() any { return "deep" } }), "x"}, "deep x"},
		{"thunk values in mappings are truthy", []any{ObjectOf("lazy", Thunk(func() any { return false }))}, "lazy"},
		{"native map keys sorted", []any{map[string]bool{"b": true, "a": true, "c": false}}, "a b"},
		{"instances ignored", []any{time.Unix(0, 0), NewSet("x"), "a"}, "a"},
		{"typed slices", []any{[]string{"a", "b"}}, "a b"},
		{"large float", []any{1e21}, "1e+21"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassNames(tt.inputs...); got != tt.want {
				t.Errorf("ClassNames() = %q, want %q", got, tt.want)
			}
			if got := String(tt.inputs...); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestClassNamesThunkAccumulator tests that a thunk taking a string receives the output so far
func TestClassNamesThunkAccumulator(t *testing.T) {
	var seen string
	got := ClassNames("a", "b", func(acc string) any {
		seen = acc
		return "c"
	})
	if got != "a b c" {
		t.Errorf("ClassNames() = %q, want %q", got, "a b c")
	}
	if seen != "a b" {
		t.Errorf("accumulator = %q, want %q", seen, "a b")
	}
}

func TestClassNamesCycle(t *testing.T) {
	s := make([]any, 2)
	s[0] = "a"
	s[1] = s
	if got := ClassNames(s, "b"); got != "a b" {
		t.Errorf("ClassNames() = %q, want %q", got, "a b")
	}
}

func TestRecursive(t *testing.T) {
	sym := NewSymbol("meta")
	tests := []struct {
		name   string
		inputs []any
		want   string
	}{
		{"flat", []any{ObjectOf("a", 1, "b", "x")}, "a: 1 b: x"},
		{"nested", []any{ObjectOf("a", ObjectOf("b", ObjectOf("c", "deep")))}, "a.b.c: deep"},
		{"true", []any{ObjectOf("enabled", true, "off", false)}, "enabled: true"},
		{"symbol keys", []any{NewObject().Set("a", 1).SetSymbol(sym, "m")}, "a: 1 Symbol(meta): m"},
		{"arrays under key", []any{ObjectOf("a", []any{"x", "y"})}, "a: x a: y"},
		{"plain values", []any{"a", ObjectOf("k", "v")}, "a k: v"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Recursive(tt.inputs...); got != tt.want {
				t.Errorf("Recursive() = %q, want %q", got, tt.want)
			}
			if got := StringRecursive(tt.inputs...); got != tt.want {
				t.Errorf("StringRecursive() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInstance(t *testing.T) {
	date := time.Date(2024, 1, 2, 3, 4, 5, 678_000_000, time.UTC)
	tests := []struct {
		name   string
		inputs []any
		want   string
	}{
		{"date", []any{date}, "2024-01-02T03:04:05.678Z"},
		{"date pointer", []any{&date}, "2024-01-02T03:04:05.678Z"},
		{"map", []any{MapOf("a", 1, "b", 0, "c", "x")}, "a: 1 c: x"},
		{"set", []any{NewSet("x", 0, "y")}, "x y"},
		{"array of instances", []any{[]any{NewSet("a"), MapOf("k", "v")}}, "a k: v"},
		{"mixed", []any{"btn", ObjectOf("active", true)}, "btn active"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Instance(tt.inputs...); got != tt.want {
				t.Errorf("Instance() = %q, want %q", got, tt.want)
			}
			if got := StringInstanceOf(tt.inputs...); got != tt.want {
				t.Errorf("StringInstanceOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRaw(t *testing.T) {
	tests := []struct {
		name     string
		segments []string
		values   []any
		want     string
	}{
		{"interpolation", []string{"btn btn-", " ", ""}, []any{"primary", ObjectOf("active", true)}, "btn btn-primary active"},
		{"empty values collapse", []string{"a ", " b ", " c"}, []any{nil, false}, "a b c"},
		{"whitespace collapsed", []string{"  a \n\t b  "}, nil, "a b"},
		{"extra values appended", []string{"a"}, []any{"b", "c"}, "ab c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Raw(tt.segments, tt.values...); got != tt.want {
				t.Errorf("Raw() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSeparator(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"-", "-"},
		{"", ""},
		{nil, ""},
		{0, ""},
		{-1, ""},
		{2, " "},
		{true, " "},
		{false, " "},
		{Undefined, " "},
		{ObjectOf(), " "},
	}
	for _, tt := range tests {
		if got := Separator(tt.in); got != tt.want {
			t.Errorf("Separator(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestJoin(t *testing.T) {
	if got := Join("-", "a", []any{"b", ObjectOf("c", true)}); got != "a-b-c" {
		t.Errorf("Join() = %q, want %q", got, "a-b-c")
	}
	if got := Join(0, "a", "b"); got != "ab" {
		t.Errorf("Join() = %q, want %q", got, "ab")
	}
}

func TestTrim(t *testing.T) {
	tests := []struct {
		name  string
		input any
		sep   []any
		want  string
	}{
		{"default", "  a \n b\t c ", nil, "a b c"},
		{"custom", []any{" a  b ", "c"}, []any{"_"}, "a_b_c"},
		{"zero", "a b", []any{0}, "ab"},
		{"null", "a b", []any{nil}, "ab"},
		{"true", "a   b", []any{true}, "a b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Trim(tt.input, tt.sep...); got != tt.want {
				t.Errorf("Trim() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1, "1"},
		{0.1, "0.1"},
		{-2.5, "-2.5"},
		{1e21, "1e+21"},
		{1e-7, "1e-7"},
		{123456789, "123456789"},
		{math.Inf(1), "Infinity"},
		{math.Inf(-1), "-Infinity"},
		{math.NaN(), "NaN"},
	}
	for _, tt := range tests {
		if got := formatFloat(tt.in); got != tt.want {
			t.Errorf("formatFloat(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
