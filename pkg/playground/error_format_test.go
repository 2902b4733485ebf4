package playground

import (
	"strings"
	"testing"
)

func TestFormatEvalErrors(t *testing.T) {
	if got := FormatEvalErrors(nil); !strings.Contains(got, "no additional details") {
		t.Errorf("FormatEvalErrors(nil) = %q", got)
	}

	got := FormatEvalErrors([]string{
		"merge depth limit 3 reached at object{a}",
		"merged: failed to render result: cnx: cyclic structure cannot be encoded",
		"inputs: line 4: unknown tag !nope",
	})

	for _, want := range []string{
		"Evaluation failed (strict mode).",
		"- Maximum nesting depth reached.",
		`raise "options.maxDepth"`,
		"- The result refers to itself",
		"Location: merged\n",
		"- Unsupported YAML tag.",
		"Location: inputs, line 4\n",
		"Details: line 4: unknown tag !nope",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestDeriveLocation(t *testing.T) {
	tests := map[string]string{
		"cycle at key self: embedding object{a} by reference": "key self",
		"config: line 2: variant group 0 has no name":         "config, line 2",
		"thunk chain exceeded 64 invocations":                 "",
	}
	for in, want := range tests {
		if got := deriveLocation(in); got != want {
			t.Errorf("deriveLocation(%q) = %q, want %q", in, got, want)
		}
	}
}
