// Package playground evaluates YAML documents describing cnx operations and
// renders their results for interactive use.
package playground

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	lineRe  = regexp.MustCompile(`\bline (\d+)\b`)
	keyRe   = regexp.MustCompile(`\bat key (\S+?):`)
	fieldRe = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*): `)
)

// FormatEvalErrors turns low-level engine warnings into a user-facing message.
func FormatEvalErrors(warnings []string) string {
	if len(warnings) == 0 {
		return "Evaluation failed, but no additional details were provided."
	}

	var b strings.Builder
	b.WriteString("Evaluation failed (strict mode).\n")

	for _, w := range warnings {
		loc := deriveLocation(w)
		msg, hint := classifyAndHint(w)
		details := extractDetails(w)

		fmt.Fprintf(&b, "- %s\n", msg)
		if loc != "" {
			fmt.Fprintf(&b, "  Location: %s\n", loc)
		}
		if hint != "" {
			fmt.Fprintf(&b, "  How to fix: %s\n", hint)
		}
		if details != "" {
			fmt.Fprintf(&b, "  Details: %s\n", details)
		}
	}

	return b.String()
}

func deriveLocation(s string) string {
	var parts []string
	if m := fieldRe.FindStringSubmatch(s); len(m) == 2 {
		parts = append(parts, m[1])
	}
	if m := lineRe.FindStringSubmatch(s); len(m) == 2 {
		parts = append(parts, "line "+m[1])
	}
	if m := keyRe.FindStringSubmatch(s); len(m) == 2 {
		parts = append(parts, "key "+m[1])
	}
	return strings.Join(parts, ", ")
}

func classifyAndHint(s string) (msg, hint string) {
	switch {
	case strings.Contains(s, "depth limit"):
		msg = "Maximum nesting depth reached. Deeper values were kept by reference instead of being merged."
		hint = `Flatten the input or raise "options.maxDepth".`
	case strings.Contains(s, "thunk chain exceeded"):
		msg = "A thunk kept returning thunks and was treated as undefined."
		hint = `Make sure every "!thunk" eventually yields a plain value, or raise "options.maxThunkDepth".`
	case strings.Contains(s, "cyclic"):
		msg = "The result refers to itself and cannot be rendered as YAML."
		hint = `Remove the "*alias" that points back to an enclosing "&anchor".`
	case strings.Contains(s, "unknown tag"):
		msg = "Unsupported YAML tag."
		hint = "Supported tags are !undefined, !symbol, !thunk, !map, !set and !date."
	default:
		msg = "Evaluation error."
	}
	return
}

func extractDetails(s string) string {
	if m := fieldRe.FindStringIndex(s); m != nil {
		return strings.TrimSpace(s[m[1]:])
	}
	return strings.TrimSpace(s)
}
