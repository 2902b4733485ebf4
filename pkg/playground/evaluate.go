package playground

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/speakeasy-api/cnx"
	"gopkg.in/yaml.v3"
)

// Evaluate runs the operation described by doc and returns its result:
// object results as YAML, string results as they are.
func Evaluate(doc string) (string, error) {
	req, err := ParseRequest(doc)
	if err != nil {
		return "", err
	}
	c, warnings := composer(req)

	out, err := evaluate(c, req)
	if err != nil {
		return "", err
	}
	if req.Strict && len(warnings.list()) > 0 {
		return "", fmt.Errorf("%s", FormatEvalErrors(warnings.list()))
	}
	return out, nil
}

func evaluate(c *cnx.Composer, req *Request) (string, error) {
	switch req.Op {
	case OpObject:
		return Render(c.Merge(req.Inputs...))
	case OpRaw:
		return Render(c.MergeRaw(req.Inputs...))
	case OpPreserve:
		if len(req.Inputs) == 0 {
			return "", fmt.Errorf("preserve requires an accumulator input")
		}
		acc, ok := req.Inputs[0].(*cnx.Object)
		if !ok && cnx.Truthy(req.Inputs[0]) {
			return "", fmt.Errorf("preserve: accumulator must be a mapping, got %T", req.Inputs[0])
		}
		out := acc
		for _, in := range req.Inputs[1:] {
			out = c.Preserve(out, in)
		}
		if out == nil {
			out = cnx.NewObject()
		}
		return Render(out)
	case OpClean:
		if len(req.Inputs) == 0 {
			return Render(cnx.NewObject())
		}
		return Render(c.Clean(req.Inputs[0], req.Include...))
	case OpClass:
		return c.Serializer(cnx.ModeClass).WithSeparator(req.Separator).String(req.Inputs...), nil
	case OpRecursive:
		return c.Serializer(cnx.ModeRecursive).WithSeparator(req.Separator).String(req.Inputs...), nil
	case OpInstance:
		return c.Serializer(cnx.ModeInstance).WithSeparator(req.Separator).String(req.Inputs...), nil
	case OpJoin:
		return c.Serializer(cnx.ModeClass).WithSeparator(req.Separator).String(req.Inputs...), nil
	case OpTrim:
		var sep []any
		if req.Separator != cnx.Undefined {
			sep = append(sep, req.Separator)
		}
		return c.Serializer(cnx.ModeClass).Trim(req.Inputs, sep...), nil
	case OpTemplate:
		return c.Serializer(cnx.ModeClass).Raw(req.Segments, req.Inputs...), nil
	case OpVariant:
		return cnx.Variant(req.Config)(req.Selection...), nil
	case OpCVX:
		return cnx.CVX(req.Config)(req.Selection...), nil
	}
	return "", fmt.Errorf("unknown op %q", req.Op)
}

// Render encodes v as YAML with two-space indentation, using the tags
// understood by ParseRequest.
func Render(v any) (string, error) {
	node, err := cnx.NodeOf(v)
	if err != nil {
		return "", fmt.Errorf("failed to render result: %w", err)
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return "", fmt.Errorf("failed to render result: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("failed to render result: %w", err)
	}
	return buf.String(), nil
}

// PipelineResult holds the merged, cleaned and class-name panels of a pipeline run.
type PipelineResult struct {
	Merged    string   `json:"merged"`
	Cleaned   string   `json:"cleaned"`
	ClassName string   `json:"className"`
	Warnings  []string `json:"warnings"`
}

// EvaluatePipeline merges the document's inputs, cleans the merged object
// with the include list and serializes the cleaned keys as a class string.
// In strict mode any engine warning fails the pipeline.
func EvaluatePipeline(doc string) (*PipelineResult, error) {
	req, err := ParseRequest(doc)
	if err != nil {
		return nil, err
	}
	c, warnings := composer(req)
	result := &PipelineResult{Warnings: []string{}}

	merged := c.Merge(req.Inputs...)
	if result.Merged, err = Render(merged); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("merged: %v", err))
		result.Merged = ""
	}

	cleaned := c.Clean(merged, req.Include...)
	if result.Cleaned, err = Render(cleaned); err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("cleaned: %v", err))
		result.Cleaned = ""
	}

	result.ClassName = c.Serializer(cnx.ModeClass).WithSeparator(req.Separator).String(cleaned)

	result.Warnings = append(result.Warnings, warnings.list()...)
	if req.Strict && len(result.Warnings) > 0 {
		return nil, fmt.Errorf("%s", FormatEvalErrors(result.Warnings))
	}
	return result, nil
}

func composer(req *Request) (*cnx.Composer, *warningLog) {
	w := &warningLog{}
	opts := req.Options
	opts.Logger = w
	return cnx.New(opts), w
}

// warningLog is a cnx.Logger that keeps warnings and errors for display.
type warningLog struct {
	mu    sync.Mutex
	lines []string
}

func (w *warningLog) add(format string, args ...any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lines = append(w.lines, strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (w *warningLog) list() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.lines...)
}

func (w *warningLog) Debugf(string, ...any)             {}
func (w *warningLog) Infof(string, ...any)              {}
func (w *warningLog) Warnf(format string, args ...any)  { w.add(format, args...) }
func (w *warningLog) Errorf(format string, args ...any) { w.add(format, args...) }
func (w *warningLog) With(map[string]any) cnx.Logger    { return w }
