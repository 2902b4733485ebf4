package cnx

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Group is one named variant dimension, e.g. "size" with options
// "small" and "large".
type Group struct {
	Name    string            `yaml:"name" json:"name"`
	Options map[string]string `yaml:"options" json:"options"`
}

// VariantConfig is a static variant table. Groups resolve in slice order.
type VariantConfig struct {
	Assign          string         `yaml:"assign" json:"assign"`
	Variants        []Group        `yaml:"variants" json:"variants"`
	DefaultVariants map[string]any `yaml:"defaultVariants" json:"defaultVariants"`
}

// Validate reports empty or duplicate group names.
func (cfg VariantConfig) Validate() error {
	seen := make(map[string]bool, len(cfg.Variants))
	var errs []error
	for i, g := range cfg.Variants {
		switch {
		case g.Name == "":
			errs = append(errs, fmt.Errorf("variant group %d has no name", i))
		case seen[g.Name]:
			errs = append(errs, fmt.Errorf("variant group %q is defined more than once", g.Name))
		}
		seen[g.Name] = true
	}
	return errors.Join(errs...)
}

// Resolver returns the class string for a selection of group options.
type Resolver func(selection ...map[string]any) string

// Variant builds a resolver over cfg. For each group it looks up the
// selected option, falling back to DefaultVariants when the selection is
// missing, nil or Undefined. Only string selections match options.
func Variant(cfg VariantConfig) Resolver {
	return newResolver(cfg, false)
}

// StringVariant is the string-family alias of Variant.
func StringVariant(cfg VariantConfig) Resolver {
	return Variant(cfg)
}

// CVX is Variant with primitive casting: booleans and numbers select the
// option whose key is their string form, so true selects "true".
func CVX(cfg VariantConfig) Resolver {
	return newResolver(cfg, true)
}

func newResolver(cfg VariantConfig, cast bool) Resolver {
	return func(selection ...map[string]any) string {
		parts := make([]string, 0, len(cfg.Variants)+1)
		if cfg.Assign != "" {
			parts = append(parts, cfg.Assign)
		}
		for _, g := range cfg.Variants {
			name, ok := cfg.Choice(g.Name, cast, selection...)
			if !ok {
				continue
			}
			if cls := g.Options[name]; cls != "" {
				parts = append(parts, cls)
			}
		}
		return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
	}
}

// Choice returns the option key group resolves to under selection, with
// CVX casting when cast is set. It reports false when nothing selects a
// usable key.
func (cfg VariantConfig) Choice(group string, cast bool, selection ...map[string]any) (string, bool) {
	v, ok := pick(selection, group)
	if !ok {
		v = cfg.DefaultVariants[group]
	}
	return optionName(v, cast)
}

// pick returns the last non-nullish selection for group.
func pick(selection []map[string]any, group string) (any, bool) {
	var (
		out   any
		found bool
	)
	for _, sel := range selection {
		v, ok := sel[group]
		if !ok || v == nil || v == Undefined {
			continue
		}
		out, found = v, true
	}
	return out, found
}

func optionName(v any, cast bool) (string, bool) {
	if s, ok := v.(string); ok {
		return s, true
	}
	if !cast {
		return "", false
	}
	switch t := v.(type) {
	case bool:
		return strconv.FormatBool(t), true
	case *big.Int:
		if t != nil {
			return t.String(), true
		}
		return "", false
	}
	if _, ok := toFloat(v); ok {
		return primitiveString(v), true
	}
	return "", false
}
