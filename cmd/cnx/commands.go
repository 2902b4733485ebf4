package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	goyaml "github.com/itchyny/go-yaml"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/speakeasy-api/cnx"
	"github.com/speakeasy-api/cnx/pkg/playground"
)

func (c *cli) objectCmd() *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "object [files...]",
		Short: "Deep-merge inputs left to right into one object",
		Long: `Deep-merges the inputs. Empty values (null, false, 0, "", NaN) are
dropped unless --raw is given, in which case they overwrite earlier values.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := c.readInputs(cmd, args)
			if err != nil {
				return err
			}
			if raw {
				return c.writeValue(cmd, c.composer.MergeRaw(inputs...))
			}
			return c.writeValue(cmd, c.composer.Merge(inputs...))
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "keep explicit empty values")
	return cmd
}

func (c *cli) preserveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preserve acc [files...]",
		Short: "Merge inputs into an existing object, reporting whether it changed",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := c.readInputs(cmd, args)
			if err != nil {
				return err
			}
			acc, ok := inputs[0].(*cnx.Object)
			if !ok {
				return fmt.Errorf("%s: accumulator must be a mapping", args[0])
			}
			out := acc
			for _, in := range inputs[1:] {
				out = c.composer.Preserve(out, in)
			}
			c.logger.Info("preserve", zap.Bool("changed", out != acc))
			return c.writeValue(cmd, out)
		},
	}
}

func (c *cli) cleanCmd() *cobra.Command {
	var keep []string
	cmd := &cobra.Command{
		Use:   "clean [file]",
		Short: "Remove empty values recursively",
		Long: `Removes null, false, "", 0, NaN and mappings or sequences left empty
after cleaning. Each --keep value (parsed as YAML) is exempt, so --keep 0 keeps
zeros and --keep '{}' keeps empty mappings.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := c.readInputs(cmd, args)
			if err != nil {
				return err
			}
			include := make([]any, 0, len(keep))
			for _, k := range keep {
				v, err := playground.DecodeValue(k)
				if err != nil {
					return fmt.Errorf("--keep %q: %w", k, err)
				}
				include = append(include, v)
			}
			return c.writeValue(cmd, c.composer.Clean(inputs[0], include...))
		},
	}
	cmd.Flags().StringArrayVar(&keep, "keep", nil, "value to keep even though it is empty (repeatable)")
	return cmd
}

func (c *cli) classCmd() *cobra.Command {
	var (
		mode string
		sep  string
	)
	cmd := &cobra.Command{
		Use:   "class [files...]",
		Short: "Serialize inputs into a class string",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := parseMode(mode)
			if err != nil {
				return err
			}
			inputs, err := c.readInputs(cmd, args)
			if err != nil {
				return err
			}
			return writeLine(cmd, c.composer.Serializer(m).WithSeparator(sep).String(inputs...))
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "class", "serialization mode: class, recursive or instance")
	cmd.Flags().StringVar(&sep, "sep", " ", "separator between tokens")
	return cmd
}

func parseMode(s string) (cnx.Mode, error) {
	switch s {
	case "class":
		return cnx.ModeClass, nil
	case "recursive":
		return cnx.ModeRecursive, nil
	case "instance":
		return cnx.ModeInstance, nil
	}
	return 0, fmt.Errorf("invalid --mode %q: want class, recursive or instance", s)
}

func (c *cli) trimCmd() *cobra.Command {
	var sep string
	cmd := &cobra.Command{
		Use:   "trim [files...]",
		Short: "Serialize inputs and collapse whitespace runs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := c.readInputs(cmd, args)
			if err != nil {
				return err
			}
			return writeLine(cmd, c.composer.Serializer(cnx.ModeClass).Trim(inputs, sep))
		},
	}
	cmd.Flags().StringVar(&sep, "sep", " ", "replacement for each whitespace run")
	return cmd
}

func (c *cli) evalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "eval [file]",
		Short: "Evaluate a playground document",
		Long: `Evaluates a document of the form

  op: object | raw | preserve | clean | class | recursive | instance | join | trim | template | variant | cvx
  inputs: [...]
  include: [...]
  separator: " "
  segments: [...]
  config: {assign, variants, defaultVariants}
  selection: {...}
  options: {maxDepth, cycleUnroll, maxThunkDepth}
  strict: false`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readFile(cmd, args[0])
			if err != nil {
				return err
			}
			out, err := playground.Evaluate(string(data))
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), strings.TrimSuffix(out, "\n")+"\n")
			return err
		},
	}
}

func (c *cli) pipelineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pipeline [file]",
		Short: "Merge, clean and serialize a playground document's inputs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readFile(cmd, args[0])
			if err != nil {
				return err
			}
			result, err := playground.EvaluatePipeline(string(data))
			if err != nil {
				return err
			}
			for _, w := range result.Warnings {
				c.logger.Warn(w)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "# merged\n%s", result.Merged)
			fmt.Fprintf(w, "# cleaned\n%s", result.Cleaned)
			_, err = fmt.Fprintf(w, "# class\n%s\n", result.ClassName)
			return err
		},
	}
}

func (c *cli) variantCmd() *cobra.Command {
	var (
		configFile string
		sets       []string
		cast       bool
		table      bool
	)
	cmd := &cobra.Command{
		Use:   "variant",
		Short: "Resolve a variant table for a selection",
		Long: `Loads a variant configuration (YAML or JSON):

  assign: btn
  variants:
    - name: size
      options: {small: btn-sm, large: btn-lg}
  defaultVariants: {size: small}

and prints the class string for the --set selection.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadVariantConfig(cmd, configFile)
			if err != nil {
				return err
			}
			selection, err := parseSelection(sets)
			if err != nil {
				return err
			}

			resolve := cnx.Variant(cfg)
			if cast {
				resolve = cnx.CVX(cfg)
			}
			if table {
				return writeTable(cmd.OutOrStdout(), cfg, selection, cast)
			}
			return writeLine(cmd, resolve(selection))
		},
	}
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "variant configuration file")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "group=option selection (repeatable)")
	cmd.Flags().BoolVar(&cast, "cvx", false, "cast boolean and number selections to option names")
	cmd.Flags().BoolVar(&table, "table", false, "print the variant table with the resolved options marked")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func loadVariantConfig(cmd *cobra.Command, name string) (cnx.VariantConfig, error) {
	var cfg cnx.VariantConfig
	data, err := readFile(cmd, name)
	if err != nil {
		return cfg, err
	}
	if err := goyaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", name, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", name, err)
	}
	return cfg, nil
}

func parseSelection(sets []string) (map[string]any, error) {
	selection := make(map[string]any, len(sets))
	for _, s := range sets {
		group, option, ok := strings.Cut(s, "=")
		if !ok || group == "" {
			return nil, fmt.Errorf("invalid --set %q: want group=option", s)
		}
		selection[group] = option
	}
	return selection, nil
}

// writeTable prints one row per option, marking the option each group
// resolves to under selection.
func writeTable(w io.Writer, cfg cnx.VariantConfig, selection map[string]any, cast bool) error {
	header := []string{"GROUP", " OPTION", "CLASS"}
	rows := [][]string{header}
	for _, g := range cfg.Variants {
		chosen, ok := cfg.Choice(g.Name, cast, selection)
		options := make([]string, 0, len(g.Options))
		for o := range g.Options {
			options = append(options, o)
		}
		sort.Strings(options)
		for _, o := range options {
			mark := " "
			if ok && o == chosen {
				mark = "*"
			}
			rows = append(rows, []string{g.Name, mark + o, g.Options[o]})
		}
	}

	widths := make([]int, len(header))
	for _, r := range rows {
		for i, cell := range r {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	for _, r := range rows {
		var b strings.Builder
		for i, cell := range r {
			if i == len(r)-1 {
				b.WriteString(cell)
				continue
			}
			b.WriteString(runewidth.FillRight(cell, widths[i]))
			b.WriteString("  ")
		}
		if _, err := fmt.Fprintln(w, b.String()); err != nil {
			return err
		}
	}
	return nil
}
