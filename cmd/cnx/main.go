package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/speakeasy-api/cnx"
	"github.com/speakeasy-api/cnx/pkg/playground"
)

// cli holds the global flags and the state built from them.
type cli struct {
	logLevel string
	output   string
	indent   int

	logger   *zap.Logger
	composer *cnx.Composer
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "cnx",
		Short: "Merge, clean and serialize YAML/JSON values into objects and class strings",
		Long: `cnx folds YAML or JSON documents with the cnx engines.

Inputs are files ("-" reads stdin). Besides plain YAML the decoder understands
the tags !undefined, !symbol, !thunk, !map, !set and !date, and anchors may
refer back to an enclosing node to build cyclic inputs.

Examples:
  cnx object base.yaml override.yaml
  cnx class --mode recursive theme.yaml
  cnx variant --config button.yaml --set size=large --table`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "warn", "log level: error, warn, info, debug")
	root.PersistentFlags().StringVarP(&c.output, "output", "o", "yaml", "output format for objects: yaml or json")
	root.PersistentFlags().IntVar(&c.indent, "indent", -1, "JSON indentation (default: 2 on a terminal, compact otherwise)")

	root.AddCommand(
		c.objectCmd(),
		c.preserveCmd(),
		c.cleanCmd(),
		c.classCmd(),
		c.trimCmd(),
		c.evalCmd(),
		c.pipelineCmd(),
		c.variantCmd(),
	)
	return root
}

func (c *cli) init() error {
	if c.output != "yaml" && c.output != "json" {
		return fmt.Errorf("invalid --output %q: want yaml or json", c.output)
	}

	level, err := zapcore.ParseLevel(c.logLevel)
	if err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(level)
	config.Encoding = "console"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	c.logger, err = config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	opts := cnx.DefaultOptions()
	opts.Logger = cnx.NewZapLogger(c.logger.Sugar())
	c.composer = cnx.New(opts)
	return nil
}

// readInputs decodes each named file; "-" reads from stdin.
func (c *cli) readInputs(cmd *cobra.Command, names []string) ([]any, error) {
	out := make([]any, 0, len(names))
	for _, name := range names {
		data, err := readFile(cmd, name)
		if err != nil {
			return nil, err
		}
		v, err := playground.DecodeValue(string(data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		c.logger.Debug("decoded input", zap.String("file", name), zap.Stringer("kind", cnx.Classify(v)))
		out = append(out, v)
	}
	return out, nil
}

func readFile(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return data, nil
}

// writeValue prints v in the selected output format.
func (c *cli) writeValue(cmd *cobra.Command, v any) error {
	w := cmd.OutOrStdout()
	if c.output == "yaml" {
		out, err := playground.Render(v)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, out)
		return err
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	if indent := c.jsonIndent(w); indent > 0 {
		var buf bytes.Buffer
		if err := json.Indent(&buf, data, "", fmt.Sprintf("%*s", indent, "")); err != nil {
			return err
		}
		data = buf.Bytes()
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

func (c *cli) jsonIndent(w io.Writer) int {
	if c.indent >= 0 {
		return c.indent
	}
	if f, ok := w.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return 2
	}
	return 0
}

func writeLine(cmd *cobra.Command, s string) error {
	_, err := fmt.Fprintln(cmd.OutOrStdout(), s)
	return err
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
