package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openltablets/dtinfer/pkg/binder"
	"github.com/openltablets/dtinfer/pkg/diag"
	"github.com/openltablets/dtinfer/pkg/grid"
	"github.com/openltablets/dtinfer/pkg/project"
)

const inferExamples = `  # Infer the headers of all tables of the project in the current directory:
  dtinfer infer .

  # Infer one table and print the result as YAML:
  dtinfer infer ./rules/dtinfer.yaml Premiums --output yaml

  # Write the table with its inferred header to a workbook:
  dtinfer infer . Premiums --out premiums.xlsx`

// Output formats.
const (
	OutputText = "text"
	OutputYAML = "yaml"
	OutputJSON = "json"
)

// ErrUnknownOutput is returned for an unsupported --output value.
var ErrUnknownOutput = errors.New("unknown output format")

// AllOutputs lists the output formats.
var AllOutputs = []string{OutputText, OutputYAML, OutputJSON}

// InferArgs are the flags of the infer command.
type InferArgs struct {
	*RootArgs

	Project string
	Output  string
	Out     string
	Tables  []string
}

// NewInferArgs creates a new [InferArgs].
func NewInferArgs(rootArgs *RootArgs) *InferArgs {
	return &InferArgs{RootArgs: rootArgs}
}

// AddFlags registers the infer flags on cmd.
func (ia *InferArgs) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&ia.Output, "output", "o", OutputText, fmt.Sprintf("Output format, one of: %s", AllOutputs))
	cmd.Flags().StringVar(&ia.Out, "out", "", "Write each table with its inferred header to this xlsx workbook")

	must(cmd.RegisterFlagCompletionFunc("output",
		cobra.FixedCompletions(AllOutputs, cobra.ShellCompDirectiveNoFileComp),
	))
	must(cmd.MarkFlagFilename("out", "xlsx"))
}

// NewInferCmd creates the infer command.
func NewInferCmd(ia *InferArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "infer PROJECT [TABLE...]",
		Short:   "Infer the headers of the tables of a project",
		Example: inferExamples,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ia.Project = args[0]
			ia.Tables = args[1:]

			return infer(cmd, ia)
		},
	}

	ia.AddFlags(cmd)

	return cmd
}

func infer(cmd *cobra.Command, ia *InferArgs) error {
	if !slices.Contains(AllOutputs, ia.Output) {
		return fmt.Errorf("%w: %q", ErrUnknownOutput, ia.Output)
	}

	cfg, err := ia.LoadConfig()
	if err != nil {
		return err
	}

	sink := diag.NewCollector()

	p, err := project.LoadFile(ia.Project,
		project.WithLoaderOpts(ia.LoaderOpts()...),
		project.WithSessionOpts(append(cfg.SessionOpts(),
			binder.WithSink(diag.Multi(sink, diag.NewLogSink(slog.Default()))),
		)...),
	)
	if err != nil {
		return err //nolint:wrapcheck // Names the project file.
	}

	results, bindErr := p.Bind(cmd.Context(), ia.Tables...)
	if results == nil && bindErr != nil {
		return bindErr
	}

	bound := slices.DeleteFunc(slices.Clone(results), func(r *binder.Result) bool { return r == nil })

	if err := writeResults(cmd.OutOrStdout(), ia.Output, bound, sink.Events()); err != nil {
		return err
	}

	if ia.Out != "" {
		if err := writeWorkbooks(ia.Out, bound); err != nil {
			return err
		}
	}

	return bindErr
}

// writeWorkbooks writes one workbook per table. With several tables the
// table name is appended to the file name.
func writeWorkbooks(out string, results []*binder.Result) error {
	ext := filepath.Ext(out)

	for _, r := range results {
		path := out
		if len(results) > 1 {
			path = strings.TrimSuffix(out, ext) + "-" + r.Source.Name + ext
		}

		if err := grid.WriteXLSX(path, r.Source.Name, r.Table); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}

		slog.Info("write workbook", slog.String("table", r.Source.Name), slog.String("path", path))
	}

	return nil
}

func writeResults(w io.Writer, format string, results []*binder.Result, events []diag.Event) error {
	switch format {
	case OutputYAML:
		return writeYAML(w, newReport(results, events))
	case OutputJSON:
		return writeJSON(w, newReport(results, events))
	}

	return writeText(w, results)
}
