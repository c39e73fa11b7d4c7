// Package cli implements the dtinfer command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/openltablets/dtinfer/api/v1beta1/configs"
	"github.com/openltablets/dtinfer/pkg/config"
	"github.com/openltablets/dtinfer/pkg/log"
)

const (
	cmdName = "dtinfer"
	cmdDesc = `Infers the missing headers of OpenL Tablets decision tables.`
)

// RootArgs are the flags shared by all commands.
type RootArgs struct {
	shutdown     func(context.Context) error
	LogLevel     string
	LogFormat    string
	OTLPEndpoint string
	ConfigPath   string
}

// NewRootArgs creates a new [RootArgs].
func NewRootArgs() *RootArgs {
	return &RootArgs{}
}

// AddFlags registers the persistent flags on cmd.
func (ra *RootArgs) AddFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&ra.LogLevel, "log-level", "info", fmt.Sprintf("Log level, one of: %s", log.AllLevels))
	flags.StringVar(&ra.LogFormat, "log-format", "text", fmt.Sprintf("Log format, one of: %s", log.AllFormats))
	flags.StringVar(&ra.OTLPEndpoint, "otlp-endpoint", "", "OTLP gRPC endpoint traces are exported to, e.g. localhost:4317")
	flags.StringVar(&ra.ConfigPath, "config", "", "Path to the dtinfer configuration file (default "+configs.GetPath()+")")

	must(cmd.RegisterFlagCompletionFunc("log-format",
		cobra.FixedCompletions(log.AllFormats, cobra.ShellCompDirectiveNoFileComp),
	))
	must(cmd.RegisterFlagCompletionFunc("log-level",
		cobra.FixedCompletions(log.AllLevels, cobra.ShellCompDirectiveNoFileComp),
	))
	must(cmd.MarkPersistentFlagFilename("config", "yaml", "yml"))
}

// LoadConfig loads the configuration file. A missing default file yields
// the default configuration; a missing explicit file is an error.
func (ra *RootArgs) LoadConfig() (*configs.Config, error) {
	path := ra.ConfigPath
	if path == "" {
		path = configs.GetPath()
	}

	l, err := config.NewLoaderFromFile(path, configs.New, configs.DefaultValidator, ra.LoaderOpts()...)
	if err != nil {
		if ra.ConfigPath == "" {
			slog.Debug("no configuration file, using defaults", slog.String("path", path))

			return configs.New(), nil
		}

		return nil, fmt.Errorf("read configuration: %w", err)
	}

	cfg, err := l.ValidateAndLoad()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// LoaderOpts returns the document loader options. Source annotations in
// errors are colored when stderr is a terminal.
func (ra *RootArgs) LoaderOpts() []config.LoaderOpt {
	return []config.LoaderOpt{
		config.WithColor(term.IsTerminal(int(os.Stderr.Fd()))), //nolint:gosec // G115: file descriptors fit in int.
	}
}

// NewRootCmd creates the dtinfer command tree.
func NewRootCmd() *cobra.Command {
	args := NewRootArgs()

	cmd := &cobra.Command{
		Use:                cmdName,
		Short:              cmdDesc,
		SilenceUsage:       true,
		PersistentPreRunE:  setup(args),
		PersistentPostRunE: teardown(args),
	}

	args.AddFlags(cmd)

	cmd.AddCommand(
		NewInferCmd(NewInferArgs(args)),
		NewSchemaCmd(),
		NewInitCmd(args),
		NewServeMCPCmd(NewServeMCPArgs(args)),
	)

	bindEnvVars(cmd)

	return cmd
}

func setup(ra *RootArgs) func(cmd *cobra.Command, _ []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		logHandler, err := log.CreateHandlerWithStrings(cmd.ErrOrStderr(), ra.LogLevel, ra.LogFormat)
		if err != nil {
			return fmt.Errorf("create log handler: %w", err)
		}

		slog.SetDefault(slog.New(logHandler))

		ra.shutdown, err = setupTracing(cmd.Context(), ra.OTLPEndpoint)
		if err != nil {
			return fmt.Errorf("set up tracing: %w", err)
		}

		return nil
	}
}

func teardown(ra *RootArgs) func(cmd *cobra.Command, _ []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		if ra.shutdown == nil {
			return nil
		}

		err := ra.shutdown(context.WithoutCancel(cmd.Context()))
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("flush traces: %w", err)
		}

		return nil
	}
}
