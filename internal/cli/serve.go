package cli

import (
	"github.com/spf13/cobra"

	"github.com/openltablets/dtinfer/pkg/mcp"
	"github.com/openltablets/dtinfer/pkg/project"
)

// ServeMCPArgs are the flags of the serve-mcp command.
type ServeMCPArgs struct {
	*RootArgs

	Address string
	Root    string
}

// NewServeMCPArgs creates a new [ServeMCPArgs].
func NewServeMCPArgs(rootArgs *RootArgs) *ServeMCPArgs {
	return &ServeMCPArgs{RootArgs: rootArgs}
}

// AddFlags registers the serve-mcp flags on cmd.
func (sa *ServeMCPArgs) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&sa.Address, "address", "", "Serve streamable HTTP at this address instead of stdio")
	cmd.Flags().StringVar(&sa.Root, "root", ".", "Directory relative project paths resolve against")
	must(cmd.MarkFlagDirname("root"))
}

// NewServeMCPCmd creates the serve-mcp command.
func NewServeMCPCmd(sa *ServeMCPArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve-mcp",
		Short: "Serve header inference as MCP tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := sa.LoadConfig()
			if err != nil {
				return err
			}

			s := mcp.NewServer(
				mcp.WithAddress(sa.Address),
				mcp.WithRoot(sa.Root),
				mcp.WithProjectOpts(project.WithSessionOpts(cfg.SessionOpts()...)),
			)

			return s.Serve(cmd.Context()) //nolint:wrapcheck // Already descriptive.
		},
	}

	sa.AddFlags(cmd)

	return cmd
}
