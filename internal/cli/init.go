package cli

import (
	"github.com/spf13/cobra"

	"github.com/openltablets/dtinfer/api/v1beta1/configs"
)

// NewInitCmd creates the init command.
func NewInitCmd(ra *RootArgs) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			path := ra.ConfigPath
			if path == "" {
				path = configs.GetPath()
			}

			return configs.WriteDefault(path, force) //nolint:wrapcheck // Already descriptive.
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Back up and replace an existing configuration file")

	return cmd
}
