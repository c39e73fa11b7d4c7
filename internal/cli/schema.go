package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openltablets/dtinfer/api/v1beta1/configs"
	"github.com/openltablets/dtinfer/api/v1beta1/projects"
)

// Schemas maps document names to their JSON schemas.
var Schemas = map[string][]byte{
	strings.ToLower(configs.Kind):  configs.SchemaJSON,
	strings.ToLower(projects.Kind): projects.SchemaJSON,
}

// NewSchemaCmd creates the schema command.
func NewSchemaCmd() *cobra.Command {
	names := make([]string, 0, len(Schemas))
	for name := range Schemas {
		names = append(names, name)
	}

	slices.Sort(names)

	return &cobra.Command{
		Use:       "schema {" + strings.Join(names, "|") + "}",
		Short:     "Print the JSON schema of a document kind",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: names,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := cmd.OutOrStdout().Write(append(Schemas[args[0]], '\n'))
			if err != nil {
				return fmt.Errorf("write schema: %w", err)
			}

			return nil
		},
	}
}
