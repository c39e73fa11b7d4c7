package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// bindEnvVars binds every flag of cmd and its subcommands to an
// environment variable named DTINFER_<FLAG>, e.g. DTINFER_LOG_LEVEL for
// --log-level. Arguments take precedence over the environment, which takes
// precedence over defaults. Flag usage mentions the variable.
func bindEnvVars(cmd *cobra.Command) {
	bind := func(flag *pflag.Flag) {
		bindFlagToEnv(flag)
	}

	cmd.PersistentFlags().VisitAll(bind)
	cmd.Flags().VisitAll(bind)

	for _, sub := range cmd.Commands() {
		bindEnvVars(sub)
	}
}

func bindFlagToEnv(flag *pflag.Flag) {
	envName := flagToEnvName(flag.Name)

	if !strings.Contains(flag.Usage, envName) {
		flag.Usage = fmt.Sprintf("%s ($%s)", flag.Usage, envName)
	}

	if flag.Changed {
		return
	}

	if envValue, ok := os.LookupEnv(envName); ok {
		if err := flag.Value.Set(envValue); err != nil {
			slog.Error("set flag from environment variable",
				slog.String("flag", flag.Name),
				slog.String("env", envName),
				slog.Any("error", err),
			)
		}
	}
}

func flagToEnvName(flagName string) string {
	return strings.ToUpper(cmdName + "_" + strings.ReplaceAll(flagName, "-", "_"))
}
