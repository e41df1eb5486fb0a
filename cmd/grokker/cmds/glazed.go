package cmds

import (
	"github.com/go-go-golems/glazed/pkg/cli"
	"github.com/go-go-golems/glazed/pkg/cmds"
	"github.com/go-go-golems/glazed/pkg/cmds/middlewares"
	"github.com/spf13/cobra"
)

func buildGlazedCommand(c cmds.GlazeCommand) (*cobra.Command, error) {
	return cli.BuildCobraCommandFromGlazeCommand(c,
		cli.WithCobraMiddlewaresFunc(getMiddlewares),
	)
}

// Session settings are read from the global viper instance, so the
// command layers only need flags, arguments and defaults.
func getMiddlewares(
	_ *cli.GlazedCommandSettings,
	cmd *cobra.Command,
	args []string,
) ([]middlewares.Middleware, error) {
	return []middlewares.Middleware{
		middlewares.ParseFromCobraCommand(cmd),
		middlewares.GatherArguments(args),
		middlewares.SetFromDefaults(),
	}, nil
}
