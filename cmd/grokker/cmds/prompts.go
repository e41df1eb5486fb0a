package cmds

import (
	"context"
	"os"

	"github.com/go-go-golems/glazed/pkg/cmds"
	"github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"
	"github.com/go-go-golems/glazed/pkg/middlewares"
	"github.com/go-go-golems/glazed/pkg/settings"
	"github.com/go-go-golems/glazed/pkg/types"
	"github.com/go-go-golems/grokker/pkg/imagemeta"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type PromptsSettings struct {
	Images []string `glazed.parameter:"images"`
}

type PromptsCommand struct {
	*cmds.CommandDescription
}

var _ cmds.GlazeCommand = (*PromptsCommand)(nil)

func NewPromptsCommand() (*cobra.Command, error) {
	glazedParameterLayer, err := settings.NewGlazedParameterLayers()
	if err != nil {
		return nil, errors.Wrap(err, "could not create Glazed parameter layer")
	}

	c := &PromptsCommand{
		CommandDescription: cmds.NewCommandDescription(
			"prompts",
			cmds.WithShort("Print the generation prompts embedded in downloaded Grok images"),
			cmds.WithArguments(
				parameters.NewParameterDefinition(
					"images",
					parameters.ParameterTypeStringList,
					parameters.WithHelp("Image files written by Grok"),
					parameters.WithRequired(true),
				),
			),
			cmds.WithLayersList(glazedParameterLayer),
		),
	}
	return buildGlazedCommand(c)
}

func (c *PromptsCommand) RunIntoGlazeProcessor(ctx context.Context, parsedLayers *layers.ParsedLayers, gp middlewares.Processor) error {
	s := &PromptsSettings{}
	if err := parsedLayers.InitializeStruct(layers.DefaultSlug, s); err != nil {
		return errors.Wrap(err, "error initializing settings")
	}

	for _, path := range s.Images {
		row, err := promptsRow(path)
		if err != nil {
			return err
		}
		if err := gp.AddRow(ctx, row); err != nil {
			return err
		}
	}
	return nil
}

func promptsRow(path string) (types.Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	prompts, err := imagemeta.ExtractPrompts(data)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read prompts from %s", path)
	}
	if prompts.IsZero() {
		return nil, errors.Errorf("%s carries no generation prompt", path)
	}
	return types.NewRow(
		types.MRP("file", path),
		types.MRP("prompt", prompts.Prompt),
		types.MRP("upsampled_prompt", prompts.UpsampledPrompt),
	), nil
}
