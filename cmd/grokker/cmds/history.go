package cmds

import (
	"context"

	"github.com/go-go-golems/glazed/pkg/cmds"
	"github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"
	"github.com/go-go-golems/glazed/pkg/middlewares"
	"github.com/go-go-golems/glazed/pkg/settings"
	"github.com/go-go-golems/glazed/pkg/types"
	"github.com/go-go-golems/grokker/pkg/conversation"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type HistorySettings struct {
	ConversationID string `glazed.parameter:"conversation-id"`
}

type HistoryCommand struct {
	*cmds.CommandDescription
}

var _ cmds.GlazeCommand = (*HistoryCommand)(nil)

func NewHistoryCommand() (*cobra.Command, error) {
	glazedParameterLayer, err := settings.NewGlazedParameterLayers()
	if err != nil {
		return nil, errors.Wrap(err, "could not create Glazed parameter layer")
	}

	c := &HistoryCommand{
		CommandDescription: cmds.NewCommandDescription(
			"history",
			cmds.WithShort("Print the turns of an existing conversation"),
			cmds.WithArguments(
				parameters.NewParameterDefinition(
					"conversation-id",
					parameters.ParameterTypeString,
					parameters.WithHelp("Rest id of the conversation"),
					parameters.WithRequired(true),
				),
			),
			cmds.WithLayersList(glazedParameterLayer),
		),
	}
	return buildGlazedCommand(c)
}

func (c *HistoryCommand) RunIntoGlazeProcessor(ctx context.Context, parsedLayers *layers.ParsedLayers, gp middlewares.Processor) error {
	s := &HistorySettings{}
	if err := parsedLayers.InitializeStruct(layers.DefaultSlug, s); err != nil {
		return errors.Wrap(err, "error initializing settings")
	}

	client, err := newClient(viper.GetViper())
	if err != nil {
		return err
	}
	conv, err := client.GetConversation(ctx, s.ConversationID)
	if err != nil {
		return err
	}

	for i, turn := range conv.Transcript() {
		if err := gp.AddRow(ctx, turnRow(i, turn)); err != nil {
			return err
		}
	}
	return nil
}

func turnRow(index int, turn conversation.Turn) types.Row {
	names := make([]string, 0, len(turn.Attachments))
	for _, a := range turn.Attachments {
		name := a.URL
		if name == "" {
			name = a.FileName
		}
		names = append(names, name)
	}
	return types.NewRow(
		types.MRP("index", index),
		types.MRP("sender", turn.Sender.String()),
		types.MRP("message", turn.Text),
		types.MRP("attachments", names),
	)
}
