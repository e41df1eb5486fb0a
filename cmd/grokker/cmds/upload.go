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
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type UploadSettings struct {
	Files []string `glazed.parameter:"files"`
}

type UploadCommand struct {
	*cmds.CommandDescription
}

var _ cmds.GlazeCommand = (*UploadCommand)(nil)

func NewUploadCommand() (*cobra.Command, error) {
	glazedParameterLayer, err := settings.NewGlazedParameterLayers()
	if err != nil {
		return nil, errors.Wrap(err, "could not create Glazed parameter layer")
	}

	c := &UploadCommand{
		CommandDescription: cmds.NewCommandDescription(
			"upload",
			cmds.WithShort("Upload files and print their attachment descriptors"),
			cmds.WithArguments(
				parameters.NewParameterDefinition(
					"files",
					parameters.ParameterTypeStringList,
					parameters.WithHelp("Files to upload"),
					parameters.WithRequired(true),
				),
			),
			cmds.WithLayersList(glazedParameterLayer),
		),
	}
	return buildGlazedCommand(c)
}

func (c *UploadCommand) RunIntoGlazeProcessor(ctx context.Context, parsedLayers *layers.ParsedLayers, gp middlewares.Processor) error {
	s := &UploadSettings{}
	if err := parsedLayers.InitializeStruct(layers.DefaultSlug, s); err != nil {
		return errors.Wrap(err, "error initializing settings")
	}

	client, err := newClient(viper.GetViper())
	if err != nil {
		return err
	}
	transport, err := httpTransport(client)
	if err != nil {
		return err
	}

	for _, path := range s.Files {
		a, err := transport.UploadFile(ctx, path)
		if err != nil {
			return err
		}
		log.Debug().Str("file", path).Str("media_id", a.MediaID).Msg("Uploaded file")
		if err := gp.AddRow(ctx, attachmentRow(path, a)); err != nil {
			return err
		}
	}
	return nil
}

func attachmentRow(path string, a conversation.Attachment) types.Row {
	return types.NewRow(
		types.MRP("file", path),
		types.MRP("file_name", a.FileName),
		types.MRP("mime_type", a.MimeType),
		types.MRP("media_id", a.MediaID),
		types.MRP("url", a.URL),
	)
}
