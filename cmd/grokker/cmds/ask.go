package cmds

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-go-golems/grokker/pkg/conversation"
	"github.com/go-go-golems/grokker/pkg/events"
	"github.com/go-go-golems/grokker/pkg/steps/ai/grok"
	settings "github.com/go-go-golems/grokker/pkg/steps/ai/settings/grok"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type askSettings struct {
	ConversationID string
	Attachments    []string
	Render         bool
	DownloadDir    string
}

func NewAskCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <message>...",
		Short: "Send a message and stream the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := &askSettings{}
			s.ConversationID, _ = cmd.Flags().GetString("conversation")
			s.Attachments, _ = cmd.Flags().GetStringSlice("attach")
			s.Render, _ = cmd.Flags().GetBool("render")
			s.DownloadDir, _ = cmd.Flags().GetString("download-dir")

			options, err := exchangeOptionsFromFlags(cmd)
			if err != nil {
				return err
			}

			return runAsk(cmd.Context(), cmd.OutOrStdout(), s, strings.Join(args, " "), options)
		},
	}

	cmd.Flags().StringP("conversation", "c", "", "Continue this conversation instead of creating a new one")
	cmd.Flags().StringSlice("attach", nil, "Upload and attach a file (repeatable)")
	cmd.Flags().Int(settings.KeyImageGenerationCount, 0, "Number of images to generate")
	cmd.Flags().Bool(settings.KeyRepairFrames, false, "Try to repair truncated stream records")
	cmd.Flags().Int(settings.KeyChunkSize, 0, "Read size of the response stream in bytes")
	cmd.Flags().Bool("render", false, "Render the reply as markdown once it is complete")
	cmd.Flags().String("download-dir", "", "Download generated images to this directory")

	return cmd
}

// exchangeOptionsFromFlags turns the per-exchange flags that were given on
// the command line into options. Unset flags keep the configured settings.
func exchangeOptionsFromFlags(cmd *cobra.Command) ([]grok.ExchangeOption, error) {
	var options []grok.ExchangeOption
	flags := cmd.Flags()
	if flags.Changed(settings.KeyImageGenerationCount) {
		n, err := flags.GetInt(settings.KeyImageGenerationCount)
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, errors.Errorf("--%s must not be negative", settings.KeyImageGenerationCount)
		}
		options = append(options, grok.WithImageGenerationCount(n))
	}
	if flags.Changed(settings.KeyRepairFrames) {
		repair, err := flags.GetBool(settings.KeyRepairFrames)
		if err != nil {
			return nil, err
		}
		options = append(options, grok.WithRepair(repair))
	}
	if flags.Changed(settings.KeyChunkSize) {
		size, err := flags.GetInt(settings.KeyChunkSize)
		if err != nil {
			return nil, err
		}
		options = append(options, grok.WithChunkSize(size))
	}
	return options, nil
}

func runAsk(ctx context.Context, w io.Writer, s *askSettings, message string, options []grok.ExchangeOption) error {
	client, err := newClient(viper.GetViper())
	if err != nil {
		return err
	}

	conv, err := openConversation(ctx, client, s)
	if err != nil {
		return err
	}
	log.Info().Str("conversation_id", conv.ID).Int("turns", len(conv.Transcript())).Msg("Using conversation")

	if len(s.Attachments) > 0 {
		transport, err := httpTransport(client)
		if err != nil {
			return err
		}
		attachments := make([]conversation.Attachment, 0, len(s.Attachments))
		for _, path := range s.Attachments {
			a, err := transport.UploadFile(ctx, path)
			if err != nil {
				return err
			}
			log.Debug().Str("file", path).Str("media_id", a.MediaID).Msg("Uploaded attachment")
			attachments = append(attachments, a)
		}
		options = append(options, grok.WithAttachments(attachments...))
	}

	router, err := events.NewEventRouter(events.WithVerbose(viper.GetBool("verbose")))
	if err != nil {
		return errors.Wrap(err, "failed to create event router")
	}
	defer func() {
		_ = router.Close()
	}()

	if s.Render {
		router.RegisterChatEventHandler("render", "chat", newMarkdownRenderer(w, glamourStyle()))
	} else {
		router.AddHandler("print", "chat", events.StepPrinterFunc("", w))
	}
	options = append(options, grok.WithEventSink(router.NewSink("chat")))

	var content *grok.GeneratedContent
	err = router.RunWith(ctx, func(ctx context.Context) error {
		var err error
		content, err = conv.Generate(ctx, message, options...)
		return err
	})
	if err != nil {
		return err
	}

	if s.DownloadDir != "" {
		return downloadAttachments(ctx, content, s.DownloadDir)
	}
	return nil
}

func openConversation(ctx context.Context, client *grok.Client, s *askSettings) (*grok.Conversation, error) {
	if s.ConversationID != "" {
		return client.GetConversation(ctx, s.ConversationID)
	}
	return client.NewConversation(ctx)
}

func downloadAttachments(ctx context.Context, content *grok.GeneratedContent, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for i, a := range content.Attachments {
		if !a.HasURL() {
			continue
		}
		name := filepath.Base(a.FileName)
		if a.FileName == "" || name == "." || name == string(filepath.Separator) {
			name = fmt.Sprintf("%s-%d.jpg", content.AgentChatItemID, i)
		}
		path := filepath.Join(dir, name)
		if err := a.Download(ctx, path); err != nil {
			return err
		}
		log.Info().Str("file", path).Msg("Downloaded attachment")
	}
	return nil
}

func glamourStyle() string {
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return "dark"
	}
	return "notty"
}
