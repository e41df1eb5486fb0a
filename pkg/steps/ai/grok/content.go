package grok

import (
	"context"
	"os"
	"sync"

	"github.com/go-go-golems/grokker/pkg/conversation"
	"github.com/go-go-golems/grokker/pkg/imagemeta"
	"github.com/pkg/errors"
)

// GeneratedImageMessageFormat is the agent message recorded for an image
// whose generation prompt could be recovered.
const GeneratedImageMessageFormat = "I generated images with the prompt: '%s'"

// GeneratedContent is the result of a committed exchange.
type GeneratedContent struct {
	ConversationID  string `json:"conversation_id,omitempty" yaml:"conversation_id,omitempty"`
	UserChatItemID  string `json:"user_chat_item_id,omitempty" yaml:"user_chat_item_id,omitempty"`
	AgentChatItemID string `json:"agent_chat_item_id,omitempty" yaml:"agent_chat_item_id,omitempty"`

	// Message is the text recorded as the agent turn.
	Message string `json:"message" yaml:"message"`
	// StreamedMessage is the concatenated text of the stream. It differs from
	// Message when a generated image prompt replaced it.
	StreamedMessage     string                 `json:"streamed_message" yaml:"streamed_message"`
	FollowUpSuggestions []string               `json:"follow_up_suggestions" yaml:"follow_up_suggestions"`
	Attachments         []*GeneratedAttachment `json:"attachments" yaml:"attachments"`
}

// GeneratedAttachment is an attachment of the agent's reply. Its bytes are
// fetched on first use and cached.
type GeneratedAttachment struct {
	conversation.Attachment

	transport Transport

	mu      sync.Mutex
	data    []byte
	prompts *imagemeta.Prompts
}

func newGeneratedAttachment(attachment conversation.Attachment, transport Transport) *GeneratedAttachment {
	return &GeneratedAttachment{
		Attachment: attachment.Clone(),
		transport:  transport,
	}
}

// Bytes returns the content of the attachment.
func (a *GeneratedAttachment) Bytes(ctx context.Context) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	data, err := a.bytesLocked(ctx)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), data...), nil
}

func (a *GeneratedAttachment) bytesLocked(ctx context.Context) ([]byte, error) {
	if a.data != nil {
		return a.data, nil
	}
	if !a.HasURL() {
		return nil, ErrNoImageURL
	}
	data, err := a.transport.GetImage(ctx, a.URL)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch %s", a.FileName)
	}
	a.data = data
	return data, nil
}

// Download writes the attachment to path.
func (a *GeneratedAttachment) Download(ctx context.Context, path string) error {
	data, err := a.Bytes(ctx)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

// Prompts recovers the generation prompts embedded in the image.
func (a *GeneratedAttachment) Prompts(ctx context.Context) (imagemeta.Prompts, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.prompts != nil {
		return *a.prompts, nil
	}
	data, err := a.bytesLocked(ctx)
	if err != nil {
		return imagemeta.Prompts{}, err
	}
	prompts, err := imagemeta.ExtractPrompts(data)
	if err != nil {
		return imagemeta.Prompts{}, err
	}
	a.prompts = &prompts
	return prompts, nil
}

// setResolved stores what finalizing an exchange already fetched.
func (a *GeneratedAttachment) setResolved(data []byte, prompts *imagemeta.Prompts) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.data = data
	a.prompts = prompts
}
