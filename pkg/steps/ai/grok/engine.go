package grok

import (
	"context"
	"io"
	"net/http"

	"github.com/go-go-golems/grokker/pkg/conversation"
	"github.com/go-go-golems/grokker/pkg/steps/ai/grok/api"
	settings "github.com/go-go-golems/grokker/pkg/steps/ai/settings/grok"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Transport is the part of the X API a conversation needs.
type Transport interface {
	CreateConversation(ctx context.Context) (string, error)
	ConversationItems(ctx context.Context, conversationID string) ([]conversation.WireTurn, error)
	AddResponse(ctx context.Context, request *api.AddResponseRequest) (io.ReadCloser, error)
	GetImage(ctx context.Context, imageURL string) ([]byte, error)
}

var _ Transport = (*api.Client)(nil)

// Client creates and resumes conversations.
type Client struct {
	transport Transport
	settings  *settings.Settings
}

type ClientOption func(*Client)

// WithSettings sets the defaults used by every exchange of the client.
func WithSettings(s *settings.Settings) ClientOption {
	return func(c *Client) {
		c.settings = s.Clone()
	}
}

func NewClient(transport Transport, options ...ClientOption) (*Client, error) {
	if transport == nil {
		return nil, errors.New("no transport")
	}
	c := &Client{transport: transport}
	for _, o := range options {
		o(c)
	}
	if c.settings == nil {
		s, err := settings.NewSettings()
		if err != nil {
			return nil, err
		}
		c.settings = s
	}
	if err := c.settings.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// NewClientFromSettings builds the HTTP transport from s. Missing or
// malformed cookies fail here, before any request is made.
func NewClientFromSettings(s *settings.Settings, options ...api.ClientOption) (*Client, error) {
	creds, err := s.Credentials()
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{}
	if s.Timeout != nil {
		httpClient.Timeout = *s.Timeout
	}
	options = append([]api.ClientOption{api.WithHTTPClient(httpClient)}, options...)

	transport, err := api.NewClient(creds, options...)
	if err != nil {
		return nil, err
	}
	return NewClient(transport, WithSettings(s))
}

func (c *Client) Transport() Transport {
	return c.transport
}

func (c *Client) Settings() *settings.Settings {
	return c.settings.Clone()
}

// NewConversation creates an empty conversation on the server.
func (c *Client) NewConversation(ctx context.Context) (*Conversation, error) {
	id, err := c.transport.CreateConversation(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create conversation")
	}
	log.Debug().Str("conversation_id", id).Msg("Created conversation")
	return c.Conversation(id), nil
}

// GetConversation resumes an existing conversation with its history.
func (c *Client) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	conv := c.Conversation(id)
	if err := conv.LoadHistory(ctx); err != nil {
		return nil, err
	}
	return conv, nil
}

// Conversation wraps an existing conversation id without contacting the
// server.
func (c *Client) Conversation(id string, history ...conversation.Turn) *Conversation {
	return &Conversation{
		ID:         id,
		transcript: conversation.NewTranscript(history...),
		transport:  c.transport,
		settings:   c.settings.Clone(),
	}
}
