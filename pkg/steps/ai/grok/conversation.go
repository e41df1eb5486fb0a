package grok

import (
	"context"
	"sync"

	"github.com/go-go-golems/grokker/pkg/conversation"
	settings "github.com/go-go-golems/grokker/pkg/steps/ai/settings/grok"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Conversation is one Grok conversation and its transcript. The transcript
// only changes when an exchange commits or when the history is reloaded.
type Conversation struct {
	ID string

	transcript *conversation.Transcript
	transport  Transport
	settings   *settings.Settings

	mu       sync.Mutex
	inFlight bool
}

// Transcript returns a copy of the committed turns, oldest first.
func (c *Conversation) Transcript() []conversation.Turn {
	return c.transcript.Turns()
}

// LoadHistory replaces the transcript with the history stored on the server.
// On error the transcript keeps its previous content. It fails with
// ErrExchangeInProgress while an exchange is streaming.
func (c *Conversation) LoadHistory(ctx context.Context) error {
	if !c.acquire() {
		return ErrExchangeInProgress
	}
	defer c.release()

	items, err := c.transport.ConversationItems(ctx, c.ID)
	if err != nil {
		return errors.Wrapf(err, "failed to load history of conversation %s", c.ID)
	}
	turns, err := conversation.DecodeWireHistory(items)
	if err != nil {
		return errors.Wrapf(err, "failed to decode history of conversation %s", c.ID)
	}
	c.transcript.Replace(turns)
	log.Debug().Str("conversation_id", c.ID).Int("turns", len(turns)).Msg("Loaded conversation history")
	return nil
}

// Stream sends message and returns the exchange to iterate over the
// response. The exchange must be drained or closed before the next one can
// start.
func (c *Conversation) Stream(ctx context.Context, message string, options ...ExchangeOption) (*Exchange, error) {
	opts := exchangeOptions{
		model:                c.settings.Model,
		imageGenerationCount: c.settings.ImageGenerationCount,
		repair:               c.settings.RepairFrames,
		chunkSize:            c.settings.ChunkSize,
	}
	for _, o := range options {
		o(&opts)
	}

	if !c.acquire() {
		return nil, ErrExchangeInProgress
	}

	ex := newExchange(ctx, c, message, opts)
	if err := ex.send(); err != nil {
		return nil, err
	}
	return ex, nil
}

// Generate sends message, drains the response and returns what was
// committed.
func (c *Conversation) Generate(ctx context.Context, message string, options ...ExchangeOption) (*GeneratedContent, error) {
	ex, err := c.Stream(ctx, message, options...)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = ex.Close()
	}()

	for ex.Next() {
	}
	if err := ex.Err(); err != nil {
		return nil, err
	}
	return ex.Content(), nil
}

func (c *Conversation) acquire() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight {
		return false
	}
	c.inFlight = true
	return true
}

func (c *Conversation) release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight = false
}

func (c *Conversation) String() string {
	return "<Conversation " + c.ID + ">"
}
