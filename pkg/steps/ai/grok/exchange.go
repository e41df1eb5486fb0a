package grok

import (
	"context"
	"fmt"
	"io"

	"github.com/go-go-golems/grokker/pkg/conversation"
	"github.com/go-go-golems/grokker/pkg/events"
	"github.com/go-go-golems/grokker/pkg/imagemeta"
	"github.com/go-go-golems/grokker/pkg/steps/ai/grok/api"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type ExchangeState int

const (
	StateIdle ExchangeState = iota
	StateSending
	StateStreaming
	StateFinalizing
	StateCommitted
	StateFailed
)

func (s ExchangeState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateStreaming:
		return "streaming"
	case StateFinalizing:
		return "finalizing"
	case StateCommitted:
		return "committed"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("ExchangeState(%d)", int(s))
}

// Exchange is one message sent to Grok and the streamed reply.
//
// It is iterated like a scanner: every call to Next reads the stream until
// the next record, which Chunk then returns. The call to Next that reaches
// the end of the stream resolves the generated image prompt, if any, and
// commits the user and agent turns to the transcript together. Closing the
// exchange or cancelling its context before that leaves the transcript
// untouched.
//
// An Exchange is not safe for concurrent use.
type Exchange struct {
	ctx          context.Context
	conversation *Conversation
	options      exchangeOptions
	user         conversation.Turn

	state   ExchangeState
	body    io.ReadCloser
	decoder *api.Decoder
	merger  *ResponseMerger
	current *api.StreamChunk
	err     error
	content *GeneratedContent
}

func newExchange(ctx context.Context, c *Conversation, message string, options exchangeOptions) *Exchange {
	metadata := events.EventMetadata{
		ID:             uuid.New(),
		ConversationID: c.ID,
		Model:          options.model,
	}
	return &Exchange{
		ctx:          ctx,
		conversation: c,
		options:      options,
		user:         conversation.NewUserTurn(message, options.attachments...),
		state:        StateIdle,
		merger:       NewResponseMerger(metadata),
	}
}

func (e *Exchange) send() error {
	e.state = StateSending

	request := api.NewAddResponseRequest(
		e.conversation.ID,
		e.options.model,
		e.options.imageGenerationCount,
		conversation.EncodeForSend(e.conversation.transcript.Turns(), e.user),
	)

	log.Debug().
		Str("conversation_id", e.conversation.ID).
		Str("model", e.options.model).
		Int("history", len(request.Responses)-1).
		Int("attachments", len(e.user.Attachments)).
		Msg("Sending message")

	body, err := e.conversation.transport.AddResponse(e.ctx, request)
	if err == nil && body == nil {
		err = &api.ProtocolError{Operation: "AddResponse", Reason: "response body is null"}
	}
	if err != nil {
		e.fail(errors.Wrap(err, "failed to send message"))
		return e.err
	}

	e.body = body
	e.decoder = api.NewDecoder(
		api.NewReaderChunks(body, e.options.chunkSize),
		api.WithRepair(e.options.repair),
		api.WithDecodeErrorHandler(e.options.onDecodeError),
	)
	e.state = StateStreaming
	e.publish(events.NewStartEvent(e.merger.Metadata()))
	return nil
}

// Next advances to the next record of the stream. It returns false once the
// exchange is committed or failed.
func (e *Exchange) Next() bool {
	e.current = nil
	if e.state != StateStreaming {
		return false
	}
	if err := e.ctx.Err(); err != nil {
		e.abandon(err)
		return false
	}

	if e.decoder.Next() {
		e.current = e.decoder.Chunk()
		for _, ev := range e.merger.Add(e.current) {
			e.publish(ev)
		}
		return true
	}

	if err := e.decoder.Err(); err != nil {
		if ctxErr := e.ctx.Err(); ctxErr != nil {
			e.abandon(ctxErr)
		} else {
			e.fail(errors.Wrap(err, "failed to read response stream"))
		}
		return false
	}

	e.finalize()
	return false
}

// Chunk is the record read by the last call to Next.
func (e *Exchange) Chunk() *api.StreamChunk {
	return e.current
}

// Err is the reason the exchange failed, if it did.
func (e *Exchange) Err() error {
	return e.err
}

func (e *Exchange) State() ExchangeState {
	return e.state
}

// Text is the text streamed so far.
func (e *Exchange) Text() string {
	return e.merger.Text()
}

// Content is the committed result, or nil until the exchange is committed.
func (e *Exchange) Content() *GeneratedContent {
	return e.content
}

// Dropped is the number of stream fragments that could not be decoded.
func (e *Exchange) Dropped() int {
	if e.decoder == nil {
		return 0
	}
	return e.decoder.Dropped()
}

// Close abandons an exchange that is still streaming. It is a no-op once the
// exchange is committed or failed.
func (e *Exchange) Close() error {
	if e.state == StateSending || e.state == StateStreaming {
		e.abandon(ErrExchangeAbandoned)
	}
	return nil
}

func (e *Exchange) finalize() {
	e.state = StateFinalizing
	e.closeBody()

	streamed := e.merger.Text()
	message := streamed
	attachments := e.merger.Attachments()

	generated := make([]*GeneratedAttachment, 0, len(attachments))
	for _, a := range attachments {
		generated = append(generated, newGeneratedAttachment(a, e.conversation.transport))
	}

	if len(generated) > 0 && generated[0].HasURL() {
		first := generated[0]
		if prompt, ok := e.resolvePrompt(first); ok {
			message = fmt.Sprintf(GeneratedImageMessageFormat, prompt)
		}
	}

	if err := e.ctx.Err(); err != nil {
		e.abandon(err)
		return
	}

	agent := conversation.NewAgentTurn(message, attachments...)
	e.conversation.transcript.Append(e.user, agent)

	metadata := e.merger.Metadata()
	e.content = &GeneratedContent{
		ConversationID:      metadata.ConversationID,
		UserChatItemID:      metadata.UserChatItemID,
		AgentChatItemID:     metadata.AgentChatItemID,
		Message:             message,
		StreamedMessage:     streamed,
		FollowUpSuggestions: e.merger.FollowUps(),
		Attachments:         generated,
	}
	e.state = StateCommitted
	e.conversation.release()

	log.Debug().
		Str("conversation_id", e.conversation.ID).
		Int("chunks", e.merger.Chunks()).
		Int("dropped", e.Dropped()).
		Int("attachments", len(attachments)).
		Bool("message_replaced", message != streamed).
		Msg("Exchange committed")

	e.publish(events.NewFinalEvent(metadata, message, streamed))
}

// resolvePrompt fetches the image and recovers its prompt. Failures are
// logged and treated as an image without prompt.
func (e *Exchange) resolvePrompt(a *GeneratedAttachment) (string, bool) {
	data, err := a.transport.GetImage(e.ctx, a.URL)
	if err != nil {
		log.Warn().Err(err).Str("url", a.URL).Msg("Failed to fetch generated image")
		return "", false
	}

	prompts, err := imagemeta.ExtractPrompts(data)
	if err != nil {
		log.Warn().Err(err).Str("url", a.URL).Msg("Failed to read generated image metadata")
		a.setResolved(data, nil)
		return "", false
	}
	a.setResolved(data, &prompts)

	if prompts.Prompt == "" {
		return "", false
	}
	return prompts.Prompt, true
}

func (e *Exchange) fail(err error) {
	e.closeBody()
	e.state = StateFailed
	e.err = err
	e.conversation.release()
	log.Error().Err(err).Str("conversation_id", e.conversation.ID).Msg("Exchange failed")
	e.publish(events.NewErrorEvent(e.merger.Metadata(), err))
}

func (e *Exchange) abandon(err error) {
	e.closeBody()
	e.state = StateFailed
	e.err = err
	e.conversation.release()
	log.Debug().Err(err).Str("conversation_id", e.conversation.ID).Msg("Exchange abandoned")
	e.publish(events.NewInterruptEvent(e.merger.Metadata(), e.merger.Text()))
}

func (e *Exchange) closeBody() {
	if e.body == nil {
		return
	}
	if err := e.body.Close(); err != nil {
		log.Debug().Err(err).Msg("Failed to close response body")
	}
	e.body = nil
}

func (e *Exchange) publish(event events.Event) {
	for _, sink := range e.options.sinks {
		if err := sink.PublishEvent(event); err != nil {
			log.Warn().Err(err).Str("event_type", string(event.Type())).Msg("Failed to publish event")
		}
	}
	events.PublishEventToContext(e.ctx, event)
}
