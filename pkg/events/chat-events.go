package events

import (
	"encoding/json"
	"fmt"

	"github.com/go-go-golems/grokker/pkg/conversation"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type EventType string

const (
	EventTypeStart             EventType = "start"
	EventTypePartialCompletion EventType = "partial"
	EventTypeImageAttachment   EventType = "image-attachment"
	EventTypeFollowUps         EventType = "follow-ups"
	// EventTypeUnrecognized carries a stream record none of the other events describe.
	EventTypeUnrecognized EventType = "unrecognized"
	EventTypeFinal        EventType = "final"
	EventTypeError        EventType = "error"
	EventTypeInterrupt    EventType = "interrupt"
)

type Event interface {
	Type() EventType
	Metadata() EventMetadata
	Payload() []byte
}

type EventImpl struct {
	Type_     EventType     `json:"type"`
	Metadata_ EventMetadata `json:"meta,omitempty"`

	// store payload if the event was deserialized from JSON (see NewEventFromJson)
	payload []byte
}

func (e *EventImpl) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("type", string(e.Type_))
	ev.Object("meta", e.Metadata_)
}

func (e *EventImpl) Type() EventType {
	return e.Type_
}

func (e *EventImpl) Metadata() EventMetadata {
	return e.Metadata_
}

func (e *EventImpl) Payload() []byte {
	return e.payload
}

var _ Event = &EventImpl{}

// EventMetadata identifies the exchange an event belongs to.
type EventMetadata struct {
	ID              uuid.UUID `json:"message_id" yaml:"message_id"`
	ConversationID  string    `json:"conversation_id,omitempty" yaml:"conversation_id,omitempty"`
	UserChatItemID  string    `json:"user_chat_item_id,omitempty" yaml:"user_chat_item_id,omitempty"`
	AgentChatItemID string    `json:"agent_chat_item_id,omitempty" yaml:"agent_chat_item_id,omitempty"`
	Model           string    `json:"model,omitempty" yaml:"model,omitempty"`
}

func (em EventMetadata) MarshalZerologObject(e *zerolog.Event) {
	e.Str("message_id", em.ID.String())
	if em.ConversationID != "" {
		e.Str("conversation_id", em.ConversationID)
	}
	if em.UserChatItemID != "" {
		e.Str("user_chat_item_id", em.UserChatItemID)
	}
	if em.AgentChatItemID != "" {
		e.Str("agent_chat_item_id", em.AgentChatItemID)
	}
	if em.Model != "" {
		e.Str("model", em.Model)
	}
}

type EventPartialCompletionStart struct {
	EventImpl
}

func NewStartEvent(metadata EventMetadata) *EventPartialCompletionStart {
	return &EventPartialCompletionStart{
		EventImpl: EventImpl{
			Type_:     EventTypeStart,
			Metadata_: metadata,
		},
	}
}

var _ Event = &EventPartialCompletionStart{}

// EventPartialCompletion is published for every text delta of the stream.
type EventPartialCompletion struct {
	EventImpl
	Delta string `json:"delta"`
	// Completion is the text streamed so far, including Delta.
	Completion string `json:"completion"`
}

func NewPartialCompletionEvent(metadata EventMetadata, delta string, completion string) *EventPartialCompletion {
	return &EventPartialCompletion{
		EventImpl: EventImpl{
			Type_:     EventTypePartialCompletion,
			Metadata_: metadata,
		},
		Delta:      delta,
		Completion: completion,
	}
}

var _ Event = &EventPartialCompletion{}

type EventImageAttachment struct {
	EventImpl
	Attachment conversation.Attachment `json:"attachment"`
}

func NewImageAttachmentEvent(metadata EventMetadata, attachment conversation.Attachment) *EventImageAttachment {
	return &EventImageAttachment{
		EventImpl: EventImpl{
			Type_:     EventTypeImageAttachment,
			Metadata_: metadata,
		},
		Attachment: attachment.Clone(),
	}
}

var _ Event = &EventImageAttachment{}

type EventFollowUps struct {
	EventImpl
	Suggestions []string `json:"suggestions"`
}

func NewFollowUpsEvent(metadata EventMetadata, suggestions []string) *EventFollowUps {
	return &EventFollowUps{
		EventImpl: EventImpl{
			Type_:     EventTypeFollowUps,
			Metadata_: metadata,
		},
		Suggestions: append([]string{}, suggestions...),
	}
}

var _ Event = &EventFollowUps{}

type EventUnrecognized struct {
	EventImpl
	Raw json.RawMessage `json:"raw,omitempty"`
}

func NewUnrecognizedEvent(metadata EventMetadata, raw json.RawMessage) *EventUnrecognized {
	return &EventUnrecognized{
		EventImpl: EventImpl{
			Type_:     EventTypeUnrecognized,
			Metadata_: metadata,
		},
		Raw: append(json.RawMessage(nil), raw...),
	}
}

var _ Event = &EventUnrecognized{}

// EventFinal closes a committed exchange. Text is the agent turn that was
// recorded, StreamedText what the server streamed.
type EventFinal struct {
	EventImpl
	Text         string `json:"text"`
	StreamedText string `json:"streamed_text,omitempty"`
}

func NewFinalEvent(metadata EventMetadata, text string, streamedText string) *EventFinal {
	return &EventFinal{
		EventImpl: EventImpl{
			Type_:     EventTypeFinal,
			Metadata_: metadata,
		},
		Text:         text,
		StreamedText: streamedText,
	}
}

var _ Event = &EventFinal{}

type EventError struct {
	EventImpl
	ErrorString string `json:"error_string"`
}

func NewErrorEvent(metadata EventMetadata, err error) *EventError {
	return &EventError{
		EventImpl: EventImpl{
			Type_:     EventTypeError,
			Metadata_: metadata,
		},
		ErrorString: err.Error(),
	}
}

var _ Event = &EventError{}

// EventInterrupt is published when an exchange is abandoned before the end
// of its stream. Text is what had been streamed.
type EventInterrupt struct {
	EventImpl
	Text string `json:"text"`
}

func NewInterruptEvent(metadata EventMetadata, text string) *EventInterrupt {
	return &EventInterrupt{
		EventImpl: EventImpl{
			Type_:     EventTypeInterrupt,
			Metadata_: metadata,
		},
		Text: text,
	}
}

var _ Event = &EventInterrupt{}

func NewEventFromJson(b []byte) (Event, error) {
	var e *EventImpl
	err := json.Unmarshal(b, &e)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, fmt.Errorf("event payload is null")
	}

	e.payload = b

	switch e.Type_ {
	case EventTypeStart:
		return toTypedEvent[EventPartialCompletionStart](e)
	case EventTypePartialCompletion:
		return toTypedEvent[EventPartialCompletion](e)
	case EventTypeImageAttachment:
		return toTypedEvent[EventImageAttachment](e)
	case EventTypeFollowUps:
		return toTypedEvent[EventFollowUps](e)
	case EventTypeUnrecognized:
		return toTypedEvent[EventUnrecognized](e)
	case EventTypeFinal:
		return toTypedEvent[EventFinal](e)
	case EventTypeError:
		return toTypedEvent[EventError](e)
	case EventTypeInterrupt:
		return toTypedEvent[EventInterrupt](e)
	}

	return e, nil
}

// payloadSetter is implemented by every event embedding EventImpl.
type payloadSetter interface {
	Event
	setPayload([]byte)
}

func (e *EventImpl) setPayload(b []byte) {
	e.payload = b
}

func toTypedEvent[T any, PT interface {
	*T
	payloadSetter
}](e Event) (Event, error) {
	var ret T
	if err := json.Unmarshal(e.Payload(), &ret); err != nil {
		return nil, fmt.Errorf("could not cast event to %T: %w", ret, err)
	}
	p := PT(&ret)
	p.setPayload(e.Payload())
	return p, nil
}

func (e EventPartialCompletion) MarshalZerologObject(ev *zerolog.Event) {
	e.EventImpl.MarshalZerologObject(ev)
	ev.Str("delta", e.Delta).Str("completion", e.Completion)
}

func (e EventImageAttachment) MarshalZerologObject(ev *zerolog.Event) {
	e.EventImpl.MarshalZerologObject(ev)
	ev.Str("file_name", e.Attachment.FileName).Str("url", e.Attachment.URL)
}

func (e EventFollowUps) MarshalZerologObject(ev *zerolog.Event) {
	e.EventImpl.MarshalZerologObject(ev)
	ev.Strs("suggestions", e.Suggestions)
}

func (e EventFinal) MarshalZerologObject(ev *zerolog.Event) {
	e.EventImpl.MarshalZerologObject(ev)
	ev.Str("text", e.Text)
}

func (e EventError) MarshalZerologObject(ev *zerolog.Event) {
	e.EventImpl.MarshalZerologObject(ev)
	ev.Str("error", e.ErrorString)
}

func (e EventInterrupt) MarshalZerologObject(ev *zerolog.Event) {
	e.EventImpl.MarshalZerologObject(ev)
	ev.Str("text", e.Text)
}
