package grok

import (
	"strings"

	"github.com/go-go-golems/grokker/pkg/conversation"
	"github.com/go-go-golems/grokker/pkg/events"
	"github.com/go-go-golems/grokker/pkg/steps/ai/grok/api"
	"github.com/rs/zerolog/log"
)

// ResponseMerger accumulates the records of an add_response stream into the
// agent's reply and turns each record into the events to publish.
//
// Text is the concatenation of all deltas. Image attachments are kept in the
// order they were announced. Follow-up suggestions are the last list seen.
type ResponseMerger struct {
	metadata    events.EventMetadata
	text        strings.Builder
	attachments []conversation.Attachment
	followUps   []string
	chunks      int
}

func NewResponseMerger(metadata events.EventMetadata) *ResponseMerger {
	return &ResponseMerger{
		metadata:  metadata,
		followUps: []string{},
	}
}

// Add folds one record into the accumulated state.
func (m *ResponseMerger) Add(chunk *api.StreamChunk) []events.Event {
	m.chunks++
	if chunk.ConversationID != "" {
		m.metadata.ConversationID = chunk.ConversationID
	}
	if chunk.UserChatItemID != "" {
		m.metadata.UserChatItemID = chunk.UserChatItemID
	}
	if chunk.AgentChatItemID != "" {
		m.metadata.AgentChatItemID = chunk.AgentChatItemID
	}

	var ret []events.Event
	for _, ev := range chunk.Events() {
		switch ev.Type {
		case api.EventTypeDelta:
			m.text.WriteString(ev.Delta)
			ret = append(ret, events.NewPartialCompletionEvent(m.metadata, ev.Delta, m.text.String()))

		case api.EventTypeImageAttachment:
			attachment := attachmentFromImage(ev.Image)
			m.attachments = append(m.attachments, attachment)
			log.Debug().Str("file_name", attachment.FileName).Str("url", attachment.URL).Msg("Image attachment announced")
			ret = append(ret, events.NewImageAttachmentEvent(m.metadata, attachment))

		case api.EventTypeFollowUps:
			m.followUps = append([]string{}, ev.FollowUps...)
			ret = append(ret, events.NewFollowUpsEvent(m.metadata, ev.FollowUps))

		case api.EventTypeUnrecognized:
			log.Trace().Object("chunk", chunk).Msg("Unrecognized stream record")
			ret = append(ret, events.NewUnrecognizedEvent(m.metadata, ev.Raw))
		}
	}
	return ret
}

func (m *ResponseMerger) Text() string {
	return m.text.String()
}

func (m *ResponseMerger) Attachments() []conversation.Attachment {
	ret := make([]conversation.Attachment, 0, len(m.attachments))
	for _, a := range m.attachments {
		ret = append(ret, a.Clone())
	}
	return ret
}

func (m *ResponseMerger) FollowUps() []string {
	return append([]string{}, m.followUps...)
}

func (m *ResponseMerger) Metadata() events.EventMetadata {
	return m.metadata
}

func (m *ResponseMerger) Chunks() int {
	return m.chunks
}

func attachmentFromImage(img *api.ImageAttachment) conversation.Attachment {
	return conversation.Attachment{
		FileName: img.FileName,
		MimeType: img.MimeType,
		MediaID:  img.MediaIDStr,
		URL:      img.ImageURL,
	}
}
