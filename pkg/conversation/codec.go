package conversation

import (
	"encoding/json"

	"github.com/huandu/go-clone"
)

// WireTurn is a history item as returned by GrokConversationItemsByRestId.
type WireTurn struct {
	SenderType      string       `json:"sender_type"`
	Message         string       `json:"message"`
	FileAttachments []Attachment `json:"file_attachments,omitempty"`
}

// ResponseItem is a history entry in the add_response request body.
type ResponseItem struct {
	Message         string       `json:"message"`
	Sender          Sender       `json:"sender"`
	PromptSource    *string      `json:"promptSource,omitempty"`
	FileAttachments []Attachment `json:"fileAttachments"`
}

type responseItemWire struct {
	Message         string       `json:"message"`
	Sender          int          `json:"sender"`
	PromptSource    *string      `json:"promptSource,omitempty"`
	FileAttachments []Attachment `json:"fileAttachments"`
}

// MarshalJSON keeps the numeric sender the endpoint expects.
func (r ResponseItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(responseItemWire{
		Message:         r.Message,
		Sender:          int(r.Sender),
		PromptSource:    r.PromptSource,
		FileAttachments: r.FileAttachments,
	})
}

// DecodeWireHistory converts items from the API, which are listed most recent
// first, into chronological turns. An unknown sender tag fails the whole
// decode; no partial result is returned.
func DecodeWireHistory(items []WireTurn) ([]Turn, error) {
	turns := make([]Turn, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		item := items[i]
		sender, err := ParseSender(item.SenderType)
		if err != nil {
			return nil, &InvalidSenderTypeError{Index: i, Tag: item.SenderType}
		}
		attachments := []Attachment{}
		if item.FileAttachments != nil {
			attachments = cloneAttachments(item.FileAttachments)
		}
		turns = append(turns, Turn{
			Text:        item.Message,
			Sender:      sender,
			Attachments: attachments,
		})
	}
	return turns, nil
}

// EncodeForSend builds the `responses` array of an add_response request: the
// existing history followed by the new user message. The result shares no
// memory with history or newUser.
func EncodeForSend(history []Turn, newUser Turn) []ResponseItem {
	items := make([]ResponseItem, 0, len(history)+1)
	for _, turn := range history {
		items = append(items, ResponseItem{
			Message:         turn.Text,
			Sender:          turn.Sender,
			FileAttachments: nonNilAttachments(turn.Attachments),
		})
	}

	promptSource := ""
	items = append(items, ResponseItem{
		Message:         newUser.Text,
		Sender:          SenderUser,
		PromptSource:    &promptSource,
		FileAttachments: nonNilAttachments(newUser.Attachments),
	})

	return clone.Clone(items).([]ResponseItem)
}

// TurnsFromResponseItems reconstructs turns from an outgoing payload. Fields
// that only exist on the wire, like promptSource, are dropped.
func TurnsFromResponseItems(items []ResponseItem) []Turn {
	turns := make([]Turn, 0, len(items))
	for _, item := range items {
		turns = append(turns, Turn{
			Text:        item.Message,
			Sender:      item.Sender,
			Attachments: cloneAttachments(item.FileAttachments),
		})
	}
	return turns
}

func nonNilAttachments(in []Attachment) []Attachment {
	if in == nil {
		return []Attachment{}
	}
	return in
}
