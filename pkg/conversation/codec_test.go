package conversation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeWireHistoryReversesOrder(t *testing.T) {
	items := []WireTurn{
		{SenderType: "Agent", Message: "fourth"},
		{SenderType: "User", Message: "third"},
		{SenderType: "Agent", Message: "second"},
		{SenderType: "User", Message: "first"},
	}

	turns, err := DecodeWireHistory(items)
	require.NoError(t, err)
	require.Len(t, turns, len(items))

	for i := range items {
		assert.Equal(t, items[len(items)-1-i].Message, turns[i].Text)
	}
	assert.Equal(t, SenderUser, turns[0].Sender)
	assert.Equal(t, SenderAgent, turns[3].Sender)
}

func TestDecodeWireHistoryMayStartWithAgent(t *testing.T) {
	turns, err := DecodeWireHistory([]WireTurn{
		{SenderType: "User", Message: "question"},
		{SenderType: "Agent", Message: "greeting"},
	})
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, SenderAgent, turns[0].Sender)
	assert.Equal(t, "greeting", turns[0].Text)
}

func TestDecodeWireHistoryEmpty(t *testing.T) {
	turns, err := DecodeWireHistory(nil)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestDecodeWireHistoryRejectsUnknownSender(t *testing.T) {
	tests := []struct {
		name string
		tag  string
	}{
		{name: "lower case", tag: "user"},
		{name: "system", tag: "System"},
		{name: "empty", tag: ""},
		{name: "numeric", tag: "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			turns, err := DecodeWireHistory([]WireTurn{
				{SenderType: "Agent", Message: "ok"},
				{SenderType: tt.tag, Message: "bad"},
				{SenderType: "User", Message: "ok"},
			})
			require.Error(t, err)
			assert.Nil(t, turns)
			assert.ErrorIs(t, err, ErrInvalidSenderType)
			assert.ErrorIs(t, err, ErrValidation)

			var iste *InvalidSenderTypeError
			require.ErrorAs(t, err, &iste)
			assert.Equal(t, 1, iste.Index)
			assert.Equal(t, tt.tag, iste.Tag)
		})
	}
}

func TestDecodeWireHistoryKeepsAttachments(t *testing.T) {
	var items []WireTurn
	require.NoError(t, json.Unmarshal([]byte(`[
		{"sender_type":"Agent","message":"here","file_attachments":[{"fileName":"a.jpg","mimeType":"image/jpeg","mediaId":"1","url":"https://example.com/a.jpg"}]},
		{"sender_type":"User","message":"draw"}
	]`), &items))

	turns, err := DecodeWireHistory(items)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Empty(t, turns[0].Attachments)
	assert.NotNil(t, turns[0].Attachments)
	require.Len(t, turns[1].Attachments, 1)
	assert.Equal(t, "a.jpg", turns[1].Attachments[0].FileName)
	assert.Equal(t, "https://example.com/a.jpg", turns[1].Attachments[0].URL)
}

func TestEncodeForSendAppendsUserTurn(t *testing.T) {
	history := []Turn{
		NewUserTurn("Hello"),
		NewAgentTurn("Hi there"),
	}
	upload := Attachment{Raw: json.RawMessage(`{"mediaId":"42","fileName":"cat.png"}`)}

	items := EncodeForSend(history, NewUserTurn("Draw a cat", upload))
	require.Len(t, items, 3)

	assert.Equal(t, "Hello", items[0].Message)
	assert.Equal(t, SenderUser, items[0].Sender)
	assert.Nil(t, items[0].PromptSource)
	assert.Equal(t, SenderAgent, items[1].Sender)

	last := items[2]
	assert.Equal(t, "Draw a cat", last.Message)
	assert.Equal(t, SenderUser, last.Sender)
	require.NotNil(t, last.PromptSource)
	assert.Equal(t, "", *last.PromptSource)
	require.Len(t, last.FileAttachments, 1)
}

func TestEncodeForSendWireShape(t *testing.T) {
	history := []Turn{NewAgentTurn("previous")}
	items := EncodeForSend(history, NewUserTurn("next"))

	b, err := json.Marshal(items)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"message":"previous","sender":2,"fileAttachments":[]},
		{"message":"next","sender":1,"promptSource":"","fileAttachments":[]}
	]`, string(b))
	assert.Equal(t,
		`[{"message":"previous","sender":2,"fileAttachments":[]},{"message":"next","sender":1,"promptSource":"","fileAttachments":[]}]`,
		string(b))
}

func TestEncodeForSendDoesNotAliasHistory(t *testing.T) {
	history := []Turn{
		NewUserTurn("draw", Attachment{FileName: "in.png", Raw: json.RawMessage(`{"fileName":"in.png"}`)}),
		NewAgentTurn("done", Attachment{FileName: "out.jpg", URL: "https://example.com/out.jpg"}),
	}
	before := cloneTurns(history)

	items := EncodeForSend(history, NewUserTurn("again"))
	items[0].Message = "mutated"
	items[0].FileAttachments[0].Raw[2] = 'X'
	items[1].FileAttachments[0].URL = "https://evil.example.com"
	items[1].FileAttachments = append(items[1].FileAttachments, Attachment{FileName: "extra"})

	assert.Equal(t, before, history)

	history[1].Attachments[0].FileName = "changed"
	assert.Equal(t, "out.jpg", items[1].FileAttachments[0].FileName)
}

func TestEncodeForSendRoundTrip(t *testing.T) {
	wire := []WireTurn{
		{SenderType: "Agent", Message: "a2"},
		{SenderType: "User", Message: "u2"},
		{SenderType: "Agent", Message: "a1"},
		{SenderType: "User", Message: "u1"},
	}
	history, err := DecodeWireHistory(wire)
	require.NoError(t, err)

	items := EncodeForSend(history, NewUserTurn("u3"))
	rebuilt := TurnsFromResponseItems(items)
	require.Len(t, rebuilt, len(history)+1)

	for i, turn := range history {
		assert.Equal(t, turn.Text, rebuilt[i].Text)
		assert.Equal(t, turn.Sender, rebuilt[i].Sender)
	}
	assert.Equal(t, "u3", rebuilt[len(rebuilt)-1].Text)
	assert.Equal(t, SenderUser, rebuilt[len(rebuilt)-1].Sender)
}
