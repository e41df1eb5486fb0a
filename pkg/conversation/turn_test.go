package conversation

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestTranscriptAppendCommitsPair(t *testing.T) {
	tr := NewTranscript()
	tr.Append(NewUserTurn("Hello"), NewAgentTurn("Hi there"))

	turns := tr.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, Turn{Text: "Hello", Sender: SenderUser, Attachments: []Attachment{}}, turns[0])
	assert.Equal(t, Turn{Text: "Hi there", Sender: SenderAgent, Attachments: []Attachment{}}, turns[1])

	last, ok := tr.Last()
	require.True(t, ok)
	assert.Equal(t, "Hi there", last.Text)
}

func TestTranscriptReturnsCopies(t *testing.T) {
	tr := NewTranscript(NewAgentTurn("first", Attachment{FileName: "a.jpg"}))

	turns := tr.Turns()
	turns[0].Text = "changed"
	turns[0].Attachments[0].FileName = "b.jpg"

	again := tr.Turns()
	assert.Equal(t, "first", again[0].Text)
	assert.Equal(t, "a.jpg", again[0].Attachments[0].FileName)
}

func TestTranscriptReplace(t *testing.T) {
	tr := NewTranscript(NewUserTurn("old"))
	tr.Replace([]Turn{NewAgentTurn("a"), NewUserTurn("b")})
	assert.Equal(t, 2, tr.Len())
	assert.Equal(t, SenderAgent, tr.Turns()[0].Sender)
}

func TestTranscriptConcurrentAppend(t *testing.T) {
	tr := NewTranscript()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Append(NewUserTurn("u"), NewAgentTurn("a"))
		}()
	}
	wg.Wait()

	turns := tr.Turns()
	require.Len(t, turns, 100)
	for i := 0; i < len(turns); i += 2 {
		assert.Equal(t, SenderUser, turns[i].Sender)
		assert.Equal(t, SenderAgent, turns[i+1].Sender)
	}
}

func TestParseSender(t *testing.T) {
	s, err := ParseSender("User")
	require.NoError(t, err)
	assert.Equal(t, SenderUser, s)
	assert.Equal(t, "User", s.String())

	s, err = ParseSender("Agent")
	require.NoError(t, err)
	assert.Equal(t, SenderAgent, s)

	_, err = ParseSender("Bot")
	assert.ErrorIs(t, err, ErrInvalidSenderType)
}

func TestTurnSenderTagIsTheSameInJSONAndYAML(t *testing.T) {
	turns := []Turn{NewUserTurn("Hello"), NewAgentTurn("Hi")}

	b, err := json.Marshal(turns)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"message":"Hello","sender":"User","fileAttachments":[]},
		{"message":"Hi","sender":"Agent","fileAttachments":[]}
	]`, string(b))

	y, err := yaml.Marshal(turns)
	require.NoError(t, err)
	assert.Equal(t, "- message: Hello\n  sender: User\n- message: Hi\n  sender: Agent\n", string(y))
}

func TestSenderUnmarshalJSON(t *testing.T) {
	for _, input := range []string{`"Agent"`, `2`} {
		var s Sender
		require.NoError(t, json.Unmarshal([]byte(input), &s), input)
		assert.Equal(t, SenderAgent, s)
	}

	var s Sender
	assert.ErrorIs(t, json.Unmarshal([]byte(`"Bot"`), &s), ErrInvalidSenderType)
	assert.ErrorIs(t, json.Unmarshal([]byte(`3`), &s), ErrInvalidSenderType)
}
