package api

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sliceSource struct {
	chunks []string
	err    error
}

func (s *sliceSource) ReadChunk() ([]byte, error) {
	if len(s.chunks) == 0 {
		if s.err != nil {
			return nil, s.err
		}
		return nil, io.EOF
	}
	c := s.chunks[0]
	s.chunks = s.chunks[1:]
	return []byte(c), nil
}

func collect(t *testing.T, d *Decoder) []*StreamChunk {
	t.Helper()
	var ret []*StreamChunk
	for d.Next() {
		ret = append(ret, d.Chunk())
	}
	return ret
}

func messages(chunks []*StreamChunk) []string {
	var ret []string
	for _, c := range chunks {
		if c.Result != nil {
			ret = append(ret, c.Result.Message)
		}
	}
	return ret
}

func TestDecoderWellFormedChunks(t *testing.T) {
	src := &sliceSource{chunks: []string{
		`{"conversationId":"c1","userChatItemId":"u1","agentChatItemId":"a1"}`,
		`{"result":{"message":"Hi"}}`,
		`{"result":{"message":" there"}}`,
	}}
	d := NewDecoder(src)

	chunks := collect(t, d)
	require.Len(t, chunks, 3)
	require.NoError(t, d.Err())
	assert.Equal(t, 0, d.Dropped())

	assert.Equal(t, "c1", chunks[0].ConversationID)
	assert.Equal(t, "u1", chunks[0].UserChatItemID)
	assert.Equal(t, "a1", chunks[0].AgentChatItemID)
	assert.Equal(t, []string{"Hi", " there"}, messages(chunks))
	assert.JSONEq(t, `{"result":{"message":"Hi"}}`, string(chunks[1].Raw))
}

func TestDecoderDropsMalformedChunk(t *testing.T) {
	good := []string{
		`{"result":{"message":"a"}}`,
		`{"result":{"message":"b"}}`,
		`{"result":{"message":"c"}}`,
		`{"result":{"message":"d"}}`,
	}

	for bad := 0; bad < len(good); bad++ {
		var chunks []string
		chunks = append(chunks, good[:bad]...)
		chunks = append(chunks, `{"result":{"message":`)
		chunks = append(chunks, good[bad:]...)

		var reported []*DecodeError
		d := NewDecoder(&sliceSource{chunks: chunks}, WithDecodeErrorHandler(func(err *DecodeError) {
			reported = append(reported, err)
		}))

		got := collect(t, d)
		require.NoError(t, d.Err())
		assert.Len(t, got, len(good))
		assert.Equal(t, []string{"a", "b", "c", "d"}, messages(got))
		assert.Equal(t, 1, d.Dropped())
		require.Len(t, reported, 1)
		assert.Equal(t, bad, reported[0].ChunkIndex)
		assert.True(t, errors.Is(reported[0], ErrDecode))
		assert.Contains(t, reported[0].Excerpt, `"message":`)
	}
}

func TestDecoderMultipleRecordsInOneChunk(t *testing.T) {
	src := &sliceSource{chunks: []string{
		"{\"result\":{\"message\":\"one\"}}\n{\"result\":{\"message\":\"two\"}}\n",
		`{"result":{"message":"three"}}`,
	}}
	d := NewDecoder(src)

	got := collect(t, d)
	assert.Equal(t, []string{"one", "two", "three"}, messages(got))
	assert.Equal(t, 0, d.Dropped())
}

func TestDecoderKeepsRecordsBeforeGarbage(t *testing.T) {
	src := &sliceSource{chunks: []string{
		`{"result":{"message":"kept"}} not json {"result":{"message":"lost"}}`,
		`{"result":{"message":"next"}}`,
	}}
	d := NewDecoder(src)

	got := collect(t, d)
	assert.Equal(t, []string{"kept", "next"}, messages(got))
	assert.Equal(t, 1, d.Dropped())
}

func TestDecoderDropsWrongShape(t *testing.T) {
	src := &sliceSource{chunks: []string{
		`"just a string"`,
		`{"result":"not an object"}`,
		`{"result":{"message":"ok"}}`,
	}}
	d := NewDecoder(src)

	got := collect(t, d)
	assert.Equal(t, []string{"ok"}, messages(got))
	assert.Equal(t, 2, d.Dropped())
}

func TestDecoderRepair(t *testing.T) {
	chunks := []string{
		`{"result":{"message":"Hi"}}`,
		`{"result":{"message":" there"`,
	}

	d := NewDecoder(&sliceSource{chunks: append([]string{}, chunks...)})
	assert.Equal(t, []string{"Hi"}, messages(collect(t, d)))
	assert.Equal(t, 1, d.Dropped())

	d = NewDecoder(&sliceSource{chunks: append([]string{}, chunks...)}, WithRepair(true))
	assert.Equal(t, []string{"Hi", " there"}, messages(collect(t, d)))
	assert.Equal(t, 0, d.Dropped())
}

func TestDecoderTransportError(t *testing.T) {
	boom := errors.New("connection reset")
	src := &sliceSource{
		chunks: []string{`{"result":{"message":"partial"}}`},
		err:    boom,
	}
	d := NewDecoder(src)

	require.True(t, d.Next())
	assert.Equal(t, "partial", d.Chunk().Result.Message)
	assert.False(t, d.Next())
	assert.Nil(t, d.Chunk())
	assert.Equal(t, boom, d.Err())

	// the sequence is not restartable
	assert.False(t, d.Next())
}

func TestDecoderEmptyStream(t *testing.T) {
	d := NewDecoder(&sliceSource{})
	assert.False(t, d.Next())
	assert.NoError(t, d.Err())
}

func TestReaderChunks(t *testing.T) {
	src := NewReaderChunks(iotest.DataErrReader(strings.NewReader(`{"result":{"message":"x"}}`)), 0)

	data, err := src.ReadChunk()
	require.NoError(t, err)
	assert.Equal(t, `{"result":{"message":"x"}}`, string(data))

	_, err = src.ReadChunk()
	assert.Equal(t, io.EOF, err)
	_, err = src.ReadChunk()
	assert.Equal(t, io.EOF, err)
}

func TestReaderChunksRespectsSize(t *testing.T) {
	src := NewReaderChunks(strings.NewReader("abcdef"), 4)

	data, err := src.ReadChunk()
	require.NoError(t, err)
	assert.Equal(t, "abcd", string(data))

	data, err = src.ReadChunk()
	require.NoError(t, err)
	assert.Equal(t, "ef", string(data))

	_, err = src.ReadChunk()
	assert.Equal(t, io.EOF, err)
}

func TestStreamChunkEvents(t *testing.T) {
	tests := []struct {
		name     string
		chunk    StreamChunk
		expected []StreamEventType
	}{
		{
			name:     "delta",
			chunk:    StreamChunk{Result: &Result{Message: "Hi"}},
			expected: []StreamEventType{EventTypeDelta},
		},
		{
			name: "image",
			chunk: StreamChunk{Result: &Result{ImageAttachment: &ImageAttachment{
				FileName: "a.jpg",
				ImageURL: "https://ton.x.com/a.jpg",
			}}},
			expected: []StreamEventType{EventTypeImageAttachment},
		},
		{
			name:     "follow-ups",
			chunk:    StreamChunk{Result: &Result{FollowUpSuggestions: []string{"more?"}}},
			expected: []StreamEventType{EventTypeFollowUps},
		},
		{
			name: "delta and follow-ups",
			chunk: StreamChunk{Result: &Result{
				Message:             "x",
				FollowUpSuggestions: []string{},
			}},
			expected: []StreamEventType{EventTypeDelta, EventTypeFollowUps},
		},
		{
			name:     "ids only",
			chunk:    StreamChunk{ConversationID: "c1"},
			expected: []StreamEventType{EventTypeUnrecognized},
		},
		{
			name:     "empty result",
			chunk:    StreamChunk{Result: &Result{}},
			expected: []StreamEventType{EventTypeUnrecognized},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []StreamEventType
			for _, e := range tt.chunk.Events() {
				got = append(got, e.Type)
			}
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestStreamChunkEventsCopyPayload(t *testing.T) {
	chunk := StreamChunk{Result: &Result{
		ImageAttachment:     &ImageAttachment{FileName: "a.jpg"},
		FollowUpSuggestions: []string{"one"},
	}}
	events := chunk.Events()
	require.Len(t, events, 2)

	events[0].Image.FileName = "changed"
	events[1].FollowUps[0] = "changed"
	assert.Equal(t, "a.jpg", chunk.Result.ImageAttachment.FileName)
	assert.Equal(t, "one", chunk.Result.FollowUpSuggestions[0])
}
