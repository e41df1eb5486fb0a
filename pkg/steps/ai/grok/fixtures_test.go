package grok

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/go-go-golems/grokker/pkg/conversation"
	"github.com/go-go-golems/grokker/pkg/events"
	"github.com/go-go-golems/grokker/pkg/imagemeta"
	"github.com/go-go-golems/grokker/pkg/steps/ai/grok/api"
	"github.com/stretchr/testify/require"
)

// chunkedBody returns one piece per Read, like a transport handing out
// network chunks.
type chunkedBody struct {
	mu     sync.Mutex
	pieces []string
	err    error
	closed bool
	reads  int
}

func newChunkedBody(pieces ...string) *chunkedBody {
	return &chunkedBody{pieces: pieces}
}

func (b *chunkedBody) Read(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return 0, errors.New("read on closed body")
	}
	b.reads++
	if len(b.pieces) == 0 {
		if b.err != nil {
			return 0, b.err
		}
		return 0, io.EOF
	}
	n := copy(p, b.pieces[0])
	b.pieces[0] = b.pieces[0][n:]
	if b.pieces[0] == "" {
		b.pieces = b.pieces[1:]
	}
	return n, nil
}

func (b *chunkedBody) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

func (b *chunkedBody) isClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

type fakeTransport struct {
	conversationID string
	items          []conversation.WireTurn
	itemsErr       error
	body           io.ReadCloser
	nilBody        bool
	sendErr        error
	images         map[string][]byte
	imageErr       error

	requests    []*api.AddResponseRequest
	imageCalls  []string
	createCalls int
}

func (f *fakeTransport) CreateConversation(ctx context.Context) (string, error) {
	f.createCalls++
	return f.conversationID, nil
}

func (f *fakeTransport) ConversationItems(ctx context.Context, conversationID string) ([]conversation.WireTurn, error) {
	return f.items, f.itemsErr
}

func (f *fakeTransport) AddResponse(ctx context.Context, request *api.AddResponseRequest) (io.ReadCloser, error) {
	f.requests = append(f.requests, request)
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	if f.nilBody {
		return nil, nil
	}
	return f.body, nil
}

func (f *fakeTransport) GetImage(ctx context.Context, imageURL string) ([]byte, error) {
	f.imageCalls = append(f.imageCalls, imageURL)
	if f.imageErr != nil {
		return nil, f.imageErr
	}
	data, ok := f.images[imageURL]
	if !ok {
		return nil, &api.ProtocolError{Operation: "GetImage", StatusCode: 404, Reason: "not found"}
	}
	return data, nil
}

var _ Transport = (*fakeTransport)(nil)

func jpegWithComment(comment string) []byte {
	out := []byte{0xFF, 0xD8}
	out = append(out, imagemeta.CommentMarker...)
	length := make([]byte, 2)
	binary.BigEndian.PutUint16(length, uint16(len(comment)+2))
	out = append(out, length...)
	out = append(out, comment...)
	return append(out, 0xFF, 0xD9)
}

func newTestConversation(t *testing.T, transport *fakeTransport, history ...conversation.Turn) *Conversation {
	t.Helper()
	client, err := NewClient(transport)
	require.NoError(t, err)
	return client.Conversation("conv-1", history...)
}

const robotImageURL = "https://ton.x.com/i/ton/data/grok-attachment/robot.jpg"

const robotImageChunk = `{"result":{"imageAttachment":{"fileName":"robot.jpg","mimeType":"image/jpeg","mediaIdStr":"1850","imageUrl":"` + robotImageURL + `"}}}`

func testMetadata() events.EventMetadata {
	return events.EventMetadata{ConversationID: "conv-1", Model: api.DefaultModel}
}
