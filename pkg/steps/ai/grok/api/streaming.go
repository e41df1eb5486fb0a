package api

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/kaptinlin/jsonrepair"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ImageAttachment is announced in a stream when the model generated an image.
type ImageAttachment struct {
	FileName   string `json:"fileName"`
	MimeType   string `json:"mimeType"`
	MediaIDStr string `json:"mediaIdStr"`
	ImageURL   string `json:"imageUrl"`
}

type Result struct {
	Message             string           `json:"message,omitempty"`
	ImageAttachment     *ImageAttachment `json:"imageAttachment,omitempty"`
	FollowUpSuggestions []string         `json:"followUpSuggestions,omitempty"`
}

// StreamChunk is one JSON record of an add_response stream.
type StreamChunk struct {
	ConversationID  string  `json:"conversationId,omitempty"`
	UserChatItemID  string  `json:"userChatItemId,omitempty"`
	AgentChatItemID string  `json:"agentChatItemId,omitempty"`
	Result          *Result `json:"result,omitempty"`

	Raw json.RawMessage `json:"-"`
}

func (s StreamChunk) MarshalZerologObject(e *zerolog.Event) {
	if s.ConversationID != "" {
		e.Str("conversation_id", s.ConversationID)
	}
	if s.Result == nil {
		return
	}
	if s.Result.Message != "" {
		e.Str("message", s.Result.Message)
	}
	if s.Result.ImageAttachment != nil {
		e.Str("image_file_name", s.Result.ImageAttachment.FileName)
		e.Str("image_url", s.Result.ImageAttachment.ImageURL)
	}
	if s.Result.FollowUpSuggestions != nil {
		e.Strs("follow_up_suggestions", s.Result.FollowUpSuggestions)
	}
}

var _ zerolog.LogObjectMarshaler = StreamChunk{}

type StreamEventType string

const (
	EventTypeDelta           StreamEventType = "delta"
	EventTypeImageAttachment StreamEventType = "image-attachment"
	EventTypeFollowUps       StreamEventType = "follow-ups"
	EventTypeUnrecognized    StreamEventType = "unrecognized"
)

// StreamEvent is one typed fact carried by a chunk. Only the field matching
// Type is set.
type StreamEvent struct {
	Type      StreamEventType
	Delta     string
	Image     *ImageAttachment
	FollowUps []string
	Raw       json.RawMessage
}

// Events splits a chunk into its typed events, in field order. A chunk that
// carries none of the known result fields yields a single unrecognized event.
func (s *StreamChunk) Events() []StreamEvent {
	var ret []StreamEvent
	if r := s.Result; r != nil {
		if r.Message != "" {
			ret = append(ret, StreamEvent{Type: EventTypeDelta, Delta: r.Message})
		}
		if r.ImageAttachment != nil {
			img := *r.ImageAttachment
			ret = append(ret, StreamEvent{Type: EventTypeImageAttachment, Image: &img})
		}
		if r.FollowUpSuggestions != nil {
			ret = append(ret, StreamEvent{
				Type:      EventTypeFollowUps,
				FollowUps: append([]string{}, r.FollowUpSuggestions...),
			})
		}
	}
	if len(ret) == 0 {
		ret = append(ret, StreamEvent{Type: EventTypeUnrecognized, Raw: s.Raw})
	}
	return ret
}

// ChunkSource delivers the body of a streaming response in the pieces the
// transport hands out. Pieces are not guaranteed to line up with records.
type ChunkSource interface {
	ReadChunk() ([]byte, error)
}

type readerChunks struct {
	r   io.Reader
	buf []byte
	err error
}

const defaultChunkSize = 32 * 1024

// NewReaderChunks performs one Read per chunk on r.
func NewReaderChunks(r io.Reader, size int) ChunkSource {
	if size <= 0 {
		size = defaultChunkSize
	}
	return &readerChunks{r: r, buf: make([]byte, size)}
}

func (c *readerChunks) ReadChunk() ([]byte, error) {
	if c.err != nil {
		return nil, c.err
	}
	for {
		n, err := c.r.Read(c.buf)
		if n > 0 {
			c.err = err
			return append([]byte(nil), c.buf[:n]...), nil
		}
		if err != nil {
			c.err = err
			return nil, err
		}
	}
}

type DecoderOption func(*Decoder)

// WithRepair makes the decoder attempt a jsonrepair pass on a malformed
// fragment before dropping it.
func WithRepair(repair bool) DecoderOption {
	return func(d *Decoder) {
		d.repair = repair
	}
}

// WithDecodeErrorHandler is called for every dropped fragment.
func WithDecodeErrorHandler(f func(*DecodeError)) DecoderOption {
	return func(d *Decoder) {
		d.onError = f
	}
}

// Decoder turns a ChunkSource into a sequence of StreamChunks.
//
// Every chunk is decoded on its own. A chunk may hold several records one
// after the other; a fragment that does not decode is logged, reported and
// skipped, and decoding resumes with the next chunk. The sequence ends at
// the source's io.EOF and cannot be restarted.
type Decoder struct {
	src     ChunkSource
	repair  bool
	onError func(*DecodeError)

	pending []*StreamChunk
	current *StreamChunk
	err     error
	done    bool

	chunks  int
	decoded int
	dropped int
}

func NewDecoder(src ChunkSource, options ...DecoderOption) *Decoder {
	d := &Decoder{src: src}
	for _, o := range options {
		o(d)
	}
	return d
}

// Next advances to the next record. It returns false at the end of the
// stream or on a transport error, which Err then reports.
func (d *Decoder) Next() bool {
	d.current = nil
	for len(d.pending) == 0 {
		if d.done {
			return false
		}
		data, err := d.src.ReadChunk()
		if len(data) > 0 {
			d.pending = d.decodeChunk(d.chunks, data)
			d.chunks++
		}
		if err != nil {
			d.done = true
			if err != io.EOF {
				d.err = err
			}
			log.Debug().Err(err).
				Int("chunks", d.chunks).
				Int("decoded", d.decoded).
				Int("dropped", d.dropped).
				Msg("Stream decoder finished")
		}
	}
	d.current = d.pending[0]
	d.pending = d.pending[1:]
	return true
}

func (d *Decoder) Chunk() *StreamChunk {
	return d.current
}

func (d *Decoder) Err() error {
	return d.err
}

// Dropped is the number of fragments skipped so far.
func (d *Decoder) Dropped() int {
	return d.dropped
}

func (d *Decoder) decodeChunk(index int, data []byte) []*StreamChunk {
	var ret []*StreamChunk
	dec := json.NewDecoder(bytes.NewReader(data))
	for {
		start := dec.InputOffset()
		var raw json.RawMessage
		err := dec.Decode(&raw)
		if err == io.EOF {
			return ret
		}
		if err == nil {
			var chunk *StreamChunk
			chunk, err = parseChunk(raw)
			if err == nil {
				d.decoded++
				ret = append(ret, chunk)
				continue
			}
		}

		fragment := data[start:]
		if d.repair {
			if chunk, ok := repairChunk(fragment); ok {
				log.Debug().Int("chunk", index).Msg("Repaired malformed stream fragment")
				d.decoded++
				return append(ret, chunk)
			}
		}

		d.dropped++
		decodeErr := &DecodeError{ChunkIndex: index, Excerpt: excerpt(fragment), Err: err}
		log.Warn().Err(decodeErr).Int("chunk", index).Msg("Failed to parse stream chunk")
		if d.onError != nil {
			d.onError(decodeErr)
		}
		return ret
	}
}

func parseChunk(raw json.RawMessage) (*StreamChunk, error) {
	chunk := &StreamChunk{}
	if err := json.Unmarshal(raw, chunk); err != nil {
		return nil, err
	}
	chunk.Raw = append(json.RawMessage(nil), raw...)
	return chunk, nil
}

func repairChunk(fragment []byte) (*StreamChunk, bool) {
	fixed, err := jsonrepair.JSONRepair(string(fragment))
	if err != nil {
		return nil, false
	}
	chunk, err := parseChunk(json.RawMessage(fixed))
	if err != nil {
		return nil, false
	}
	return chunk, true
}
