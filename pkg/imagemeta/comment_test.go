package imagemeta

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// jpegWithComment builds a minimal SOI + COM + EOI byte sequence.
func jpegWithComment(comment string) []byte {
	out := []byte{0xFF, 0xD8}
	out = append(out, CommentMarker...)
	length := make([]byte, 2)
	binary.BigEndian.PutUint16(length, uint16(len(comment)+2))
	out = append(out, length...)
	out = append(out, comment...)
	return append(out, 0xFF, 0xD9)
}

func TestExtractComment(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected string
	}{
		{name: "no marker", data: []byte{0xFF, 0xD8, 0x00, 0x01, 0xFF, 0xD9}},
		{name: "empty buffer", data: nil},
		{name: "empty comment", data: jpegWithComment("")},
		{name: "ascii comment", data: jpegWithComment("hello"), expected: "hello"},
		{name: "utf8 comment", data: jpegWithComment("ünïcødé ✓"), expected: "ünïcødé ✓"},
		{
			name:     "multiline comment",
			data:     jpegWithComment("line one\nline two"),
			expected: "line one\nline two",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractComment(tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestExtractCommentUsesFirstMarker(t *testing.T) {
	data := append(jpegWithComment("first"), jpegWithComment("second")...)
	got, err := ExtractComment(data)
	require.NoError(t, err)
	assert.Equal(t, "first", got)
}

func TestExtractCommentRejectsOutOfBoundsLength(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "length past end", data: []byte{0xFF, 0xFE, 0x00, 0x10, 'a', 'b'}},
		{name: "truncated length field", data: []byte{0x00, 0xFF, 0xFE, 0x00}},
		{name: "length smaller than field", data: []byte{0xFF, 0xFE, 0x00, 0x01, 'a'}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractComment(tt.data)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrBinaryFormat)
			var bfe *BinaryFormatError
			require.ErrorAs(t, err, &bfe)
			assert.Equal(t, len(tt.data), bfe.Size)
			assert.Empty(t, got)
		})
	}
}

func TestExtractCommentExactFit(t *testing.T) {
	data := []byte{0xFF, 0xFE, 0x00, 0x05, 'a', 'b', 'c'}
	got, err := ExtractComment(data)
	require.NoError(t, err)
	assert.Equal(t, "abc", got)
}
