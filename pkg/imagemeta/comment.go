// Package imagemeta recovers the generation prompts that are embedded as a
// comment segment in images produced by the image generator.
package imagemeta

import (
	"bytes"
	"encoding/binary"
	"strings"
	"unicode/utf8"
)

// CommentMarker identifies a JPEG COM segment.
var CommentMarker = []byte{0xFF, 0xFE}

// ExtractComment returns the text of the first comment segment in data.
//
// A buffer without a comment marker yields an empty string and no error.
// The two bytes after the marker hold the big-endian segment length, which
// counts itself but not the marker.
func ExtractComment(data []byte) (string, error) {
	offset := bytes.Index(data, CommentMarker)
	if offset < 0 {
		return "", nil
	}

	if offset+4 > len(data) {
		return "", &BinaryFormatError{
			Offset: offset,
			Size:   len(data),
			Reason: "truncated length field",
		}
	}

	length := int(binary.BigEndian.Uint16(data[offset+2 : offset+4]))
	if length < 2 {
		return "", &BinaryFormatError{
			Offset:   offset,
			Declared: length,
			Size:     len(data),
			Reason:   "length field smaller than itself",
		}
	}

	end := offset + 2 + length
	if end > len(data) {
		return "", &BinaryFormatError{
			Offset:   offset,
			Declared: length,
			Size:     len(data),
			Reason:   "length field points past end of buffer",
		}
	}

	payload := data[offset+4 : end]
	if !utf8.Valid(payload) {
		return strings.ToValidUTF8(string(payload), "�"), nil
	}
	return string(payload), nil
}
