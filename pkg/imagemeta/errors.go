package imagemeta

import (
	"errors"
	"fmt"
)

var ErrBinaryFormat = errors.New("binary format error")

// BinaryFormatError reports a comment segment whose length field does not fit the buffer.
type BinaryFormatError struct {
	Offset   int
	Declared int
	Size     int
	Reason   string
}

func (e *BinaryFormatError) Error() string {
	if e == nil {
		return ErrBinaryFormat.Error()
	}
	return fmt.Sprintf("%s: %s (marker at %d, declared length %d, buffer size %d)",
		ErrBinaryFormat, e.Reason, e.Offset, e.Declared, e.Size)
}

func (e *BinaryFormatError) Is(target error) bool { return target == ErrBinaryFormat }
