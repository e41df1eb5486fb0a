package api

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration     = errors.New("configuration error")
	ErrMissingCredential = errors.New("missing credential")
	ErrProtocol          = errors.New("protocol error")
	ErrDecode            = errors.New("decode error")
)

const maxExcerptLength = 512

// ConfigurationError is returned when a client cannot be built from the
// supplied settings. No request is attempted.
type ConfigurationError struct {
	Setting string
	Reason  string
	Missing bool
}

func (e *ConfigurationError) Error() string {
	if e == nil {
		return ErrConfiguration.Error()
	}
	if e.Missing {
		return fmt.Sprintf("%s: %s %q: %s", ErrConfiguration, ErrMissingCredential, e.Setting, e.Reason)
	}
	return fmt.Sprintf("%s (%s): %s", ErrConfiguration, e.Setting, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration || (e.Missing && target == ErrMissingCredential)
}

// ProtocolError reports a response that does not have the expected shape.
type ProtocolError struct {
	Operation  string
	StatusCode int
	Reason     string
	Excerpt    string
}

func (e *ProtocolError) Error() string {
	if e == nil {
		return ErrProtocol.Error()
	}
	msg := fmt.Sprintf("%s in %s: %s", ErrProtocol, e.Operation, e.Reason)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Excerpt != "" {
		msg += ": " + e.Excerpt
	}
	return msg
}

func (e *ProtocolError) Is(target error) bool { return target == ErrProtocol }

// DecodeError describes one stream chunk that could not be decoded. The
// decoder reports and skips these; they never end a stream.
type DecodeError struct {
	ChunkIndex int
	Excerpt    string
	Err        error
}

func (e *DecodeError) Error() string {
	if e == nil {
		return ErrDecode.Error()
	}
	return fmt.Sprintf("%s in chunk %d: %v: %q", ErrDecode, e.ChunkIndex, e.Err, e.Excerpt)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

func excerpt(b []byte) string {
	if len(b) <= maxExcerptLength {
		return string(b)
	}
	return string(b[:maxExcerptLength]) + "..."
}
