package grok

import "github.com/pkg/errors"

var (
	// ErrExchangeInProgress is returned when a conversation is asked to start
	// an exchange while another one is still streaming.
	ErrExchangeInProgress = errors.New("an exchange is already in progress on this conversation")
	// ErrExchangeAbandoned is the error of an exchange closed before its
	// stream was drained.
	ErrExchangeAbandoned = errors.New("exchange abandoned before the end of the stream")
	// ErrNoImageURL is returned when the bytes of an attachment without URL
	// are requested.
	ErrNoImageURL = errors.New("attachment has no URL")
)
