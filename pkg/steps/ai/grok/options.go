package grok

import (
	"github.com/go-go-golems/grokker/pkg/conversation"
	"github.com/go-go-golems/grokker/pkg/events"
	"github.com/go-go-golems/grokker/pkg/steps/ai/grok/api"
)

type exchangeOptions struct {
	model                string
	imageGenerationCount int
	attachments          []conversation.Attachment
	sinks                []events.EventSink
	repair               bool
	chunkSize            int
	onDecodeError        func(*api.DecodeError)
}

type ExchangeOption func(*exchangeOptions)

func WithModel(model string) ExchangeOption {
	return func(o *exchangeOptions) {
		o.model = model
	}
}

func WithImageGenerationCount(count int) ExchangeOption {
	return func(o *exchangeOptions) {
		o.imageGenerationCount = count
	}
}

// WithAttachments adds uploaded files to the user message.
func WithAttachments(attachments ...conversation.Attachment) ExchangeOption {
	return func(o *exchangeOptions) {
		o.attachments = append(o.attachments, attachments...)
	}
}

// WithEventSink publishes the events of the exchange to sink, in addition to
// any sink attached to the context.
func WithEventSink(sink events.EventSink) ExchangeOption {
	return func(o *exchangeOptions) {
		o.sinks = append(o.sinks, sink)
	}
}

func WithRepair(repair bool) ExchangeOption {
	return func(o *exchangeOptions) {
		o.repair = repair
	}
}

func WithChunkSize(size int) ExchangeOption {
	return func(o *exchangeOptions) {
		o.chunkSize = size
	}
}

func WithDecodeErrorHandler(f func(*api.DecodeError)) ExchangeOption {
	return func(o *exchangeOptions) {
		o.onDecodeError = f
	}
}
