package events

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ChatEventHandler receives the decoded events of an exchange.
type ChatEventHandler interface {
	HandlePartialCompletion(ctx context.Context, e *EventPartialCompletion) error
	HandleImageAttachment(ctx context.Context, e *EventImageAttachment) error
	HandleFollowUps(ctx context.Context, e *EventFollowUps) error
	HandleFinal(ctx context.Context, e *EventFinal) error
	HandleError(ctx context.Context, e *EventError) error
	HandleInterrupt(ctx context.Context, e *EventInterrupt) error
}

// EventRouter fans the events of exchanges out to handlers over an
// in-process watermill pubsub. Publishing blocks until every handler has
// acked the message, so a sink returning means the handlers saw the event.
type EventRouter struct {
	logger  watermill.LoggerAdapter
	pubSub  *gochannel.GoChannel
	router  *message.Router
	verbose bool
	output  io.Writer

	closeOnce sync.Once
	closeErr  error
}

type EventRouterOption func(*EventRouter)

func WithLogger(logger watermill.LoggerAdapter) EventRouterOption {
	return func(r *EventRouter) {
		r.logger = logger
	}
}

// WithVerbose keeps the full metadata in DumpRawEvents and routes the
// watermill logs to zerolog.
func WithVerbose(verbose bool) EventRouterOption {
	return func(r *EventRouter) {
		r.verbose = verbose
		if verbose {
			r.logger = NewWatermill(log.Logger)
		}
	}
}

// WithOutput sets where DumpRawEvents writes.
func WithOutput(w io.Writer) EventRouterOption {
	return func(r *EventRouter) {
		r.output = w
	}
}

func NewEventRouter(options ...EventRouterOption) (*EventRouter, error) {
	ret := &EventRouter{
		logger: watermill.NopLogger{},
		output: os.Stdout,
	}
	for _, o := range options {
		o(ret)
	}

	ret.pubSub = gochannel.NewGoChannel(gochannel.Config{
		BlockPublishUntilSubscriberAck: true,
	}, ret.logger)

	router, err := message.NewRouter(message.RouterConfig{}, ret.logger)
	if err != nil {
		return nil, errors.Wrap(err, "could not create watermill router")
	}
	ret.router = router

	return ret, nil
}

// NewSink returns a sink that publishes to topic on this router.
func (e *EventRouter) NewSink(topic string) *WatermillSink {
	return NewWatermillSink(e.pubSub, topic)
}

func (e *EventRouter) AddHandler(name string, topic string, f func(msg *message.Message) error) {
	e.router.AddNoPublisherHandler(name, topic, e.pubSub, f)
}

// RegisterChatEventHandler dispatches the events published on topic to the
// matching method of handler.
func (e *EventRouter) RegisterChatEventHandler(name string, topic string, handler ChatEventHandler) {
	e.AddHandler(name, topic, chatDispatchHandler(handler))
}

func chatDispatchHandler(handler ChatEventHandler) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		ev, err := NewEventFromJson(msg.Payload)
		if err != nil {
			// one bad message must not stop the handler
			log.Error().Err(err).
				Str("message_id", msg.UUID).
				Str("payload", string(msg.Payload)).
				Msg("Could not decode chat event")
			return nil
		}

		ctx := msg.Context()
		switch ev_ := ev.(type) {
		case *EventPartialCompletion:
			err = handler.HandlePartialCompletion(ctx, ev_)
		case *EventImageAttachment:
			err = handler.HandleImageAttachment(ctx, ev_)
		case *EventFollowUps:
			err = handler.HandleFollowUps(ctx, ev_)
		case *EventFinal:
			err = handler.HandleFinal(ctx, ev_)
		case *EventError:
			err = handler.HandleError(ctx, ev_)
		case *EventInterrupt:
			err = handler.HandleInterrupt(ctx, ev_)
		default:
			log.Trace().Str("event_type", string(ev.Type())).Msg("No chat handler for event")
		}
		if err != nil {
			log.Error().Err(err).Str("event_type", string(ev.Type())).Msg("Chat handler failed")
		}
		return err
	}
}

// DumpRawEvents prints every event as indented JSON. Unless verbose, the
// metadata is reduced to the message id.
func (e *EventRouter) DumpRawEvents(msg *message.Message) error {
	defer msg.Ack()

	var s map[string]interface{}
	if err := json.Unmarshal(msg.Payload, &s); err != nil {
		return err
	}
	if !e.verbose {
		if meta, ok := s["meta"].(map[string]interface{}); ok {
			s["id"] = meta["message_id"]
		}
		delete(s, "meta")
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(e.output, string(b))
	return err
}

// Running is closed once the handlers are subscribed.
func (e *EventRouter) Running() chan struct{} {
	return e.router.Running()
}

func (e *EventRouter) Run(ctx context.Context) error {
	return e.router.Run(ctx)
}

// RunWith runs the router and f side by side. f is started once the
// handlers are subscribed and the router is closed when f returns. The
// first error of either side is returned.
func (e *EventRouter) RunWith(ctx context.Context, f func(ctx context.Context) error) error {
	eg, groupCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		defer func() {
			_ = e.Close()
		}()
		select {
		case <-e.router.Running():
		case <-groupCtx.Done():
			return groupCtx.Err()
		}
		return f(groupCtx)
	})
	eg.Go(func() error {
		return e.router.Run(groupCtx)
	})
	return eg.Wait()
}

// Close stops the pubsub and the router. It may be called more than once.
func (e *EventRouter) Close() error {
	e.closeOnce.Do(func() {
		if err := e.pubSub.Close(); err != nil {
			e.closeErr = errors.Wrap(err, "could not close pubsub")
		}
		if err := e.router.Close(); err != nil && e.closeErr == nil {
			e.closeErr = errors.Wrap(err, "could not close router")
		}
		log.Debug().Err(e.closeErr).Msg("Closed event router")
	})
	return e.closeErr
}
