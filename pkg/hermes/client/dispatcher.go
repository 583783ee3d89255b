package client

import (
	"context"

	"go.uber.org/zap"

	"github.com/tsarna/hermes/pkg/hermes/bus"
	"github.com/tsarna/hermes/pkg/hermes/o11y"
	"github.com/tsarna/hermes/pkg/hermes/topic"
)

// Handler receives decoded hermes topics.
type Handler interface {
	HandleTopic(ctx context.Context, t topic.Topic, payload any) error
}

type HandlerFunc func(ctx context.Context, t topic.Topic, payload any) error

func (f HandlerFunc) HandleTopic(ctx context.Context, t topic.Topic, payload any) error {
	return f(ctx, t, payload)
}

// UnrecognizedHandler receives events whose topic did not decode.
type UnrecognizedHandler func(ctx context.Context, path string, payload any) error

// Dispatcher is a bus.Subscriber that decodes the topic of every event it
// receives and passes the result to a Handler.
type Dispatcher struct {
	bus.BaseSubscriber

	handler      Handler
	unrecognized UnrecognizedHandler
	logger       *zap.Logger

	dispatchedCounter   o11y.Counter
	unrecognizedCounter o11y.Counter
}

func NewDispatcher(handler Handler) *Dispatcher {
	return &Dispatcher{
		handler: handler,
		logger:  zap.NewNop(),
	}
}

func (d *Dispatcher) WithLogger(logger *zap.Logger) *Dispatcher {
	if logger != nil {
		d.logger = logger
	}
	return d
}

func (d *Dispatcher) WithMetrics(provider o11y.MetricsProvider) *Dispatcher {
	if provider != nil {
		d.dispatchedCounter = provider.Counter("hermes_topics_dispatched_total")
		d.unrecognizedCounter = provider.Counter("hermes_topics_unrecognized_total")
	}
	return d
}

// WithUnrecognized sets the handler for undecodable topics. Without one
// they are counted, logged at debug and dropped.
func (d *Dispatcher) WithUnrecognized(h UnrecognizedHandler) *Dispatcher {
	d.unrecognized = h
	return d
}

func (d *Dispatcher) OnEvent(ctx context.Context, path string, message any, fields map[string]string) error {
	t, ok := topic.Decode(path)
	if !ok {
		if d.unrecognizedCounter != nil {
			d.unrecognizedCounter.Add(ctx, 1)
		}
		if d.unrecognized != nil {
			return d.unrecognized(ctx, path, message)
		}
		d.logger.Debug("Dropping unrecognized topic", zap.String("topic", path))
		return nil
	}

	if d.dispatchedCounter != nil {
		d.dispatchedCounter.Add(ctx, 1, o11y.Label{Key: "family", Value: t.Family().Path()})
	}

	return d.handler.HandleTopic(ctx, t, message)
}
