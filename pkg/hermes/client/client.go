// Package client publishes and receives typed hermes topics over any
// transport that speaks encoded topic strings, such as the in-process bus
// or a websocket connection.
package client

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/tsarna/hermes/pkg/hermes/bus"
	"github.com/tsarna/hermes/pkg/hermes/topic"
)

// ErrNotCanonical is returned when publishing a topic whose encoding would
// not decode back to the same topic.
var ErrNotCanonical = errors.New("topic is not canonical")

// Transport is anything that can publish on encoded topic strings. Both
// bus.EventBus and the websockets Client satisfy it.
type Transport interface {
	Publish(ctx context.Context, topic string, payload any) error
	PublishSync(ctx context.Context, topic string, payload any) error
}

// Subscribable is anything a bus.Subscriber can be attached to.
type Subscribable interface {
	Subscribe(ctx context.Context, subscriber bus.Subscriber, topic string) error
}

type Publisher struct {
	transport Transport
	logger    *zap.Logger
}

func NewPublisher(transport Transport, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{transport: transport, logger: logger}
}

// Publish encodes t and publishes payload under it without waiting for
// delivery.
func (p *Publisher) Publish(ctx context.Context, t topic.Topic, payload any) error {
	path, err := p.encode(t)
	if err != nil {
		return err
	}
	return p.transport.Publish(ctx, path, payload)
}

// PublishSync is Publish but waits for delivery.
func (p *Publisher) PublishSync(ctx context.Context, t topic.Topic, payload any) error {
	path, err := p.encode(t)
	if err != nil {
		return err
	}
	return p.transport.PublishSync(ctx, path, payload)
}

func (p *Publisher) encode(t topic.Topic) (string, error) {
	if !topic.IsCanonical(t) {
		p.logger.Warn("Refusing to publish non-canonical topic", zap.String("topic", topic.Encode(t)))
		return "", fmt.Errorf("%w: %q", ErrNotCanonical, topic.Encode(t))
	}

	path := topic.Encode(t)
	p.logger.Debug("Publishing", zap.String("topic", path), zap.Stringer("family", t.Family()))
	return path, nil
}

// Subscribe attaches d to target for each of the given topics, using
// topic.Pattern so that an empty site, file or intent name matches any
// value. With no topics, d receives every hermes topic.
func Subscribe(ctx context.Context, target Subscribable, d *Dispatcher, topics ...topic.Topic) error {
	if len(topics) == 0 {
		return target.Subscribe(ctx, d, topic.AllTopics)
	}

	for _, t := range topics {
		pattern := topic.Pattern(t)
		if pattern == "" {
			return fmt.Errorf("cannot subscribe to %#v", t)
		}
		if err := target.Subscribe(ctx, d, pattern); err != nil {
			return fmt.Errorf("subscribing to %s: %w", pattern, err)
		}
	}

	return nil
}
