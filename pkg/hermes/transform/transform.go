// Package transform rewrites or filters messages on their way between the
// bus and a consumer.
package transform

import (
	"context"

	"github.com/amir-yaghoubi/mqttpattern"

	"github.com/tsarna/hermes/pkg/hermes/bus"
	"github.com/tsarna/hermes/pkg/hermes/topic"
)

// Message is a single event as seen by a transform.
type Message struct {
	Ctx     context.Context
	Topic   string
	Payload any
}

// Func transforms a message. Returning nil drops it; returning false stops
// the chain and passes the message on unchanged by later transforms.
type Func func(msg *Message) (*Message, bool)

// Apply runs funcs in order and returns the resulting message, or nil if
// one of them dropped it.
func Apply(msg *Message, funcs ...Func) *Message {
	for _, f := range funcs {
		var cont bool
		msg, cont = f(msg)
		if msg == nil || !cont {
			return msg
		}
	}
	return msg
}

// Chain combines funcs into a single Func.
func Chain(funcs ...Func) Func {
	return func(msg *Message) (*Message, bool) {
		out := Apply(msg, funcs...)
		return out, out != nil
	}
}

// DropPattern drops messages whose topic matches the MQTT pattern.
func DropPattern(pattern string) Func {
	return func(msg *Message) (*Message, bool) {
		if mqttpattern.Matches(pattern, msg.Topic) {
			return nil, false
		}
		return msg, true
	}
}

// DropUnrecognized drops messages whose topic is not a hermes topic.
func DropUnrecognized() Func {
	return func(msg *Message) (*Message, bool) {
		if _, ok := topic.Decode(msg.Topic); !ok {
			return nil, false
		}
		return msg, true
	}
}

// DropFamilies drops hermes topics of the given families. Audio frames are
// the usual candidate.
func DropFamilies(families ...topic.Family) Func {
	drop := make(map[topic.Family]bool, len(families))
	for _, f := range families {
		drop[f] = true
	}

	return func(msg *Message) (*Message, bool) {
		if t, ok := topic.Decode(msg.Topic); ok && drop[t.Family()] {
			return nil, false
		}
		return msg, true
	}
}

// Subscriber applies a transform to every event before handing it to the
// wrapped subscriber. Dropped events are not delivered.
type Subscriber struct {
	wrapped   bus.Subscriber
	transform Func
}

func NewSubscriber(wrapped bus.Subscriber, funcs ...Func) *Subscriber {
	return &Subscriber{wrapped: wrapped, transform: Chain(funcs...)}
}

func (s *Subscriber) OnSubscribe(ctx context.Context, topic string) error {
	return s.wrapped.OnSubscribe(ctx, topic)
}

func (s *Subscriber) OnUnsubscribe(ctx context.Context, topic string) error {
	return s.wrapped.OnUnsubscribe(ctx, topic)
}

func (s *Subscriber) OnEvent(ctx context.Context, topic string, message any, fields map[string]string) error {
	out, _ := s.transform(&Message{Ctx: ctx, Topic: topic, Payload: message})
	if out == nil {
		return nil
	}
	return s.wrapped.OnEvent(out.Ctx, out.Topic, out.Payload, fields)
}
