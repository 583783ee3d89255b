package bus

import (
	"context"
	"strings"

	"github.com/amir-yaghoubi/mqttpattern"
)

// Subscriber receives events from an EventBus. OnEvent is called on the bus
// goroutine and must not block for long.
type Subscriber interface {
	OnSubscribe(ctx context.Context, topic string) error
	OnUnsubscribe(ctx context.Context, topic string) error
	OnEvent(ctx context.Context, topic string, message any, fields map[string]string) error
}

// BaseSubscriber implements Subscriber with no-ops, for embedding.
type BaseSubscriber struct{}

func (b *BaseSubscriber) OnSubscribe(ctx context.Context, topic string) error {
	return nil
}

func (b *BaseSubscriber) OnUnsubscribe(ctx context.Context, topic string) error {
	return nil
}

func (b *BaseSubscriber) OnEvent(ctx context.Context, topic string, message any, fields map[string]string) error {
	return nil
}

type matcher func(topic string) (bool, map[string]string)

func makeMatcher(pattern string) matcher {
	if mqttpattern.HasExtractions(pattern) {
		return func(topic string) (bool, map[string]string) {
			if mqttpattern.Matches(pattern, topic) {
				return true, mqttpattern.Extract(pattern, topic)
			}
			return false, nil
		}
	}

	if !strings.ContainsAny(pattern, "+#") {
		// exact match
		return func(topic string) (bool, map[string]string) {
			return topic == pattern, nil
		}
	}

	return func(topic string) (bool, map[string]string) {
		return mqttpattern.Matches(pattern, topic), nil
	}
}
