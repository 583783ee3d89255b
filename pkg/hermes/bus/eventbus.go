// Package bus is an in-process publish/subscribe bus keyed by MQTT-style
// topic patterns. Hermes topics are published on it in their encoded form.
package bus

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/tsarna/hermes/pkg/hermes/o11y"
)

var (
	ErrNotStarted     = errors.New("event bus not started")
	ErrAlreadyStarted = errors.New("event bus already started")
	ErrStopped        = errors.New("event bus stopped")
	ErrFull           = errors.New("event bus channel full")
)

type EventBus interface {
	Subscriber // an EventBus can be subscribed to another one

	Start() error
	Stop() error

	Subscribe(ctx context.Context, subscriber Subscriber, topic string) error
	Unsubscribe(ctx context.Context, subscriber Subscriber, topic string) error
	UnsubscribeAll(ctx context.Context, subscriber Subscriber) error

	Publish(ctx context.Context, topic string, payload any) error
	PublishSync(ctx context.Context, topic string, payload any) error
}

type opKind int

const (
	opEvent opKind = iota
	opEventSync
	opSubscribe
	opUnsubscribe
	opUnsubscribeAll
)

func (k opKind) String() string {
	switch k {
	case opEvent:
		return "publish"
	case opEventSync:
		return "publish_sync"
	case opSubscribe:
		return "subscribe"
	case opUnsubscribe:
		return "unsubscribe"
	case opUnsubscribeAll:
		return "unsubscribe_all"
	}
	return "unknown"
}

// request is the single message type carried on the bus channel. reply is
// nil for asynchronous publishes.
type request struct {
	ctx        context.Context
	kind       opKind
	topic      string
	payload    any
	subscriber Subscriber
	reply      chan error
}

type basicEventBus struct {
	name          string
	ch            chan request
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	started       int32
	stopped       int32
	subscriptions map[Subscriber]map[string]matcher
	logger        *zap.Logger

	tracingProvider o11y.TracingProvider

	// nil if no metrics provider is configured
	publishCounter     o11y.Counter
	publishSyncCounter o11y.Counter
	subscribeCounter   o11y.Counter
	unsubscribeCounter o11y.Counter
	errorCounter       o11y.Counter
	latencyHistogram   o11y.Histogram
	subscriberGauge    o11y.Gauge
}

func (b *basicEventBus) setupMetrics(provider o11y.MetricsProvider) {
	b.publishCounter = provider.Counter("eventbus_messages_published_total")
	b.publishSyncCounter = provider.Counter("eventbus_messages_published_sync_total")
	b.subscribeCounter = provider.Counter("eventbus_subscriptions_total")
	b.unsubscribeCounter = provider.Counter("eventbus_unsubscriptions_total")
	b.errorCounter = provider.Counter("eventbus_errors_total")
	b.latencyHistogram = provider.Histogram("eventbus_publish_duration_seconds")
	b.subscriberGauge = provider.Gauge("eventbus_active_subscribers")
}

// Start begins the goroutine that owns the subscription table. A bus cannot
// be started again once stopped.
func (b *basicEventBus) Start() error {
	if atomic.LoadInt32(&b.stopped) == 1 {
		return ErrStopped
	}
	if !atomic.CompareAndSwapInt32(&b.started, 0, 1) {
		return ErrAlreadyStarted
	}

	b.wg.Add(1)
	go b.run()

	return nil
}

func (b *basicEventBus) run() {
	defer b.wg.Done()
	b.logger.Info("EventBus started", zap.String("bus", b.name))

	for {
		select {
		case req := <-b.ch:
			err := b.handle(req)
			if req.reply != nil {
				req.reply <- err
			}
			if err != nil {
				b.logger.Error("EventBus operation failed",
					zap.String("operation", req.kind.String()),
					zap.String("topic", req.topic),
					zap.Error(err),
				)
				if b.errorCounter != nil {
					b.errorCounter.Add(req.ctx, 1,
						o11y.Label{Key: "operation", Value: req.kind.String()},
					)
				}
			}
		case <-b.ctx.Done():
			b.logger.Info("EventBus stopping", zap.String("bus", b.name))
			return
		}
	}
}

func (b *basicEventBus) handle(req request) error {
	switch req.kind {
	case opEvent, opEventSync:
		return b.deliver(req)
	case opSubscribe:
		return b.doSubscribe(req)
	case opUnsubscribe:
		return b.doUnsubscribe(req)
	case opUnsubscribeAll:
		return b.doUnsubscribeAll(req)
	}
	return nil
}

// deliver calls OnEvent once per subscriber whose patterns match, returning
// the first error and logging any others.
func (b *basicEventBus) deliver(req request) error {
	var first error

	for subscriber, matchers := range b.subscriptions {
		for _, match := range matchers {
			ok, fields := match(req.topic)
			if !ok {
				continue
			}
			if err := subscriber.OnEvent(req.ctx, req.topic, req.payload, fields); err != nil {
				if first == nil {
					first = err
				} else {
					b.logger.Error("Error in OnEvent", zap.String("topic", req.topic), zap.Error(err))
				}
			}
			break
		}
	}

	return first
}

func (b *basicEventBus) doSubscribe(req request) error {
	current, ok := b.subscriptions[req.subscriber]
	if !ok {
		current = make(map[string]matcher)
		b.subscriptions[req.subscriber] = current
	}
	current[req.topic] = makeMatcher(req.topic)
	b.updateSubscriberGauge(req.ctx)

	return req.subscriber.OnSubscribe(req.ctx, req.topic)
}

func (b *basicEventBus) doUnsubscribe(req request) error {
	current, ok := b.subscriptions[req.subscriber]
	if !ok {
		return nil // not subscribed is not an error
	}

	delete(current, req.topic)
	if len(current) == 0 {
		delete(b.subscriptions, req.subscriber)
	}
	b.updateSubscriberGauge(req.ctx)

	return req.subscriber.OnUnsubscribe(req.ctx, req.topic)
}

func (b *basicEventBus) doUnsubscribeAll(req request) error {
	count := len(b.subscriptions[req.subscriber])
	delete(b.subscriptions, req.subscriber)
	b.updateSubscriberGauge(req.ctx)

	b.logger.Debug("UnsubscribeAll completed", zap.Int("subscription_count", count))
	return req.subscriber.OnUnsubscribe(req.ctx, "")
}

func (b *basicEventBus) updateSubscriberGauge(ctx context.Context) {
	if b.subscriberGauge != nil {
		b.subscriberGauge.Set(ctx, float64(len(b.subscriptions)))
	}
}

// Publish queues an event and returns without waiting for delivery. The
// event is dropped with ErrFull when the channel buffer is exhausted.
func (b *basicEventBus) Publish(ctx context.Context, topic string, payload any) error {
	ctx, span := b.startSpan(ctx, opEvent, topic)

	err := b.enqueue(request{ctx: ctx, kind: opEvent, topic: topic, payload: payload})
	if b.publishCounter != nil {
		b.publishCounter.Add(ctx, 1, o11y.Label{Key: "topic", Value: topic}, o11y.StatusLabel(err))
	}

	o11y.EndSpan(span, err)
	return err
}

// PublishSync delivers an event and waits until every matching subscriber
// has handled it, returning the first subscriber error.
func (b *basicEventBus) PublishSync(ctx context.Context, topic string, payload any) error {
	start := time.Now()
	err := b.roundTrip(ctx, opEventSync, topic, payload, nil, b.publishSyncCounter)

	if b.latencyHistogram != nil {
		b.latencyHistogram.Record(orBackground(ctx), time.Since(start).Seconds(), o11y.Label{Key: "topic", Value: topic})
	}
	return err
}

func (b *basicEventBus) Subscribe(ctx context.Context, subscriber Subscriber, topic string) error {
	return b.roundTrip(ctx, opSubscribe, topic, nil, subscriber, b.subscribeCounter)
}

func (b *basicEventBus) Unsubscribe(ctx context.Context, subscriber Subscriber, topic string) error {
	return b.roundTrip(ctx, opUnsubscribe, topic, nil, subscriber, b.unsubscribeCounter)
}

func (b *basicEventBus) UnsubscribeAll(ctx context.Context, subscriber Subscriber) error {
	return b.roundTrip(ctx, opUnsubscribeAll, "*", nil, subscriber, b.unsubscribeCounter)
}

func (b *basicEventBus) roundTrip(ctx context.Context, kind opKind, topic string, payload any, subscriber Subscriber, counter o11y.Counter) error {
	ctx, span := b.startSpan(ctx, kind, topic)

	reply := make(chan error, 1)
	err := b.enqueue(request{
		ctx:        ctx,
		kind:       kind,
		topic:      topic,
		payload:    payload,
		subscriber: subscriber,
		reply:      reply,
	})
	if err == nil {
		select {
		case err = <-reply:
		case <-b.ctx.Done():
			err = ErrStopped
		}
	}

	if counter != nil {
		counter.Add(ctx, 1, o11y.Label{Key: "topic", Value: topic}, o11y.StatusLabel(err))
	}
	o11y.EndSpan(span, err)

	return err
}

func (b *basicEventBus) startSpan(ctx context.Context, kind opKind, topic string) (context.Context, o11y.Span) {
	ctx = orBackground(ctx)
	if b.tracingProvider == nil {
		return ctx, nil
	}

	ctx, span := b.tracingProvider.StartSpan(ctx, "eventbus."+kind.String())
	span.SetAttributes(
		o11y.Label{Key: "topic", Value: topic},
		o11y.Label{Key: "operation", Value: kind.String()},
	)
	return ctx, span
}

func (b *basicEventBus) enqueue(req request) error {
	if atomic.LoadInt32(&b.started) == 0 {
		b.logger.Warn("Event bus not started, message ignored", zap.String("topic", req.topic))
		return ErrNotStarted
	}

	select {
	case b.ch <- req:
		return nil
	case <-b.ctx.Done():
		b.logger.Debug("EventBus stopped, message ignored", zap.String("topic", req.topic))
		return ErrStopped
	default:
		b.logger.Warn("Event bus channel full, message dropped", zap.String("topic", req.topic))
		return ErrFull
	}
}

// Stop shuts down the bus goroutine. Queued events are discarded.
func (b *basicEventBus) Stop() error {
	if !atomic.CompareAndSwapInt32(&b.started, 1, 0) {
		return ErrNotStarted
	}
	atomic.StoreInt32(&b.stopped, 1)

	b.cancel()
	b.wg.Wait()

	b.logger.Info("EventBus stopped", zap.String("bus", b.name))
	return nil
}

// Events received from another bus are republished on this one.
func (b *basicEventBus) OnEvent(ctx context.Context, topic string, message any, fields map[string]string) error {
	return b.Publish(ctx, topic, message)
}

func (b *basicEventBus) OnSubscribe(ctx context.Context, topic string) error {
	return nil
}

func (b *basicEventBus) OnUnsubscribe(ctx context.Context, topic string) error {
	return nil
}

func orBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
