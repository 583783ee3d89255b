// Package subutils holds bus.Subscriber wrappers.
package subutils

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tsarna/hermes/pkg/hermes/bus"
)

var (
	ErrQueueFull        = errors.New("subscriber queue is full")
	ErrSubscriberClosed = errors.New("subscriber is closed")
)

// Ticker is implemented by wrapped subscribers that want periodic calls from
// an AsyncQueueingSubscriber configured WithTicker.
type Ticker interface {
	OnTick(ctx context.Context)
}

type asyncKind int

const (
	asyncEvent asyncKind = iota
	asyncSubscribe
	asyncUnsubscribe
)

type asyncMessage struct {
	ctx     context.Context
	kind    asyncKind
	topic   string
	payload any
	fields  map[string]string
}

// AsyncQueueingSubscriber wraps another subscriber and hands it every call
// from a single background goroutine, so the bus never waits on a slow
// consumer such as a websocket connection.
//
// Call Start before subscribing and Close when done; Close processes what is
// still queued.
type AsyncQueueingSubscriber struct {
	wrapped   bus.Subscriber
	queue     chan asyncMessage
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
	ticker    *time.Ticker
}

func NewAsyncQueueingSubscriber(wrapped bus.Subscriber, queueSize int) *AsyncQueueingSubscriber {
	if queueSize <= 0 {
		queueSize = 100
	}

	return &AsyncQueueingSubscriber{
		wrapped: wrapped,
		queue:   make(chan asyncMessage, queueSize),
		done:    make(chan struct{}),
	}
}

// WithTicker calls OnTick on the wrapped subscriber every interval, if it
// implements Ticker. Must be called before Start.
func (a *AsyncQueueingSubscriber) WithTicker(interval time.Duration) *AsyncQueueingSubscriber {
	if _, ok := a.wrapped.(Ticker); ok && interval > 0 && a.ticker == nil {
		a.ticker = time.NewTicker(interval)
	}
	return a
}

func (a *AsyncQueueingSubscriber) Start() *AsyncQueueingSubscriber {
	a.wg.Add(1)
	go a.processQueue()
	return a
}

func (a *AsyncQueueingSubscriber) process(msg asyncMessage) {
	switch msg.kind {
	case asyncSubscribe:
		_ = a.wrapped.OnSubscribe(msg.ctx, msg.topic)
	case asyncUnsubscribe:
		_ = a.wrapped.OnUnsubscribe(msg.ctx, msg.topic)
	case asyncEvent:
		_ = a.wrapped.OnEvent(msg.ctx, msg.topic, msg.payload, msg.fields)
	}
}

func (a *AsyncQueueingSubscriber) processQueue() {
	defer a.wg.Done()

	var tick <-chan time.Time
	if a.ticker != nil {
		tick = a.ticker.C
	}

	for {
		select {
		case msg := <-a.queue:
			a.process(msg)
		case <-tick:
			a.wrapped.(Ticker).OnTick(context.Background())
		case <-a.done:
			a.drainQueue()
			return
		}
	}
}

func (a *AsyncQueueingSubscriber) drainQueue() {
	for {
		select {
		case msg := <-a.queue:
			a.process(msg)
		default:
			return
		}
	}
}

func (a *AsyncQueueingSubscriber) enqueue(msg asyncMessage) error {
	if a.IsClosed() {
		return ErrSubscriberClosed
	}

	select {
	case a.queue <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

func (a *AsyncQueueingSubscriber) OnSubscribe(ctx context.Context, topic string) error {
	return a.enqueue(asyncMessage{ctx: ctx, kind: asyncSubscribe, topic: topic})
}

func (a *AsyncQueueingSubscriber) OnUnsubscribe(ctx context.Context, topic string) error {
	return a.enqueue(asyncMessage{ctx: ctx, kind: asyncUnsubscribe, topic: topic})
}

func (a *AsyncQueueingSubscriber) OnEvent(ctx context.Context, topic string, message any, fields map[string]string) error {
	return a.enqueue(asyncMessage{ctx: ctx, kind: asyncEvent, topic: topic, payload: message, fields: fields})
}

// Close stops the ticker, processes whatever is still queued and waits for
// the background goroutine to exit. It is safe to call more than once.
func (a *AsyncQueueingSubscriber) Close() error {
	a.closeOnce.Do(func() {
		if a.ticker != nil {
			a.ticker.Stop()
		}
		close(a.done)
		a.wg.Wait()
	})
	return nil
}

// QueueSize returns the number of calls waiting to be processed.
func (a *AsyncQueueingSubscriber) QueueSize() int {
	return len(a.queue)
}

func (a *AsyncQueueingSubscriber) QueueCapacity() int {
	return cap(a.queue)
}

func (a *AsyncQueueingSubscriber) IsClosed() bool {
	select {
	case <-a.done:
		return true
	default:
		return false
	}
}
