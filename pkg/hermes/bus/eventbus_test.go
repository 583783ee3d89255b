package bus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/tsarna/hermes/pkg/hermes/o11y"
)

type Event struct {
	Topic   string
	Message any
	Fields  map[string]string
}

// MockSubscriber records every callback it receives.
type MockSubscriber struct {
	BaseSubscriber
	mu              sync.Mutex
	subscriptions   []string
	unsubscriptions []string
	events          []Event
	err             error
}

func (m *MockSubscriber) OnSubscribe(ctx context.Context, topic string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions = append(m.subscriptions, topic)
	return nil
}

func (m *MockSubscriber) OnUnsubscribe(ctx context.Context, topic string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unsubscriptions = append(m.unsubscriptions, topic)
	return nil
}

func (m *MockSubscriber) OnEvent(ctx context.Context, topic string, message any, fields map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, Event{Topic: topic, Message: message, Fields: fields})
	return m.err
}

func (m *MockSubscriber) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Event(nil), m.events...)
}

func (m *MockSubscriber) Unsubscriptions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.unsubscriptions...)
}

func startedBus(t *testing.T, builder *EventBusBuilder) EventBus {
	t.Helper()
	eb, err := builder.WithLogger(zaptest.NewLogger(t)).Build()
	require.NoError(t, err)
	require.NoError(t, eb.Start())
	t.Cleanup(func() { _ = eb.Stop() })
	return eb
}

func TestBuilderValidation(t *testing.T) {
	_, err := NewEventBus().WithBufferSize(0).Build()
	assert.Error(t, err)

	eb, err := NewEventBus().WithName("main").Build()
	require.NoError(t, err)
	assert.NotNil(t, eb)
}

func TestStartStop(t *testing.T) {
	eb, err := NewEventBus().WithLogger(zaptest.NewLogger(t)).Build()
	require.NoError(t, err)

	assert.ErrorIs(t, eb.Stop(), ErrNotStarted)
	assert.ErrorIs(t, eb.Publish(context.Background(), "hermes/asr/toggleOn", nil), ErrNotStarted)

	require.NoError(t, eb.Start())
	assert.ErrorIs(t, eb.Start(), ErrAlreadyStarted)
	require.NoError(t, eb.Stop())
	assert.ErrorIs(t, eb.Subscribe(context.Background(), &MockSubscriber{}, "hermes/#"), ErrNotStarted)
}

func TestRestartAfterStop(t *testing.T) {
	eb, err := NewEventBus().WithLogger(zaptest.NewLogger(t)).Build()
	require.NoError(t, err)

	require.NoError(t, eb.Start())
	require.NoError(t, eb.Stop())

	assert.ErrorIs(t, eb.Start(), ErrStopped)
	assert.ErrorIs(t, eb.Stop(), ErrNotStarted)
	for i := 0; i < 20; i++ {
		assert.ErrorIs(t, eb.Publish(context.Background(), "hermes/tts/say", nil), ErrNotStarted)
	}
}

func TestPublishSyncDelivery(t *testing.T) {
	eb := startedBus(t, NewEventBus())
	ctx := context.Background()

	all := &MockSubscriber{}
	hotword := &MockSubscriber{}
	exact := &MockSubscriber{}

	require.NoError(t, eb.Subscribe(ctx, all, "hermes/#"))
	require.NoError(t, eb.Subscribe(ctx, hotword, "hermes/hotword/+site/detected"))
	require.NoError(t, eb.Subscribe(ctx, exact, "hermes/asr/toggleOn"))

	require.NoError(t, eb.PublishSync(ctx, "hermes/hotword/kitchen/detected", "payload"))
	require.NoError(t, eb.PublishSync(ctx, "hermes/asr/toggleOn", nil))

	assert.Len(t, all.Events(), 2)

	require.Len(t, hotword.Events(), 1)
	assert.Equal(t, map[string]string{"site": "kitchen"}, hotword.Events()[0].Fields)
	assert.Equal(t, "payload", hotword.Events()[0].Message)

	require.Len(t, exact.Events(), 1)
	assert.Nil(t, exact.Events()[0].Fields)
}

func TestOverlappingPatternsDeliverOnce(t *testing.T) {
	eb := startedBus(t, NewEventBus())
	ctx := context.Background()

	sub := &MockSubscriber{}
	require.NoError(t, eb.Subscribe(ctx, sub, "hermes/#"))
	require.NoError(t, eb.Subscribe(ctx, sub, "hermes/tts/+"))

	require.NoError(t, eb.PublishSync(ctx, "hermes/tts/say", nil))
	assert.Len(t, sub.Events(), 1)
}

func TestPublishSyncReturnsSubscriberError(t *testing.T) {
	eb := startedBus(t, NewEventBus())
	ctx := context.Background()

	failing := &MockSubscriber{err: errors.New("boom")}
	require.NoError(t, eb.Subscribe(ctx, failing, "hermes/nlu/query"))

	err := eb.PublishSync(ctx, "hermes/nlu/query", nil)
	assert.EqualError(t, err, "boom")
}

func TestAsyncPublish(t *testing.T) {
	eb := startedBus(t, NewEventBus())
	ctx := context.Background()

	sub := &MockSubscriber{}
	require.NoError(t, eb.Subscribe(ctx, sub, "hermes/audioServer/+/audioFrame"))
	require.NoError(t, eb.Publish(ctx, "hermes/audioServer/default/audioFrame", []byte{1, 2}))

	assert.Eventually(t, func() bool { return len(sub.Events()) == 1 }, time.Second, 5*time.Millisecond)
}

func TestUnsubscribe(t *testing.T) {
	eb := startedBus(t, NewEventBus())
	ctx := context.Background()

	sub := &MockSubscriber{}
	require.NoError(t, eb.Subscribe(ctx, sub, "hermes/tts/say"))
	require.NoError(t, eb.Subscribe(ctx, sub, "hermes/tts/sayFinished"))

	require.NoError(t, eb.Unsubscribe(ctx, sub, "hermes/tts/say"))
	require.NoError(t, eb.PublishSync(ctx, "hermes/tts/say", nil))
	require.NoError(t, eb.PublishSync(ctx, "hermes/tts/sayFinished", nil))
	require.Len(t, sub.Events(), 1)
	assert.Equal(t, "hermes/tts/sayFinished", sub.Events()[0].Topic)

	require.NoError(t, eb.UnsubscribeAll(ctx, sub))
	require.NoError(t, eb.PublishSync(ctx, "hermes/tts/sayFinished", nil))
	assert.Len(t, sub.Events(), 1)
	assert.Equal(t, []string{"hermes/tts/say", ""}, sub.Unsubscriptions())

	// unsubscribing something never subscribed is not an error
	require.NoError(t, eb.Unsubscribe(ctx, &MockSubscriber{}, "hermes/tts/say"))
}

func TestBusAsSubscriber(t *testing.T) {
	upstream := startedBus(t, NewEventBus().WithName("upstream"))
	downstream := startedBus(t, NewEventBus().WithName("downstream"))
	ctx := context.Background()

	sub := &MockSubscriber{}
	require.NoError(t, downstream.Subscribe(ctx, sub, "hermes/#"))
	require.NoError(t, upstream.Subscribe(ctx, downstream, "hermes/intent/+"))

	require.NoError(t, upstream.PublishSync(ctx, "hermes/intent/lights", "on"))
	assert.Eventually(t, func() bool { return len(sub.Events()) == 1 }, time.Second, 5*time.Millisecond)
}

func TestMetrics(t *testing.T) {
	metrics := o11y.NewMemory()
	eb := startedBus(t, NewEventBus().WithMetrics(metrics).WithTracing(&recordingTracer{}))
	ctx := context.Background()

	sub := &MockSubscriber{}
	require.NoError(t, eb.Subscribe(ctx, sub, "hermes/#"))
	require.NoError(t, eb.PublishSync(ctx, "hermes/asr/reload", nil))
	require.NoError(t, eb.Publish(ctx, "hermes/asr/reload", nil))

	assert.Equal(t, int64(1), metrics.CounterValue("eventbus_subscriptions_total"))
	assert.Equal(t, int64(1), metrics.CounterValue("eventbus_messages_published_sync_total"))
	assert.Equal(t, int64(1), metrics.CounterValue("eventbus_messages_published_total"))
	assert.Equal(t, 1.0, metrics.Snapshot().Gauges["eventbus_active_subscribers"])
}

func TestMakeMatcher(t *testing.T) {
	ok, fields := makeMatcher("hermes/asr/toggleOn")("hermes/asr/toggleOn")
	assert.True(t, ok)
	assert.Nil(t, fields)

	ok, _ = makeMatcher("hermes/asr/toggleOn")("hermes/asr/toggleOff")
	assert.False(t, ok)

	ok, _ = makeMatcher("hermes/+/toggleOn")("hermes/nlu/toggleOn")
	assert.True(t, ok)

	ok, fields = makeMatcher("hermes/audioServer/+site/playBytes/+file")("hermes/audioServer/k/playBytes/abc")
	assert.True(t, ok)
	assert.Equal(t, map[string]string{"site": "k", "file": "abc"}, fields)
}

type recordingTracer struct {
	mu    sync.Mutex
	names []string
}

func (r *recordingTracer) StartSpan(ctx context.Context, name string) (context.Context, o11y.Span) {
	r.mu.Lock()
	r.names = append(r.names, name)
	r.mu.Unlock()
	return ctx, nopSpan{}
}

type nopSpan struct{}

func (nopSpan) SetAttributes(labels ...o11y.Label)                     {}
func (nopSpan) SetStatus(code o11y.SpanStatusCode, description string) {}
func (nopSpan) End()                                                   {}

func TestTracingSpanNames(t *testing.T) {
	tracer := &recordingTracer{}
	eb := startedBus(t, NewEventBus().WithTracing(tracer))
	ctx := context.Background()

	require.NoError(t, eb.Subscribe(ctx, &MockSubscriber{}, "hermes/#"))
	require.NoError(t, eb.PublishSync(ctx, "hermes/tts/say", nil))

	tracer.mu.Lock()
	defer tracer.mu.Unlock()
	assert.Equal(t, []string{"eventbus.subscribe", "eventbus.publish_sync"}, tracer.names)
}
