package transform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/tsarna/hermes/pkg/hermes/bus"
	"github.com/tsarna/hermes/pkg/hermes/message"
	"github.com/tsarna/hermes/pkg/hermes/topic"
)

func msg(topic string, payload any) *Message {
	return &Message{Ctx: context.Background(), Topic: topic, Payload: payload}
}

func TestDropFuncs(t *testing.T) {
	frames := DropFamilies(topic.FamilyAudioServer)
	out, _ := frames(msg("hermes/audioServer/default/audioFrame", nil))
	assert.Nil(t, out)
	out, _ = frames(msg("hermes/asr/toggleOn", nil))
	assert.NotNil(t, out)
	out, _ = frames(msg("other/audioServer", nil))
	assert.NotNil(t, out)

	out, _ = DropUnrecognized()(msg("hermes/asr/nope", nil))
	assert.Nil(t, out)

	out, _ = DropPattern("hermes/+/version")(msg("hermes/tts/version", nil))
	assert.Nil(t, out)
}

func TestApplyStopsOnFalse(t *testing.T) {
	rename := func(m *Message) (*Message, bool) {
		return &Message{Ctx: m.Ctx, Topic: m.Topic, Payload: "renamed"}, false
	}
	never := func(m *Message) (*Message, bool) {
		t.Fatal("called after chain stopped")
		return m, true
	}

	out := Apply(msg("hermes/tts/say", nil), rename, never)
	require.NotNil(t, out)
	assert.Equal(t, "renamed", out.Payload)
}

func TestJq(t *testing.T) {
	logger := zaptest.NewLogger(t)

	f, err := Jq(`{text: .text, family: $family, site: $site, topic: $topic}`, logger)
	require.NoError(t, err)

	out, ok := f(msg("hermes/tts/say", &message.SayMessage{Text: "hello", SiteID: "default"}))
	require.True(t, ok)
	assert.Equal(t, map[string]any{
		"text":   "hello",
		"family": "tts",
		"site":   nil,
		"topic":  "hermes/tts/say",
	}, out.Payload)

	f, err = Jq(`$site`, logger)
	require.NoError(t, err)
	out, _ = f(msg("hermes/hotword/kitchen/detected", []byte(`{"siteId":"kitchen"}`)))
	assert.Equal(t, "kitchen", out.Payload)
}

func TestJqResults(t *testing.T) {
	logger := zaptest.NewLogger(t)

	f, err := Jq(`.[] | select(. > 1)`, logger)
	require.NoError(t, err)

	out, _ := f(msg("x", `[1,2,3]`))
	assert.Equal(t, []any{float64(2), float64(3)}, out.Payload)

	out, _ = f(msg("x", `[0,1]`))
	assert.Nil(t, out)

	// a runtime error passes the message through
	f, err = Jq(`.a.b`, logger)
	require.NoError(t, err)
	original := msg("x", "plain text")
	out, ok := f(original)
	assert.True(t, ok)
	assert.Same(t, original, out)

	_, err = Jq(`{`, logger)
	assert.Error(t, err)
}

type sink struct {
	bus.BaseSubscriber
	payloads []any
}

func (s *sink) OnEvent(ctx context.Context, topic string, message any, fields map[string]string) error {
	s.payloads = append(s.payloads, message)
	return nil
}

func TestSubscriber(t *testing.T) {
	out := &sink{}
	jq, err := Jq(`.siteId`, nil)
	require.NoError(t, err)

	s := NewSubscriber(out, DropFamilies(topic.FamilyAudioServer), jq)
	ctx := context.Background()

	require.NoError(t, s.OnEvent(ctx, "hermes/audioServer/default/audioFrame", []byte("{}"), nil))
	require.NoError(t, s.OnEvent(ctx, "hermes/hotword/default/detected", map[string]string{"siteId": "default"}, nil))

	assert.Equal(t, []any{"default"}, out.payloads)
}
