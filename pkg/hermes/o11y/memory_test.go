package o11y

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemory(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	m.Counter("published").Add(ctx, 2)
	m.Counter("published").Add(ctx, 3)
	m.Histogram("latency").Record(ctx, 0.25)
	m.Gauge("subscribers").Set(ctx, 4)
	m.Gauge("subscribers").Set(ctx, 2)

	assert.Equal(t, int64(5), m.CounterValue("published"))
	assert.Equal(t, int64(0), m.CounterValue("missing"))

	snap := m.Snapshot()
	assert.Equal(t, int64(5), snap.Counters["published"])
	assert.Equal(t, []float64{0.25}, snap.Histograms["latency"])
	assert.Equal(t, 2.0, snap.Gauges["subscribers"])
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, Label{Key: "status", Value: "success"}, StatusLabel(nil))
	assert.Equal(t, Label{Key: "status", Value: "error"}, StatusLabel(errors.New("x")))
}

type recordingSpan struct {
	code  SpanStatusCode
	desc  string
	ended bool
}

func (s *recordingSpan) SetAttributes(labels ...Label) {}
func (s *recordingSpan) SetStatus(code SpanStatusCode, description string) {
	s.code, s.desc = code, description
}
func (s *recordingSpan) End() { s.ended = true }

func TestEndSpan(t *testing.T) {
	EndSpan(nil, nil)

	s := &recordingSpan{}
	EndSpan(s, errors.New("failed"))
	assert.True(t, s.ended)
	assert.Equal(t, SpanStatusError, s.code)
	assert.Equal(t, "failed", s.desc)

	s = &recordingSpan{}
	EndSpan(s, nil)
	assert.Equal(t, SpanStatusOK, s.code)
}
