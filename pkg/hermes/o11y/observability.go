// Package o11y defines the metrics and tracing hooks used by the hermes bus
// and its clients. Any backend can be plugged in; see the otel package for
// OpenTelemetry and Memory for an in-process provider.
package o11y

import (
	"context"
)

// MetricsProvider creates named instruments.
type MetricsProvider interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
	Gauge(name string) Gauge
}

// TracingProvider starts spans.
type TracingProvider interface {
	StartSpan(ctx context.Context, name string) (context.Context, Span)
}

// Counter represents a monotonically increasing metric
type Counter interface {
	Add(ctx context.Context, value int64, labels ...Label)
}

// Histogram records distribution of values
type Histogram interface {
	Record(ctx context.Context, value float64, labels ...Label)
}

// Gauge represents a value that can go up and down
type Gauge interface {
	Set(ctx context.Context, value float64, labels ...Label)
}

// Span represents a unit of work in a trace
type Span interface {
	SetAttributes(labels ...Label)
	SetStatus(code SpanStatusCode, description string)
	End()
}

// Label is a key-value pair attached to a measurement or span.
type Label struct {
	Key   string
	Value string
}

// SpanStatusCode represents the status of a span
type SpanStatusCode int

const (
	SpanStatusUnset SpanStatusCode = iota
	SpanStatusOK
	SpanStatusError
)

// StatusLabel returns the "status" label for the outcome of an operation.
func StatusLabel(err error) Label {
	if err != nil {
		return Label{Key: "status", Value: "error"}
	}
	return Label{Key: "status", Value: "success"}
}

// EndSpan records err on span, if any, and ends it. A nil span is ignored.
func EndSpan(span Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.SetStatus(SpanStatusError, err.Error())
	} else {
		span.SetStatus(SpanStatusOK, "")
	}
	span.End()
}
