// Package otel reports hermes metrics and spans through the global
// OpenTelemetry providers.
//
// Metric labels keyed "topic" are folded into the hermes family and site of
// the decoded topic, so per-intent and per-file paths do not each become a
// separate time series. Topics that do not decode keep the raw path. Spans
// keep the raw path and gain the family alongside it.
package otel

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/tsarna/hermes/pkg/hermes/o11y"
	"github.com/tsarna/hermes/pkg/hermes/topic"
)

const (
	topicLabel      = "topic"
	familyAttribute = "hermes.family"
	siteAttribute   = "hermes.site"
)

// Provider is an o11y.MetricsProvider and o11y.TracingProvider scoped to
// one instrumentation name.
type Provider struct {
	meter  metric.Meter
	tracer trace.Tracer
}

var (
	_ o11y.MetricsProvider = (*Provider)(nil)
	_ o11y.TracingProvider = (*Provider)(nil)
)

// NewProvider returns a Provider whose instruments and spans are scoped to
// serviceName and serviceVersion.
func NewProvider(serviceName, serviceVersion string) *Provider {
	return &Provider{
		meter:  otel.Meter(serviceName, metric.WithInstrumentationVersion(serviceVersion)),
		tracer: otel.Tracer(serviceName, trace.WithInstrumentationVersion(serviceVersion)),
	}
}

func (p *Provider) Counter(name string) o11y.Counter {
	counter, _ := p.meter.Int64Counter(name)
	return &otelCounter{counter: counter}
}

func (p *Provider) Histogram(name string) o11y.Histogram {
	histogram, _ := p.meter.Float64Histogram(name)
	return &otelHistogram{histogram: histogram}
}

// Gauge is backed by an UpDownCounter. Set records the difference from the
// last value set for the same attributes, so the exported sum is the value.
func (p *Provider) Gauge(name string) o11y.Gauge {
	gauge, _ := p.meter.Float64UpDownCounter(name)
	return &otelGauge{gauge: gauge, last: make(map[attribute.Distinct]float64)}
}

func (p *Provider) StartSpan(ctx context.Context, name string) (context.Context, o11y.Span) {
	ctx, span := p.tracer.Start(ctx, name)
	return ctx, &otelSpan{span: span}
}

// metricAttributes replaces a decodable topic label with its family and
// site.
func metricAttributes(labels []o11y.Label) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(labels)+1)
	for _, label := range labels {
		if label.Key == topicLabel {
			if t, ok := topic.Decode(label.Value); ok {
				attrs = append(attrs, attribute.String(familyAttribute, t.Family().Path()))
				if site := topic.SiteOf(t); site != "" {
					attrs = append(attrs, attribute.String(siteAttribute, site))
				}
				continue
			}
		}
		attrs = append(attrs, attribute.String(label.Key, label.Value))
	}
	return attrs
}

func spanAttributes(labels []o11y.Label) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(labels)+1)
	for _, label := range labels {
		attrs = append(attrs, attribute.String(label.Key, label.Value))
		if label.Key == topicLabel {
			if t, ok := topic.Decode(label.Value); ok {
				attrs = append(attrs, attribute.String(familyAttribute, t.Family().Path()))
			}
		}
	}
	return attrs
}

type otelCounter struct {
	counter metric.Int64Counter
}

func (c *otelCounter) Add(ctx context.Context, value int64, labels ...o11y.Label) {
	c.counter.Add(ctx, value, metric.WithAttributes(metricAttributes(labels)...))
}

type otelHistogram struct {
	histogram metric.Float64Histogram
}

func (h *otelHistogram) Record(ctx context.Context, value float64, labels ...o11y.Label) {
	h.histogram.Record(ctx, value, metric.WithAttributes(metricAttributes(labels)...))
}

type otelGauge struct {
	gauge metric.Float64UpDownCounter

	mu   sync.Mutex
	last map[attribute.Distinct]float64
}

func (g *otelGauge) Set(ctx context.Context, value float64, labels ...o11y.Label) {
	set := attribute.NewSet(metricAttributes(labels)...)

	g.mu.Lock()
	delta := value - g.last[set.Equivalent()]
	g.last[set.Equivalent()] = value
	g.mu.Unlock()

	if delta != 0 {
		g.gauge.Add(ctx, delta, metric.WithAttributeSet(set))
	}
}

type otelSpan struct {
	span trace.Span
}

func (s *otelSpan) SetAttributes(labels ...o11y.Label) {
	s.span.SetAttributes(spanAttributes(labels)...)
}

func (s *otelSpan) SetStatus(code o11y.SpanStatusCode, description string) {
	switch code {
	case o11y.SpanStatusOK:
		s.span.SetStatus(codes.Ok, description)
	case o11y.SpanStatusError:
		s.span.SetStatus(codes.Error, description)
	default:
		s.span.SetStatus(codes.Unset, description)
	}
}

func (s *otelSpan) End() {
	s.span.End()
}
