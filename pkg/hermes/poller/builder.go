package poller

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/tsarna/hermes/pkg/hermes/bus"
	"github.com/tsarna/hermes/pkg/hermes/client"
	"github.com/tsarna/hermes/pkg/hermes/o11y"
)

// Parser accepts standard five-field specs, an optional leading seconds
// field and descriptors such as @every 30s.
var Parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

type PollerBuilder struct {
	bus      bus.EventBus
	logger   *zap.Logger
	metrics  o11y.MetricsProvider
	location *time.Location
	jobs     []Job
}

func NewPoller() *PollerBuilder {
	return &PollerBuilder{location: time.Local}
}

func (b *PollerBuilder) WithBus(eb bus.EventBus) *PollerBuilder {
	b.bus = eb
	return b
}

func (b *PollerBuilder) WithLogger(logger *zap.Logger) *PollerBuilder {
	b.logger = logger
	return b
}

func (b *PollerBuilder) WithMetrics(provider o11y.MetricsProvider) *PollerBuilder {
	b.metrics = provider
	return b
}

func (b *PollerBuilder) WithLocation(location *time.Location) *PollerBuilder {
	b.location = location
	return b
}

func (b *PollerBuilder) AddJob(job Job) *PollerBuilder {
	b.jobs = append(b.jobs, job)
	return b
}

func (b *PollerBuilder) Build() (*Poller, error) {
	if b.bus == nil {
		return nil, fmt.Errorf("poller requires an event bus")
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &Poller{
		bus:       b.bus,
		publisher: client.NewPublisher(b.bus, logger),
		cron: cron.New(
			cron.WithParser(Parser),
			cron.WithLocation(b.location),
			cron.WithLogger(NewZapCronLogger(logger)),
		),
		jobs:   b.jobs,
		status: NewStatus(),
		logger: logger,
	}
	p.dispatcher = client.NewDispatcher(p).WithLogger(logger).WithMetrics(b.metrics)

	for _, job := range b.jobs {
		if len(job.Components) == 0 {
			return nil, fmt.Errorf("poll %q has no components", job.Name)
		}
		for _, c := range job.Components {
			if c.PerSite() && job.Site == "" {
				return nil, fmt.Errorf("poll %q: %s is per-site and needs a site", job.Name, c)
			}
		}
		if _, err := p.cron.AddJob(job.Schedule, pollJob{poller: p, job: job}); err != nil {
			return nil, fmt.Errorf("poll %q: invalid schedule %q: %w", job.Name, job.Schedule, err)
		}
	}

	return p, nil
}

// ZapCronLogger adapts a zap.Logger to cron.Logger. Routine messages are
// logged at debug.
type ZapCronLogger struct {
	logger *zap.Logger
}

func NewZapCronLogger(logger *zap.Logger) *ZapCronLogger {
	return &ZapCronLogger{logger: logger}
}

func (z *ZapCronLogger) Info(msg string, keysAndValues ...interface{}) {
	z.logger.Debug(msg, fields(keysAndValues)...)
}

func (z *ZapCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	z.logger.Error(msg, append(fields(keysAndValues), zap.Error(err))...)
}

func fields(keysAndValues []interface{}) []zap.Field {
	out := make([]zap.Field, 0, len(keysAndValues)/2+1)
	for i := 0; i < len(keysAndValues)-1; i += 2 {
		if key, ok := keysAndValues[i].(string); ok {
			out = append(out, zap.Any(key, keysAndValues[i+1]))
		}
	}
	return out
}
