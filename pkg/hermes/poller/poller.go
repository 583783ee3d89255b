// Package poller periodically asks hermes components for their version and
// keeps track of what they answer.
package poller

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/tsarna/hermes/pkg/hermes/bus"
	"github.com/tsarna/hermes/pkg/hermes/client"
	"github.com/tsarna/hermes/pkg/hermes/message"
	"github.com/tsarna/hermes/pkg/hermes/topic"
)

// Job publishes a version request to each component on a cron schedule.
// Site is used for per-site components and ignored for the others.
type Job struct {
	Name       string
	Schedule   string
	Site       string
	Components []topic.ComponentTag
}

// Topics returns the version request topics the job publishes.
func (j Job) Topics() []topic.Topic {
	topics := make([]topic.Topic, 0, len(j.Components))
	for _, c := range j.Components {
		topics = append(topics, topic.Component{Site: siteFor(c, j.Site), Component: c, Command: topic.VersionRequest})
	}
	return topics
}

func siteFor(c topic.ComponentTag, site string) string {
	if c.PerSite() {
		return site
	}
	return ""
}

type Poller struct {
	bus        bus.EventBus
	publisher  *client.Publisher
	dispatcher *client.Dispatcher
	cron       *cron.Cron
	jobs       []Job
	status     *Status
	logger     *zap.Logger
}

// Status returns the table of replies.
func (p *Poller) Status() *Status {
	return p.status
}

// Start subscribes to version and error replies of every polled component
// and starts the schedule.
func (p *Poller) Start(ctx context.Context) error {
	var replies []topic.Topic
	seen := make(map[topic.ComponentTag]bool)
	for _, job := range p.jobs {
		for _, c := range job.Components {
			if seen[c] {
				continue
			}
			seen[c] = true
			replies = append(replies,
				topic.Component{Component: c, Command: topic.Version},
				topic.Component{Component: c, Command: topic.Error},
			)
		}
	}

	if len(replies) > 0 {
		if err := client.Subscribe(ctx, p.bus, p.dispatcher, replies...); err != nil {
			return err
		}
	}

	p.cron.Start()
	p.logger.Info("Version poller started", zap.Int("jobs", len(p.jobs)))
	return nil
}

// Stop halts the schedule, waits for running polls up to ctx, and
// unsubscribes.
func (p *Poller) Stop(ctx context.Context) error {
	select {
	case <-p.cron.Stop().Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	return p.bus.UnsubscribeAll(ctx, p.dispatcher)
}

// Poll publishes the version requests of job immediately.
func (p *Poller) Poll(ctx context.Context, job Job) error {
	for _, t := range job.Topics() {
		c := t.(topic.Component)
		p.status.requested(Key{Component: c.Component, Site: c.Site})
		if err := p.publisher.Publish(ctx, t, nil); err != nil {
			return fmt.Errorf("poll %s: %w", job.Name, err)
		}
	}
	return nil
}

func (p *Poller) HandleTopic(ctx context.Context, t topic.Topic, payload any) error {
	c, ok := t.(topic.Component)
	if !ok {
		return nil
	}
	key := Key{Component: c.Component, Site: c.Site}

	decoded, err := message.From(t, payload)
	if err != nil {
		p.logger.Warn("Malformed reply", zap.String("topic", topic.Encode(t)), zap.Error(err))
		return nil
	}

	switch msg := decoded.(type) {
	case *message.VersionMessage:
		if msg.Version == nil {
			return nil
		}
		p.status.setVersion(key, msg.Version.String())
		p.logger.Debug("Component version",
			zap.Stringer("component", c.Component),
			zap.String("site", c.Site),
			zap.String("version", msg.Version.String()),
		)
	case *message.ErrorMessage:
		p.status.setError(key, msg.Error)
		p.logger.Warn("Component reported an error",
			zap.Stringer("component", c.Component),
			zap.String("site", c.Site),
			zap.String("error", msg.Error),
		)
	}
	return nil
}

type pollJob struct {
	poller *Poller
	job    Job
}

func (j pollJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := j.poller.Poll(ctx, j.job); err != nil {
		j.poller.logger.Error("Version poll failed", zap.String("job", j.job.Name), zap.Error(err))
	}
}
