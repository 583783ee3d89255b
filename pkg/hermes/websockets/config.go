package websockets

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tsarna/hermes/pkg/hermes/bus"
	"github.com/tsarna/hermes/pkg/hermes/o11y"
)

const (
	DefaultQueueSize    = 256
	DefaultPingInterval = 30 * time.Second
	DefaultWriteTimeout = 10 * time.Second

	// Audio frames and wav bytes are large.
	DefaultReadLimit = 1 << 20
)

// ListenerConfig builds a Listener.
type ListenerConfig struct {
	eventBus        bus.EventBus
	logger          *zap.Logger
	metricsProvider o11y.MetricsProvider
	queueSize       int
	readLimit       int64
	pingInterval    time.Duration
	writeTimeout    time.Duration
}

func NewListenerConfig() *ListenerConfig {
	return &ListenerConfig{
		queueSize:    DefaultQueueSize,
		readLimit:    DefaultReadLimit,
		pingInterval: DefaultPingInterval,
		writeTimeout: DefaultWriteTimeout,
	}
}

func (c *ListenerConfig) WithEventBus(eventBus bus.EventBus) *ListenerConfig {
	c.eventBus = eventBus
	return c
}

func (c *ListenerConfig) WithLogger(logger *zap.Logger) *ListenerConfig {
	c.logger = logger
	return c
}

func (c *ListenerConfig) WithMetrics(provider o11y.MetricsProvider) *ListenerConfig {
	c.metricsProvider = provider
	return c
}

// WithQueueSize sets how many outbound events may wait per connection
// before new ones are dropped.
func (c *ListenerConfig) WithQueueSize(size int) *ListenerConfig {
	if size > 0 {
		c.queueSize = size
	}
	return c
}

func (c *ListenerConfig) WithReadLimit(limit int64) *ListenerConfig {
	if limit > 0 {
		c.readLimit = limit
	}
	return c
}

// WithPingInterval sets the keepalive interval; 0 disables pings.
func (c *ListenerConfig) WithPingInterval(interval time.Duration) *ListenerConfig {
	if interval >= 0 {
		c.pingInterval = interval
	}
	return c
}

func (c *ListenerConfig) WithWriteTimeout(timeout time.Duration) *ListenerConfig {
	if timeout > 0 {
		c.writeTimeout = timeout
	}
	return c
}

func (c *ListenerConfig) IsValid() error {
	if c.eventBus == nil {
		return fmt.Errorf("invalid listener configuration, missing EventBus")
	}
	return nil
}

func (c *ListenerConfig) Build() (*Listener, error) {
	if err := c.IsValid(); err != nil {
		return nil, err
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return newListener(c), nil
}
