package websockets

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/tsarna/hermes/pkg/hermes/bus"
)

const (
	DefaultDialTimeout      = 10 * time.Second
	DefaultWriteChannelSize = 100
)

type ClientBuilder struct {
	url              string
	logger           *zap.Logger
	dialTimeout      time.Duration
	subscriber       bus.Subscriber
	writeChannelSize int
	headers          http.Header
}

func NewClient() *ClientBuilder {
	return &ClientBuilder{
		dialTimeout:      DefaultDialTimeout,
		writeChannelSize: DefaultWriteChannelSize,
	}
}

func (b *ClientBuilder) WithURL(url string) *ClientBuilder {
	b.url = url
	return b
}

func (b *ClientBuilder) WithLogger(logger *zap.Logger) *ClientBuilder {
	b.logger = logger
	return b
}

func (b *ClientBuilder) WithDialTimeout(timeout time.Duration) *ClientBuilder {
	b.dialTimeout = timeout
	return b
}

// WithSubscriber sets where events from the server are delivered.
func (b *ClientBuilder) WithSubscriber(subscriber bus.Subscriber) *ClientBuilder {
	b.subscriber = subscriber
	return b
}

func (b *ClientBuilder) WithWriteChannelSize(size int) *ClientBuilder {
	b.writeChannelSize = size
	return b
}

// WithHeader adds a header to the handshake request.
func (b *ClientBuilder) WithHeader(key, value string) *ClientBuilder {
	if b.headers == nil {
		b.headers = make(http.Header)
	}
	b.headers.Add(key, value)
	return b
}

func (b *ClientBuilder) IsValid() error {
	if b.url == "" {
		return fmt.Errorf("URL is required")
	}
	u, err := url.Parse(b.url)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss", "http", "https":
	default:
		return fmt.Errorf("unsupported URL scheme %q", u.Scheme)
	}
	if b.dialTimeout <= 0 {
		return fmt.Errorf("dial timeout must be positive, got %v", b.dialTimeout)
	}
	if b.writeChannelSize <= 0 {
		return fmt.Errorf("write channel size must be positive, got %d", b.writeChannelSize)
	}
	return nil
}

func (b *ClientBuilder) Build() (*Client, error) {
	if err := b.IsValid(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	subscriber := b.subscriber
	if subscriber == nil {
		subscriber = &bus.BaseSubscriber{}
	}

	return &Client{
		url:              b.url,
		logger:           logger,
		dialTimeout:      b.dialTimeout,
		subscriber:       subscriber,
		writeChannelSize: b.writeChannelSize,
		headers:          b.headers,
	}, nil
}
