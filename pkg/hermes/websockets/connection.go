package websockets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/tsarna/hermes/pkg/hermes/topic"
)

var (
	errTopicRequired  = errors.New("topic is required")
	errNotHermesTopic = errors.New("not a hermes topic")
)

// Connection is the bus Subscriber for one WebSocket client. Events are
// queued and written by a single sender goroutine so that the bus never
// waits on the network.
type Connection struct {
	ctx      context.Context
	conn     *websocket.Conn
	listener *Listener
	config   *ListenerConfig
	logger   *zap.Logger

	outbound    chan WireMessage
	done        chan struct{}
	cleanupOnce sync.Once
}

func newConnection(ctx context.Context, conn *websocket.Conn, l *Listener) *Connection {
	return &Connection{
		ctx:      ctx,
		conn:     conn,
		listener: l,
		config:   l.config,
		logger:   l.logger,
		outbound: make(chan WireMessage, l.config.queueSize),
		done:     make(chan struct{}),
	}
}

// Start serves the connection and blocks until it is closed.
func (c *Connection) Start() {
	go c.messageSender()
	c.messageReader()
	c.cleanup()
}

func (c *Connection) messageSender() {
	var pingChan <-chan time.Time
	if c.config.pingInterval > 0 {
		ticker := time.NewTicker(c.config.pingInterval)
		defer ticker.Stop()
		pingChan = ticker.C
	}

	for {
		select {
		case msg := <-c.outbound:
			if err := c.write(msg); err != nil {
				c.logger.Error("Failed to send WebSocket message", zap.Error(err), zap.String("topic", msg.Topic))
				if websocket.CloseStatus(err) != -1 {
					return
				}
			}

		case <-pingChan:
			pingCtx, cancel := context.WithTimeout(c.ctx, c.config.writeTimeout)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				c.logger.Debug("Ping failed", zap.Error(err))
				return
			}

		case <-c.done:
			return
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Connection) messageReader() {
	c.conn.SetReadLimit(c.config.readLimit)

	for {
		// a cancelled read closes the connection, so idle clients are
		// detected by the pinger rather than a read deadline
		_, data, err := c.conn.Read(c.ctx)
		if err != nil {
			if status := websocket.CloseStatus(err); status != -1 {
				c.logger.Debug("WebSocket connection closed by client", zap.Int("close_status", int(status)))
			} else {
				c.logger.Debug("WebSocket read ended", zap.Error(err))
			}
			return
		}

		if len(data) == 0 {
			continue
		}

		var request WireMessage
		if err := json.Unmarshal(data, &request); err != nil {
			c.logger.Warn("Failed to parse incoming WebSocket message", zap.Error(err), zap.Int("data_length", len(data)))
			c.queue(WireMessage{Kind: MessageKindNack, Error: "invalid JSON format"})
			continue
		}

		c.handleRequest(request)
	}
}

func (c *Connection) handleRequest(request WireMessage) {
	var err error
	eventBus := c.config.eventBus

	switch request.Kind {
	case MessageKindEvent:
		err = c.checkEvent(request)
		if err == nil {
			err = eventBus.Publish(c.ctx, request.Topic, request.Data)
		} else {
			c.logger.Warn("Rejecting published event", zap.String("topic", request.Topic), zap.Error(err))
			if c.listener.rejectedCounter != nil {
				c.listener.rejectedCounter.Add(c.ctx, 1)
			}
		}
		if request.Id == nil {
			return
		}
	case MessageKindAck:
		return
	case MessageKindSubscribe:
		err = eventBus.Subscribe(c.ctx, c, request.Topic)
	case MessageKindUnsubscribe:
		err = eventBus.Unsubscribe(c.ctx, c, request.Topic)
	default:
		err = fmt.Errorf("unsupported request type: %s", request.Kind)
	}

	response := WireMessage{Kind: MessageKindAck, Id: request.Id}
	if err != nil {
		response.Kind = MessageKindNack
		response.Error = err.Error()
	}
	c.queue(response)
}

// checkEvent admits only events on topics that decode as hermes topics.
func (c *Connection) checkEvent(request WireMessage) error {
	if request.Topic == "" {
		return errTopicRequired
	}
	if _, ok := topic.Decode(request.Topic); !ok {
		return fmt.Errorf("%w: %q", errNotHermesTopic, request.Topic)
	}
	return nil
}

func (c *Connection) queue(msg WireMessage) {
	select {
	case c.outbound <- msg:
	case <-c.done:
	default:
		c.logger.Warn("Outbound channel full, dropping message", zap.String("topic", msg.Topic))
	}
}

func (c *Connection) write(msg WireMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	writeCtx, cancel := context.WithTimeout(c.ctx, c.config.writeTimeout)
	defer cancel()
	return c.conn.Write(writeCtx, websocket.MessageText, data)
}

func (c *Connection) cleanup() {
	c.cleanupOnce.Do(func() {
		close(c.done)

		// the request context may already be cancelled
		if err := c.config.eventBus.UnsubscribeAll(context.Background(), c); err != nil {
			c.logger.Debug("Failed to unsubscribe during cleanup", zap.Error(err))
		}

		if err := c.conn.Close(websocket.StatusNormalClosure, "Connection closed"); err != nil {
			c.logger.Debug("WebSocket close error (may be expected)", zap.Error(err))
		}
	})
}

func (c *Connection) shutdownClose(code websocket.StatusCode, reason string) {
	if err := c.conn.Close(code, reason); err != nil {
		c.logger.Debug("Error closing WebSocket during shutdown", zap.Error(err))
	}
}

func (c *Connection) OnSubscribe(ctx context.Context, topic string) error {
	return nil
}

func (c *Connection) OnUnsubscribe(ctx context.Context, topic string) error {
	return nil
}

// OnEvent queues the event for the client, dropping it if the client has
// fallen too far behind.
func (c *Connection) OnEvent(ctx context.Context, topic string, message any, fields map[string]string) error {
	c.queue(WireMessage{Topic: topic, Data: message})
	return nil
}
