package websockets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/tsarna/hermes/pkg/hermes/bus"
)

var ErrNotConnected = errors.New("client is not connected")

// Client connects to a Listener. Events received from the server are
// delivered to the configured bus.Subscriber.
type Client struct {
	url              string
	logger           *zap.Logger
	dialTimeout      time.Duration
	subscriber       bus.Subscriber
	writeChannelSize int
	headers          http.Header

	conn    *websocket.Conn
	ctx     context.Context
	cancel  context.CancelFunc
	started int32

	messageID   int64
	pendingReqs map[int64]chan WireMessage
	pendingMu   sync.Mutex

	writeChannel chan []byte
	done         chan struct{}
}

// Connect dials the server and starts the read and write loops.
func (c *Client) Connect(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&c.started, 0, 1) {
		return fmt.Errorf("client is already started")
	}

	dialCtx, dialCancel := context.WithTimeout(ctx, c.dialTimeout)
	defer dialCancel()

	conn, _, err := websocket.Dial(dialCtx, c.url, &websocket.DialOptions{HTTPHeader: c.headers})
	if err != nil {
		atomic.StoreInt32(&c.started, 0)
		return fmt.Errorf("failed to connect to %s: %w", c.url, err)
	}
	conn.SetReadLimit(DefaultReadLimit)

	c.conn = conn
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.done = make(chan struct{})
	c.writeChannel = make(chan []byte, c.writeChannelSize)
	c.pendingMu.Lock()
	c.pendingReqs = make(map[int64]chan WireMessage)
	c.pendingMu.Unlock()

	c.logger.Info("WebSocket client connected", zap.String("url", c.url))

	go c.readLoop()
	go c.writeLoop()

	return nil
}

// Disconnect closes the connection and waits for the read loop to exit.
func (c *Client) Disconnect() error {
	if !atomic.CompareAndSwapInt32(&c.started, 1, 0) {
		return nil
	}

	c.cancel()
	c.conn.Close(websocket.StatusNormalClosure, "client disconnect")
	<-c.done

	c.logger.Info("WebSocket client disconnected", zap.String("url", c.url))
	return nil
}

// Done is closed when the connection ends for any reason.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) Subscribe(ctx context.Context, topic string) error {
	if err := c.request(ctx, WireMessage{Kind: MessageKindSubscribe, Topic: topic}); err != nil {
		return err
	}
	return c.subscriber.OnSubscribe(ctx, topic)
}

func (c *Client) Unsubscribe(ctx context.Context, topic string) error {
	if err := c.request(ctx, WireMessage{Kind: MessageKindUnsubscribe, Topic: topic}); err != nil {
		return err
	}
	return c.subscriber.OnUnsubscribe(ctx, topic)
}

// Publish sends an event without waiting for the server to accept it.
func (c *Client) Publish(ctx context.Context, topic string, payload any) error {
	if atomic.LoadInt32(&c.started) == 0 {
		return ErrNotConnected
	}

	data, err := json.Marshal(WireMessage{Topic: topic, Data: payload})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	select {
	case c.writeChannel <- data:
		return nil
	case <-c.ctx.Done():
		return ErrNotConnected
	default:
		return fmt.Errorf("write channel is full")
	}
}

// PublishSync sends an event and waits for the server's ack, so that a
// rejected topic is reported as an error.
func (c *Client) PublishSync(ctx context.Context, topic string, payload any) error {
	return c.request(ctx, WireMessage{Topic: topic, Data: payload})
}

func (c *Client) request(ctx context.Context, msg WireMessage) error {
	if atomic.LoadInt32(&c.started) == 0 {
		return ErrNotConnected
	}

	id := atomic.AddInt64(&c.messageID, 1)
	msg.Id = id

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	reply := make(chan WireMessage, 1)
	c.pendingMu.Lock()
	c.pendingReqs[id] = reply
	c.pendingMu.Unlock()
	defer c.forget(id)

	select {
	case c.writeChannel <- data:
	case <-ctx.Done():
		return ctx.Err()
	case <-c.ctx.Done():
		return ErrNotConnected
	}

	select {
	case resp := <-reply:
		if resp.Kind != MessageKindAck {
			return fmt.Errorf("server error: %s", resp.Error)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.ctx.Done():
		return ErrNotConnected
	}
}

func (c *Client) forget(id int64) chan WireMessage {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()

	reply := c.pendingReqs[id]
	delete(c.pendingReqs, id)
	return reply
}

func (c *Client) readLoop() {
	defer close(c.done)
	defer c.cancel()

	for {
		_, data, err := c.conn.Read(c.ctx)
		if err != nil {
			if c.ctx.Err() == nil {
				c.logger.Warn("WebSocket connection lost", zap.Error(err))
				atomic.StoreInt32(&c.started, 0)
			}
			return
		}

		var msg WireMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Warn("Failed to unmarshal WebSocket message", zap.Error(err))
			continue
		}

		switch msg.Kind {
		case MessageKindAck, MessageKindNack:
			c.handleResponse(msg)
		case MessageKindEvent:
			if msg.Topic == "" {
				continue
			}
			if err := c.subscriber.OnEvent(c.ctx, msg.Topic, msg.Data, nil); err != nil {
				c.logger.Warn("Subscriber error", zap.String("topic", msg.Topic), zap.Error(err))
			}
		default:
			c.logger.Warn("Unknown message kind", zap.String("kind", msg.Kind))
		}
	}
}

func (c *Client) writeLoop() {
	for {
		select {
		case <-c.ctx.Done():
			return
		case data := <-c.writeChannel:
			if err := c.conn.Write(c.ctx, websocket.MessageText, data); err != nil {
				if c.ctx.Err() == nil {
					c.logger.Error("Failed to write to WebSocket", zap.Error(err))
					c.cancel()
				}
				return
			}
		}
	}
}

func (c *Client) handleResponse(msg WireMessage) {
	// JSON numbers decode as float64
	id, ok := msg.Id.(float64)
	if !ok {
		if msg.Kind == MessageKindNack {
			c.logger.Warn("Server rejected message", zap.String("error", msg.Error))
		}
		return
	}

	if reply := c.forget(int64(id)); reply != nil {
		reply <- msg
	}
}
