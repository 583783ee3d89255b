package websockets

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/tsarna/hermes/pkg/hermes/o11y"
)

// Listener accepts WebSocket connections and attaches each one to the bus.
type Listener struct {
	config *ListenerConfig
	logger *zap.Logger

	connections  map[*Connection]struct{}
	connMutex    sync.RWMutex
	shutdown     chan struct{}
	shutdownOnce sync.Once

	connectionCounter o11y.Counter
	rejectedCounter   o11y.Counter
	connectionGauge   o11y.Gauge
}

func newListener(config *ListenerConfig) *Listener {
	l := &Listener{
		config:      config,
		logger:      config.logger,
		connections: make(map[*Connection]struct{}),
		shutdown:    make(chan struct{}),
	}

	if config.metricsProvider != nil {
		l.connectionCounter = config.metricsProvider.Counter("websocket_connections_total")
		l.rejectedCounter = config.metricsProvider.Counter("websocket_events_rejected_total")
		l.connectionGauge = config.metricsProvider.Gauge("websocket_active_connections")
	}

	return l
}

// ServeWebsocket upgrades the request and serves the connection until it
// closes. It can be registered directly as an http.HandlerFunc.
func (l *Listener) ServeWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionContextTakeover,
	})
	if err != nil {
		l.logger.Error("Failed to accept WebSocket connection",
			zap.Error(err),
			zap.String("remote_addr", r.RemoteAddr),
		)
		return
	}

	select {
	case <-l.shutdown:
		l.logger.Debug("Rejecting new connection due to shutdown")
		conn.Close(websocket.StatusServiceRestart, "Server shutting down")
		return
	default:
	}

	connection := newConnection(r.Context(), conn, l)
	l.track(r.Context(), connection, true)
	l.logger.Debug("WebSocket connection established", zap.String("remote_addr", r.RemoteAddr))

	connection.Start()

	l.track(r.Context(), connection, false)
	l.logger.Debug("WebSocket connection closed", zap.String("remote_addr", r.RemoteAddr))
}

func (l *Listener) track(ctx context.Context, c *Connection, add bool) {
	l.connMutex.Lock()
	if add {
		l.connections[c] = struct{}{}
	} else {
		delete(l.connections, c)
	}
	count := len(l.connections)
	l.connMutex.Unlock()

	if add && l.connectionCounter != nil {
		l.connectionCounter.Add(ctx, 1)
	}
	if l.connectionGauge != nil {
		l.connectionGauge.Set(ctx, float64(count))
	}
}

// Shutdown stops accepting connections, closes the open ones with
// StatusGoingAway and waits for them to finish or for ctx to end.
func (l *Listener) Shutdown(ctx context.Context) error {
	l.shutdownOnce.Do(func() {
		close(l.shutdown)

		l.connMutex.RLock()
		connections := make([]*Connection, 0, len(l.connections))
		for conn := range l.connections {
			connections = append(connections, conn)
		}
		l.connMutex.RUnlock()

		l.logger.Info("Closing WebSocket connections", zap.Int("connection_count", len(connections)))
		for _, conn := range connections {
			go conn.shutdownClose(websocket.StatusGoingAway, "Server shutting down")
		}
	})

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.ConnectionCount() == 0 {
			return nil
		}

		select {
		case <-ctx.Done():
			l.logger.Warn("Shutdown timeout reached with active connections",
				zap.Int("remaining_connections", l.ConnectionCount()),
			)
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (l *Listener) ConnectionCount() int {
	l.connMutex.RLock()
	defer l.connMutex.RUnlock()
	return len(l.connections)
}
