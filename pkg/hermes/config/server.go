package config

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"go.uber.org/zap"

	"github.com/tsarna/hermes/pkg/hermes/websockets"
)

const DefaultPath = "/ws"

type ServerDefinition struct {
	Name         string    `hcl:",label"`
	Listen       string    `hcl:"listen"`
	Path         *string   `hcl:"path,optional"`
	Disabled     bool      `hcl:"disabled,optional"`
	QueueSize    *int      `hcl:"queue_size,optional"`
	ReadLimit    *int64    `hcl:"read_limit,optional"`
	PingInterval *string   `hcl:"ping_interval,optional"`
	WriteTimeout *string   `hcl:"write_timeout,optional"`
	DefRange     hcl.Range `hcl:",def_range"`
}

// Server is a websocket bridge bound to an HTTP listen address.
type Server struct {
	Name     string
	Path     string
	DefRange hcl.Range
	Listener *websockets.Listener
	Server   *http.Server

	logger *zap.Logger
	addr   net.Addr
}

type ServerBlockHandler struct {
	BlockHandlerBase
}

func NewServerBlockHandler() *ServerBlockHandler {
	return &ServerBlockHandler{}
}

func (h *ServerBlockHandler) Type() string {
	return "server"
}

func (h *ServerBlockHandler) Process(config *Config, block *hcl.Block) hcl.Diagnostics {
	serverDef := ServerDefinition{}
	diags := gohcl.DecodeBody(block.Body, config.evalCtx, &serverDef)
	if diags.HasErrors() {
		return diags
	}
	serverDef.Name = block.Labels[0]
	serverDef.DefRange = block.DefRange

	if serverDef.Disabled {
		return nil
	}

	if existing, ok := config.Servers[serverDef.Name]; ok {
		return hcl.Diagnostics{
			&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Server already defined",
				Detail:   fmt.Sprintf("Server %s already defined at %s", serverDef.Name, existing.DefRange),
				Subject:  &serverDef.DefRange,
			},
		}
	}

	path := DefaultPath
	if serverDef.Path != nil {
		path = *serverDef.Path
	}
	if !strings.HasPrefix(path, "/") || strings.Contains(path, " ") {
		return hcl.Diagnostics{
			&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid path",
				Detail:   fmt.Sprintf("Invalid path: %q", path),
				Subject:  &serverDef.DefRange,
			},
		}
	}

	listenerConfig := websockets.NewListenerConfig().
		WithEventBus(config.Bus).
		WithLogger(config.Logger.Named(serverDef.Name)).
		WithMetrics(config.Metrics)

	if serverDef.QueueSize != nil {
		listenerConfig = listenerConfig.WithQueueSize(*serverDef.QueueSize)
	}
	if serverDef.ReadLimit != nil {
		listenerConfig = listenerConfig.WithReadLimit(*serverDef.ReadLimit)
	}
	if serverDef.PingInterval != nil {
		interval, addDiags := parseDuration("ping_interval", *serverDef.PingInterval, &serverDef.DefRange)
		diags = diags.Extend(addDiags)
		listenerConfig = listenerConfig.WithPingInterval(interval)
	}
	if serverDef.WriteTimeout != nil {
		timeout, addDiags := parseDuration("write_timeout", *serverDef.WriteTimeout, &serverDef.DefRange)
		diags = diags.Extend(addDiags)
		listenerConfig = listenerConfig.WithWriteTimeout(timeout)
	}
	if diags.HasErrors() {
		return diags
	}

	listener, err := listenerConfig.Build()
	if err != nil {
		return diags.Append(&hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Failed to build websocket listener",
			Detail:   err.Error(),
			Subject:  &serverDef.DefRange,
		})
	}

	mux := http.NewServeMux()
	mux.Handle(path, NewLoggingMiddleware(config.Logger, http.HandlerFunc(listener.ServeWebsocket)))

	config.Servers[serverDef.Name] = &Server{
		Name:     serverDef.Name,
		Path:     path,
		DefRange: serverDef.DefRange,
		Listener: listener,
		Server: &http.Server{
			Addr:              serverDef.Listen,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: config.Logger,
	}

	return diags
}

func parseDuration(name, value string, subject *hcl.Range) (time.Duration, hcl.Diagnostics) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, hcl.Diagnostics{
			&hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid duration",
				Detail:   fmt.Sprintf("Invalid %s %q: %s", name, value, err),
				Subject:  subject,
			},
		}
	}
	return d, nil
}

// Start binds the listen address and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.Server.Addr)
	if err != nil {
		return err
	}
	s.addr = ln.Addr()

	s.logger.Info("Websocket server listening",
		zap.String("server", s.Name),
		zap.String("addr", s.addr.String()),
		zap.String("path", s.Path),
	)

	go func() {
		if err := s.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Websocket server failed", zap.String("server", s.Name), zap.Error(err))
		}
	}()

	return nil
}

// Addr is the bound address once started, which differs from the
// configured one when listening on port 0.
func (s *Server) Addr() net.Addr {
	return s.addr
}

// Shutdown closes websocket connections first, since http.Server.Shutdown
// does not wait for hijacked connections.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.Listener.Shutdown(ctx)
	return errors.Join(err, s.Server.Shutdown(ctx))
}

type loggingMiddleware struct {
	next   http.Handler
	logger *zap.Logger
}

func NewLoggingMiddleware(logger *zap.Logger, next http.Handler) http.Handler {
	return &loggingMiddleware{
		logger: logger,
		next:   next,
	}
}

func (l *loggingMiddleware) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	l.logger.Debug("Request",
		zap.String("method", r.Method),
		zap.String("url", r.URL.String()),
		zap.String("remote_addr", r.RemoteAddr),
	)
	l.next.ServeHTTP(w, r)
}
