package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"go.uber.org/zap"

	"github.com/tsarna/hermes/pkg/hermes/bus"
	"github.com/tsarna/hermes/pkg/hermes/o11y"
	"github.com/tsarna/hermes/pkg/hermes/poller"
)

type ConfigBuilder struct {
	logger  *zap.Logger
	metrics o11y.MetricsProvider
	tracing o11y.TracingProvider
	sources []any
}

// Config is the runtime assembled from a set of HCL sources: one bus, the
// websocket servers exposing it and the version pollers publishing on it.
type Config struct {
	Logger    *zap.Logger
	Metrics   o11y.MetricsProvider
	Tracing   o11y.TracingProvider
	Functions map[string]function.Function
	Constants map[string]cty.Value
	evalCtx   *hcl.EvalContext

	Bus     bus.EventBus
	Servers map[string]*Server
	Pollers map[string]*poller.Poller

	busDefRange *hcl.Range
}

func NewConfig() *ConfigBuilder {
	return &ConfigBuilder{
		sources: make([]any, 0),
	}
}

func (cb *ConfigBuilder) WithLogger(logger *zap.Logger) *ConfigBuilder {
	cb.logger = logger
	return cb
}

func (cb *ConfigBuilder) WithMetrics(provider o11y.MetricsProvider) *ConfigBuilder {
	cb.metrics = provider
	return cb
}

func (cb *ConfigBuilder) WithTracing(provider o11y.TracingProvider) *ConfigBuilder {
	cb.tracing = provider
	return cb
}

// WithSources adds files, directories (every .hcl file below them) or raw
// []byte HCL.
func (cb *ConfigBuilder) WithSources(sources ...any) *ConfigBuilder {
	cb.sources = append(cb.sources, sources...)
	return cb
}

func (cb *ConfigBuilder) Build() (*Config, hcl.Diagnostics) {
	logger := cb.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	config := &Config{
		Logger:    logger,
		Metrics:   cb.metrics,
		Tracing:   cb.tracing,
		Functions: GetFunctions(),
		Constants: make(map[string]cty.Value),
		Servers:   make(map[string]*Server),
		Pollers:   make(map[string]*poller.Poller),
	}

	bodies, diags := ParseConfigFiles(cb.sources...)
	if diags.HasErrors() {
		return nil, diags
	}

	blocks, addDiags := GetBlocks(bodies)
	diags = diags.Extend(addDiags)
	if diags.HasErrors() {
		return nil, diags
	}

	config.Constants["env"] = GetEnvObject()

	config.evalCtx = &hcl.EvalContext{
		Functions: config.Functions,
		Variables: config.Constants,
	}

	// The bus comes first since servers and pollers attach to it.
	for _, handler := range blockHandlers {
		for _, block := range blocks.OfType(handler.Type()) {
			diags = diags.Extend(handler.Process(config, block))
		}
		if diags.HasErrors() {
			return nil, diags
		}
		diags = diags.Extend(handler.FinishProcessing(config))
		if diags.HasErrors() {
			return nil, diags
		}
	}

	config.Logger.Info("Config built successfully",
		zap.Int("servers", len(config.Servers)),
		zap.Int("pollers", len(config.Pollers)),
	)

	return config, diags
}

// Start starts the bus, then every server and poller. Servers are listening
// when Start returns.
func (c *Config) Start(ctx context.Context) error {
	if err := c.Bus.Start(); err != nil {
		return fmt.Errorf("failed to start bus: %w", err)
	}

	for name, server := range c.Servers {
		if err := server.Start(); err != nil {
			return fmt.Errorf("failed to start server %s: %w", name, err)
		}
	}

	for name, p := range c.Pollers {
		if err := p.Start(ctx); err != nil {
			return fmt.Errorf("failed to start poll %s: %w", name, err)
		}
	}

	return nil
}

// Shutdown stops pollers and servers, then the bus. It keeps going after a
// failure and returns every error it saw.
func (c *Config) Shutdown(ctx context.Context) error {
	var errs []error

	for name, p := range c.Pollers {
		if err := p.Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("poll %s: %w", name, err))
		}
	}

	for name, server := range c.Servers {
		if err := server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("server %s: %w", name, err))
		}
	}

	if err := c.Bus.Stop(); err != nil && !errors.Is(err, bus.ErrNotStarted) {
		errs = append(errs, fmt.Errorf("bus: %w", err))
	}

	return errors.Join(errs...)
}
