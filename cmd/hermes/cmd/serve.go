package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tsarna/hermes/pkg/hermes/bus"
	"github.com/tsarna/hermes/pkg/hermes/config"
	"github.com/tsarna/hermes/pkg/hermes/o11y"
	"github.com/tsarna/hermes/pkg/hermes/otel"
	"github.com/tsarna/hermes/pkg/hermes/poller"
	"github.com/tsarna/hermes/pkg/hermes/subutils"
	"github.com/tsarna/hermes/pkg/hermes/topic"
)

var serveCmd = &cobra.Command{
	Use:   "serve [config-files-or-directories...]",
	Short: "Run a hermes bus exposed over websockets",
	Long: `Run a hermes bus with the websocket servers and version polls described
by the given HCL configuration files or directories. Directories are
searched for *.hcl files.

Example configuration:

  bus {
    buffer_size = 1000
  }

  server "main" {
    listen = ":8080"
    path   = "/ws"
  }

  poll "versions" {
    schedule   = "@every 30s"
    site       = env.HERMES_SITE
    components = ["asr", "nlu", "tts", "hotword"]
  }

Examples:
  hermes serve hermes.hcl
  hermes serve ./conf.d/`,
	Args: cobra.MinimumNArgs(1),
	RunE: runServe,
}

var (
	useOtel         bool
	statsInterval   time.Duration
	shutdownTimeout time.Duration
	metricsTopic    string
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&useOtel, "otel", false, "report metrics and traces through OpenTelemetry instead of logging them")
	serveCmd.Flags().DurationVar(&statsInterval, "stats-interval", time.Minute, "how often to log metrics and poll status (0 disables)")
	serveCmd.Flags().StringVar(&metricsTopic, "metrics-topic", "$metrics", "bus topic metric snapshots are published on (empty disables)")
	serveCmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 10*time.Second, "how long to wait for connections to close")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, err := setupLogger()
	if err != nil {
		return fmt.Errorf("failed to setup logger: %w", err)
	}
	defer logger.Sync()

	logger.Info("Starting hermes server",
		zap.Strings("config-paths", args),
		zap.String("version", Version),
	)

	builder := config.NewConfig().
		WithLogger(logger).
		WithSources(stringSliceToAnySlice(args)...)

	var memory *o11y.Memory
	if useOtel {
		provider := otel.NewProvider("hermes", Version)
		builder = builder.WithMetrics(provider).WithTracing(provider)
	} else {
		memory = o11y.NewMemory()
		builder = builder.WithMetrics(memory)
	}

	cfg, diags := builder.Build()
	if diags.HasErrors() {
		logger.Error("Failed to build config", zap.Error(diags))
		return diags
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := cfg.Start(ctx); err != nil {
		return err
	}

	mon := subutils.NewAsyncQueueingSubscriber(
		newMonitor(logger, memory, cfg.Pollers).publishingTo(cfg.Bus, metricsTopic),
		0,
	).WithTicker(statsInterval).Start()
	defer mon.Close()

	if err := cfg.Bus.Subscribe(ctx, mon, topic.AllTopics); err != nil {
		return fmt.Errorf("failed to subscribe monitor: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	sig := <-sigChan
	logger.Info("Signal received, shutting down", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := cfg.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Shutdown incomplete", zap.Error(err))
		return err
	}

	logger.Info("Shutdown complete")
	return nil
}

// monitor logs bus traffic at debug. On each tick it logs the in-process
// metrics, publishes them on the bus if given a topic, and warns about any
// component that has not answered its last version poll.
type monitor struct {
	*subutils.LoggingSubscriber
	logger       *zap.Logger
	memory       *o11y.Memory
	pollers      map[string]*poller.Poller
	bus          bus.EventBus
	metricsTopic string
}

func newMonitor(logger *zap.Logger, memory *o11y.Memory, pollers map[string]*poller.Poller) *monitor {
	return &monitor{
		LoggingSubscriber: subutils.NewNamedLoggingSubscriber(nil, logger, zap.DebugLevel, "traffic"),
		logger:            logger,
		memory:            memory,
		pollers:           pollers,
	}
}

func (m *monitor) publishingTo(eventBus bus.EventBus, topic string) *monitor {
	m.bus = eventBus
	m.metricsTopic = topic
	return m
}

func (m *monitor) OnTick(ctx context.Context) {
	if m.memory != nil {
		snapshot := m.memory.Snapshot()
		m.logger.Info("Metrics",
			zap.Any("counters", snapshot.Counters),
			zap.Any("gauges", snapshot.Gauges),
		)

		if m.bus != nil && m.metricsTopic != "" {
			if err := m.bus.Publish(ctx, m.metricsTopic, snapshot); err != nil {
				m.logger.Warn("Failed to publish metrics", zap.String("topic", m.metricsTopic), zap.Error(err))
			}
		}
	}

	for name, p := range m.pollers {
		for _, e := range p.Status().Stale() {
			m.logger.Warn("Component did not answer version request",
				zap.String("poll", name),
				zap.Stringer("component", e.Component),
				zap.String("site", e.Site),
				zap.Time("requested_at", e.RequestedAt),
				zap.Time("last_update", e.UpdatedAt),
			)
		}
	}
}
