package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tsarna/hermes/pkg/hermes/bus"
	"github.com/tsarna/hermes/pkg/hermes/subutils"
	"github.com/tsarna/hermes/pkg/hermes/topic"
	"github.com/tsarna/hermes/pkg/hermes/transform"
	"github.com/tsarna/hermes/pkg/hermes/websockets"
)

var subscribeCmd = &cobra.Command{
	Use:   "subscribe <websocket-url> [topic-patterns...]",
	Short: "Print events from a hermes websocket bus",
	Long: `Subscribe to events from a hermes websocket server and print them to stdout,
one per line as topic, family and JSON payload separated by tabs.

Additional arguments are MQTT-style topic patterns. If none are given, every
hermes topic ("hermes/#") is subscribed to.

With --jq each payload is replaced by the result of a jq query, which can
refer to $topic, $family and $site.

Examples:
  hermes subscribe ws://localhost:8080/ws
  hermes subscribe ws://localhost:8080/ws "hermes/hotword/+/detected"
  hermes subscribe ws://localhost:8080/ws "hermes/intent/#" --jq '.intent.intentName'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSubscribe,
}

var (
	dialTimeout    time.Duration
	jqQuery        string
	hermesOnly     bool
	subscribeQueue int
)

func init() {
	rootCmd.AddCommand(subscribeCmd)

	subscribeCmd.Flags().DurationVar(&dialTimeout, "dial-timeout", websockets.DefaultDialTimeout, "WebSocket dial timeout")
	subscribeCmd.Flags().StringVar(&jqQuery, "jq", "", "jq query applied to each payload")
	subscribeCmd.Flags().BoolVar(&hermesOnly, "hermes-only", false, "skip events on topics that are not hermes topics")
	subscribeCmd.Flags().IntVar(&subscribeQueue, "queue-size", 1000, "events buffered while printing")
}

func runSubscribe(cmd *cobra.Command, args []string) error {
	logger, err := setupLogger()
	if err != nil {
		return fmt.Errorf("failed to setup logger: %w", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wsURL := args[0]

	patterns := args[1:]
	if len(patterns) == 0 {
		patterns = []string{topic.AllTopics}
	}

	var funcs []transform.Func
	if hermesOnly {
		funcs = append(funcs, transform.DropUnrecognized())
	}
	if jqQuery != "" {
		jq, err := transform.Jq(jqQuery, logger)
		if err != nil {
			return err
		}
		funcs = append(funcs, jq)
	}

	printer := subutils.NewAsyncQueueingSubscriber(
		transform.NewSubscriber(&printingSubscriber{out: cmd.OutOrStdout(), logger: logger}, funcs...),
		subscribeQueue,
	).Start()
	defer printer.Close()

	wsClient, err := websockets.NewClient().
		WithURL(wsURL).
		WithLogger(logger).
		WithDialTimeout(dialTimeout).
		WithSubscriber(printer).
		Build()
	if err != nil {
		return fmt.Errorf("failed to create WebSocket client: %w", err)
	}

	if err := wsClient.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to WebSocket server: %w", err)
	}

	logger.Info("Connected to WebSocket server", zap.String("url", wsURL))

	for _, pattern := range patterns {
		if err := wsClient.Subscribe(ctx, pattern); err != nil {
			logger.Error("Failed to subscribe", zap.String("topic", pattern), zap.Error(err))
		} else {
			logger.Debug("Subscribed", zap.String("topic", pattern))
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		logger.Debug("Signal received, exiting", zap.String("signal", sig.String()))
	case <-wsClient.Done():
		logger.Warn("Connection closed by server")
		return nil
	}

	if err := wsClient.Disconnect(); err != nil {
		logger.Warn("Error during client disconnect", zap.Error(err))
	}

	return nil
}

type printingSubscriber struct {
	bus.BaseSubscriber
	out    io.Writer
	logger *zap.Logger
}

func (s *printingSubscriber) OnEvent(ctx context.Context, path string, message any, fields map[string]string) error {
	family := "-"
	if t, ok := topic.Decode(path); ok {
		family = t.Family().String()
	}

	jsonBytes, err := json.Marshal(message)
	if err != nil {
		s.logger.Warn("Failed to marshal message to JSON", zap.String("topic", path), zap.Error(err))
		fmt.Fprintf(s.out, "%s\t%s\t<error marshaling JSON: %v>\n", path, family, err)
		return nil
	}

	fmt.Fprintf(s.out, "%s\t%s\t%s\n", path, family, jsonBytes)
	return nil
}
