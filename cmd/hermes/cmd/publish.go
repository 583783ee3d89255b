package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tsarna/hermes/pkg/hermes/client"
	"github.com/tsarna/hermes/pkg/hermes/message"
	"github.com/tsarna/hermes/pkg/hermes/topic"
	"github.com/tsarna/hermes/pkg/hermes/websockets"
)

var publishCmd = &cobra.Command{
	Use:   "publish <websocket-url> <topic> [json-payload]",
	Short: "Publish a hermes message to a websocket bus",
	Long: `Publish a message on a hermes topic through a hermes websocket server.

The topic must be a hermes topic; anything else is refused before
connecting. The payload is checked against the message type of the topic
and may be left out for topics that carry none. Say and NLU query requests
without an id are given a fresh one.

Examples:
  hermes publish ws://localhost:8080/ws hermes/tts/say '{"text":"hello","siteId":"default"}'
  hermes publish ws://localhost:8080/ws hermes/asr/reload
  hermes publish ws://localhost:8080/ws hermes/hotword/toggleOn '{"siteId":"kitchen"}'`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runPublish,
}

var (
	publishDialTimeout time.Duration
	publishTimeout     time.Duration
)

func init() {
	rootCmd.AddCommand(publishCmd)

	publishCmd.Flags().DurationVar(&publishDialTimeout, "dial-timeout", websockets.DefaultDialTimeout, "WebSocket dial timeout")
	publishCmd.Flags().DurationVar(&publishTimeout, "timeout", 30*time.Second, "Total operation timeout")
}

func runPublish(cmd *cobra.Command, args []string) error {
	logger, err := setupLogger()
	if err != nil {
		return fmt.Errorf("failed to setup logger: %w", err)
	}
	defer logger.Sync()

	wsURL := args[0]

	t, err := topic.Parse(args[1])
	if err != nil {
		return err
	}

	var raw string
	if len(args) > 2 {
		raw = args[2]
	}
	payload, err := buildPayload(t, raw)
	if err != nil {
		return err
	}

	if id := ensureRequestID(payload); id != "" {
		logger.Info("Assigned request id", zap.String("id", id))
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	wsClient, err := websockets.NewClient().
		WithURL(wsURL).
		WithLogger(logger).
		WithDialTimeout(publishDialTimeout).
		Build()
	if err != nil {
		return fmt.Errorf("failed to create WebSocket client: %w", err)
	}

	if err := wsClient.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to WebSocket server: %w", err)
	}
	defer func() {
		if disconnectErr := wsClient.Disconnect(); disconnectErr != nil {
			logger.Warn("Error during client disconnect", zap.Error(disconnectErr))
		}
	}()

	logger.Debug("Connected to WebSocket server", zap.String("url", wsURL))

	if err := client.NewPublisher(wsClient, logger).PublishSync(ctx, t, payload); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	logger.Info("Message published", zap.Stringer("topic", t))

	return nil
}

// buildPayload checks raw against the message type of t. Topics that carry
// no payload refuse a non-empty one.
func buildPayload(t topic.Topic, raw string) (any, error) {
	if message.ForTopic(t) == nil {
		if raw != "" {
			return nil, fmt.Errorf("%s carries no payload", t)
		}
		return nil, nil
	}

	if raw == "" {
		raw = "{}"
	}
	return message.Decode(t, []byte(raw))
}

func ensureRequestID(payload any) string {
	switch p := payload.(type) {
	case *message.SayMessage:
		if p.ID == nil {
			p.ID = message.String(message.NewRequestID())
			return *p.ID
		}
	case *message.NluQueryMessage:
		if p.ID == nil {
			p.ID = message.String(message.NewRequestID())
			return *p.ID
		}
	case *message.NluSlotQueryMessage:
		if p.ID == nil {
			p.ID = message.String(message.NewRequestID())
			return *p.ID
		}
	}
	return ""
}
