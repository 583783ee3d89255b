package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version is set at build time with -ldflags "-X .../cmd.Version=...".
var Version = "dev"

var (
	verbose  bool
	debug    bool
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "hermes",
	Short: "Hermes voice assistant bus toolkit",
	Long: `Hermes is a toolkit for the hermes voice assistant protocol.

Components of a hermes assistant (hotword detection, speech recognition,
language understanding, speech synthesis, dialogue management and audio
playback) talk to each other by publishing on well-known topics such as
hermes/asr/textCaptured or hermes/hotword/<site>/detected.

This tool can list and decode those topics, run a bus exposed over
websockets, and publish to or subscribe from such a bus.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Version = Version

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "debug output")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info", "log level (debug, info, warn, error)")
}

func parseLevel(level string) zap.AtomicLevel {
	if debug {
		level = "debug"
	} else if verbose && level == "info" {
		level = "debug"
	}

	switch strings.ToLower(level) {
	case "debug":
		return zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn", "warning":
		return zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		return zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		return zap.NewAtomicLevelAt(zap.InfoLevel)
	}
}

func setupLogger() (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Level = parseLevel(logLevel)
	config.Development = debug

	return config.Build()
}

func stringSliceToAnySlice(strs []string) []any {
	anys := make([]any, len(strs))
	for i, s := range strs {
		anys[i] = s
	}
	return anys
}
