package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tsarna/hermes/pkg/hermes/message"
	"github.com/tsarna/hermes/pkg/hermes/topic"
)

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "List every hermes topic",
	Long: `List every topic the hermes protocol defines, with its family and the
payload type published on it.

Per-site topics are shown for the site given with --site, PlayBytes with the
request id given with --file and the intent topic with --intent.

Examples:
  hermes topics
  hermes topics --site kitchen --intent turnOnLights`,
	Args: cobra.NoArgs,
	RunE: runTopics,
}

var (
	topicsSite   string
	topicsFile   string
	topicsIntent string
)

func init() {
	rootCmd.AddCommand(topicsCmd)

	topicsCmd.Flags().StringVar(&topicsSite, "site", "default", "site id for per-site topics")
	topicsCmd.Flags().StringVar(&topicsFile, "file", "<id>", "request id for playBytes")
	topicsCmd.Flags().StringVar(&topicsIntent, "intent", "<name>", "intent name")
}

func runTopics(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TOPIC\tFAMILY\tSITE\tPAYLOAD")

	for _, t := range topic.Canonical(topicsSite, topicsFile, topicsIntent) {
		writeTopicRow(w, topic.Encode(t), t)
	}

	return w.Flush()
}

func writeTopicRow(w io.Writer, path string, t topic.Topic) {
	site := topic.SiteOf(t)
	if site == "" {
		site = "-"
	}
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", path, t.Family(), site, payloadName(t))
}

func payloadName(t topic.Topic) string {
	p := message.ForTopic(t)
	if p == nil {
		return "-"
	}
	return strings.TrimPrefix(fmt.Sprintf("%T", p), "*message.")
}
