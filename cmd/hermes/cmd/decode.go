package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tsarna/hermes/pkg/hermes/topic"
)

var decodeCmd = &cobra.Command{
	Use:   "decode <topic>...",
	Short: "Decode hermes topic paths",
	Long: `Decode each argument as a hermes topic and print what it refers to.

Paths that decode to a different canonical path, because of empty segments
or trailing segments that are ignored, are shown with the canonical path.
The command fails if any argument is not a hermes topic.

Examples:
  hermes decode hermes/hotword/default/detected
  hermes decode hermes/audioServer/kitchen/playBytes/1234 hermes/intent/lights`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDecode,
}

func init() {
	rootCmd.AddCommand(decodeCmd)
}

func runDecode(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TOPIC\tFAMILY\tSITE\tPAYLOAD\tCANONICAL")

	unrecognized := 0
	for _, path := range args {
		t, ok := topic.Decode(path)
		if !ok {
			fmt.Fprintf(w, "%s\t-\t-\t-\tunrecognized\n", path)
			unrecognized++
			continue
		}

		canonical := topic.Encode(t)
		if canonical == path {
			canonical = "="
		}
		site := topic.SiteOf(t)
		if site == "" {
			site = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", path, t.Family(), site, payloadName(t), canonical)
	}

	if err := w.Flush(); err != nil {
		return err
	}

	if unrecognized > 0 {
		return fmt.Errorf("%d of %d topics not recognized", unrecognized, len(args))
	}
	return nil
}
