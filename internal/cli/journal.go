package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/SmitUplenchwar2687/httpcopy/internal/recorder"
	"github.com/SmitUplenchwar2687/httpcopy/internal/stats"
)

func newJournalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Work with outcome journals",
	}

	var asJSON bool
	summarizeCmd := &cobra.Command{
		Use:   "summarize <journal.ndjson>",
		Short: "Summarize outcomes and replay latency from a journal",
		Example: `  httpcopy journal summarize /var/log/httpcopy/events.ndjson
  httpcopy journal summarize events.ndjson --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			events, err := recorder.LoadFile(args[0])
			if err != nil {
				if len(events) == 0 {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v (summarizing %d events read so far)\n", err, len(events))
			}
			snap := stats.FromEvents(events)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(snap)
			}
			return printSummary(cmd.OutOrStdout(), len(events), snap)
		},
	}
	summarizeCmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")

	cmd.AddCommand(summarizeCmd)
	return cmd
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func printSummary(out io.Writer, n int, snap stats.Snapshot) error {
	fmt.Fprintf(out, "Events: %d\n", n)
	fmt.Fprintln(out, "Outcomes:")
	for _, k := range sortedKeys(snap.Outcomes) {
		fmt.Fprintf(out, "  %-14s %d\n", k, snap.Outcomes[k])
	}
	if len(snap.Quarantined) > 0 {
		fmt.Fprintln(out, "Quarantined:")
		for _, k := range sortedKeys(snap.Quarantined) {
			fmt.Fprintf(out, "  %-14s %d\n", k, snap.Quarantined[k])
		}
	}
	fmt.Fprintf(out, "Shadow bytes: %d\n", snap.ShadowBytes)
	l := snap.Latency
	_, err := fmt.Fprintf(out, "Replay latency: n=%d mean=%s p50=%s p90=%s p99=%s max=%s\n",
		l.Count, l.Mean, l.P50, l.P90, l.P99, l.Max)
	return err
}
