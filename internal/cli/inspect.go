package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/SmitUplenchwar2687/httpcopy/internal/capture"
	"github.com/SmitUplenchwar2687/httpcopy/internal/clock"
	"github.com/SmitUplenchwar2687/httpcopy/internal/config"
	"github.com/SmitUplenchwar2687/httpcopy/internal/engine"
	"github.com/SmitUplenchwar2687/httpcopy/internal/framing"
	"github.com/SmitUplenchwar2687/httpcopy/internal/triage"
)

func newInspectCmd(flags *configFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Show what the next scan would do without moving files",
		Long: `Runs the catalog, pairing and classification steps against the data
directory and prints where every capture file would go. Nothing is moved
and nothing is sent to the shadow server.`,
		Example: `  httpcopy inspect -l 192.168.1.132:80 -f 10.0.0.5:8080 -d /var/spool/tcpflow`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.resolve(cmd.Flags())
			if err != nil {
				return err
			}
			e, err := engine.New(cfg, engine.Options{Clock: clock.NewRealClock()})
			if err != nil {
				return err
			}
			pv, err := e.Preview()
			if err != nil {
				return err
			}
			return printPreview(cmd.OutOrStdout(), cfg, pv)
		},
	}
}

// destination names where a classified pair would be moved.
func destination(v framing.Verdict) string {
	switch v {
	case framing.Accept:
		return config.ForwardDir
	case framing.RejectURL:
		return string(triage.InvalidURL)
	default:
		return string(triage.Invalid)
	}
}

func printPreview(out io.Writer, cfg config.Config, pv engine.Preview) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tACTION\tDETAIL")

	files := func(fs []capture.File, action, detail string) {
		for _, f := range fs {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", f.Base(), action, detail)
		}
	}
	files(pv.Foreign, string(triage.InvalidServer), "not addressed to "+cfg.Listen)
	files(pv.OneWay, string(triage.InvalidOneWay), "no response stream")
	files(pv.Deferred, "wait", "peer still being written")
	files(pv.Active, "wait", "still being written")

	for _, res := range pv.Classified {
		detail := res.Verdict.String()
		if res.Verdict == framing.Accept {
			detail = res.Line.Raw
		}
		dest := destination(res.Verdict)
		fmt.Fprintf(tw, "%s\t%s\t%s\n", res.Request.Base(), dest, detail)
		fmt.Fprintf(tw, "%s\t%s\t%s\n", res.Response.Base(), dest, "")
	}
	for _, p := range pv.Unreadable {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.A.Base(), "retry", "unreadable")
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.B.Base(), "retry", "unreadable")
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	accepted := 0
	for _, res := range pv.Classified {
		if res.Verdict == framing.Accept {
			accepted++
		}
	}
	_, err := fmt.Fprintf(out, "\n%d flows to replay, %d files waiting, %d names skipped\n",
		accepted, len(pv.Deferred)+len(pv.Active), pv.Skipped)
	return err
}
