package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/SmitUplenchwar2687/httpcopy/internal/capture"
	"github.com/SmitUplenchwar2687/httpcopy/internal/config"
	"github.com/SmitUplenchwar2687/httpcopy/internal/generate"
)

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate sample capture files",
		Long: `Generates sample data for testing and experimentation.

Use "generate captures" to write tcpflow-style capture files.`,
	}

	var (
		dir     string
		listen  string
		count   int
		oneWay  int
		foreign int
		age     time.Duration
		seed    int64
	)
	d := generate.DefaultOptions()

	capturesCmd := &cobra.Command{
		Use:   "captures",
		Short: "Write synthetic tcpflow capture files",
		Long: `Writes request/response capture file pairs named the way tcpflow names
them, optionally with one-way request files and pairs for another server.
Files are backdated by --age so a scan treats them as settled.`,
		Example: `  httpcopy generate captures --listen 192.168.1.132:80 --dir ./spool --count 20
  httpcopy generate captures --listen 192.168.1.132 --count 5 --one-way 2 --foreign 2 --age 0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ep, err := capture.ParseEndpoint(listen, config.DefaultPort)
			if err != nil {
				return fmt.Errorf("invalid --listen: %w", err)
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
			res, err := generate.Captures(generate.Options{
				Dir:     dir,
				Listen:  ep,
				Count:   count,
				OneWay:  oneWay,
				Foreign: foreign,
				Seed:    seed,
				Age:     age,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Generated %d capture files in %s\n", len(res.Files), dir)
			fmt.Fprintf(out, "  Pairs:   %d\n", len(res.Pairs))
			fmt.Fprintf(out, "  One-way: %d\n", len(res.OneWay))
			fmt.Fprintf(out, "  Foreign: %d\n", len(res.Foreign))
			return nil
		},
	}

	capturesCmd.Flags().StringVar(&dir, "dir", ".", "directory to write capture files into")
	capturesCmd.Flags().StringVar(&listen, "listen", "", "server address the captures belong to, ip[:port]")
	capturesCmd.Flags().IntVar(&count, "count", d.Count, "number of request/response pairs")
	capturesCmd.Flags().IntVar(&oneWay, "one-way", 0, "number of request files without a response")
	capturesCmd.Flags().IntVar(&foreign, "foreign", 0, "number of pairs for a different server")
	capturesCmd.Flags().DurationVar(&age, "age", d.Age, "backdate file modification times by this much")
	capturesCmd.Flags().Int64Var(&seed, "seed", 0, "random seed, 0 picks one from the clock")
	capturesCmd.MarkFlagRequired("listen")

	cmd.AddCommand(capturesCmd)
	return cmd
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage config files",
	}

	var output string
	initCmd := &cobra.Command{
		Use:     "init",
		Short:   "Write an example config JSON file",
		Example: `  httpcopy config init --output httpcopy.json`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(output); err == nil {
				return fmt.Errorf("%s already exists", output)
			}
			if err := config.WriteExample(output); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated example config at %s\n", output)
			return nil
		},
	}
	initCmd.Flags().StringVar(&output, "output", "httpcopy.json", "output file path")

	cmd.AddCommand(initCmd)
	return cmd
}
