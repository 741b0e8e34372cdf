package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/SmitUplenchwar2687/httpcopy/internal/clock"
	"github.com/SmitUplenchwar2687/httpcopy/internal/logging"
)

// NewRootCmd creates the root httpcopy command.
func NewRootCmd() *cobra.Command {
	flags := &configFlags{}

	root := &cobra.Command{
		Use:   "httpcopy",
		Short: "Replay captured HTTP traffic to a shadow server",
		Long: `httpcopy watches a directory of tcpflow capture files, pairs each
request stream with its response stream, and replays the request bytes to a
shadow server. Broken, one-way and filtered flows are moved into invalid*
directories; replayed flows are archived under forward/ together with the
shadow server's response.`,
		Example: `  httpcopy -l 192.168.1.132:80 -f 10.0.0.5:8080
  httpcopy -l 192.168.1.132 -f shadow.internal -u /api -t 5 -i 0
  httpcopy --config httpcopy.json --status-addr :9090 --watch`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.resolve(cmd.Flags())
			if err != nil {
				return err
			}
			if err := logging.Setup(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr()); err != nil {
				return err
			}
			logEffectiveFlags(cmd.Flags())

			svc, err := newService(cfg, clock.NewRealClock())
			if err != nil {
				return err
			}
			defer svc.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return svc.run(ctx)
		},
	}
	flags.register(root.PersistentFlags())

	root.AddCommand(
		newInspectCmd(flags),
		newGenerateCmd(),
		newConfigCmd(),
		newJournalCmd(),
	)
	return root
}

// Execute runs the root command with a background context.
func Execute() error {
	return NewRootCmd().ExecuteContext(context.Background())
}
