package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/glance/internal/adapters/driving/ipc"
	"github.com/custodia-labs/glance/internal/core/services"
	"github.com/custodia-labs/glance/internal/daemon"
	"github.com/custodia-labs/glance/internal/logger"
)

var nativeHostCmd = &cobra.Command{
	Use:   "native-host",
	Short: "Serve a browser extension over stdin/stdout",
	Long: `Run as a native messaging host. Push requests are read as
length-prefixed JSON frames on stdin and forwarded to the daemon's bulk
socket; one framed ack is written to stdout per request.

Payloads the daemon cannot take right now are queued and retried while
the host runs. The browser starts this command itself, passing the
caller's origin as an argument.`,
	Args:   cobra.ArbitraryArgs,
	Hidden: true,
	RunE:   runNativeHost,
}

func init() {
	rootCmd.AddCommand(nativeHostCmd)
}

func runNativeHost(cmd *cobra.Command, args []string) error {
	bulk, _, cfg, err := clients()
	if err != nil {
		return err
	}
	defer bulk.Close()
	if len(args) > 0 {
		logger.Debug("native host started", "origin", args[0])
	}

	queue := services.NewIngestQueue(bulk, cfg.Ingest.RetryMax())

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		queue.Run(ctx)
	}()

	host := ipc.NewNativeHost(cmd.InOrStdin(), cmd.OutOrStdout(), queue, cfg.Transport)
	runErr := host.Run(ctx)

	cancel()
	<-done
	if depth := queue.Depth(); depth > 0 {
		drainCtx, stop := context.WithTimeout(context.WithoutCancel(cmd.Context()), daemon.DrainTimeout)
		if err := queue.Drain(drainCtx); err != nil {
			logger.Warn("queued pushes not delivered", "queued", depth, "error", err)
		}
		stop()
	}
	return runErr
}
