package cli

import (
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/glance/internal/adapters/driving/tui"
)

var monitorInterval time.Duration

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch capture in a terminal UI",
	Long: `Open a live view of the running daemon: every tracked window with its
extractor, state and extraction count, refreshed every few seconds.

Controls:
  ↑/k, ↓/j - Select a window
  p        - Pause capture
  r        - Resume capture
  b        - Block the selected window's application
  u        - Refresh now
  q        - Quit`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

func init() {
	monitorCmd.Flags().DurationVar(&monitorInterval, "interval", tui.DefaultPollInterval, "status refresh interval")
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, _ []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			err = fmt.Errorf("monitor panicked: %v", r)
		}
	}()

	client, err := adminClient()
	if err != nil {
		return err
	}
	return tui.Run(cmd.Context(), &tui.Ports{Controller: client}, monitorInterval)
}
