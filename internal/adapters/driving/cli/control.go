package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/glance/internal/core/domain"
)

// Status output formats.
const (
	outputAuto = "auto"
	outputText = "text"
	outputJSON = "json"
)

var statusOutput string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show capture status",
	Long: `Show the running daemon's capture status: power mode, queue depth,
counters and every tracked window.

Output is a table on a terminal and JSON otherwise. Use --output to choose.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

var pauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause capture",
	Long:  `Pause capture. In-flight extractions complete; pushed content is refused until resumed.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := adminClient()
		if err != nil {
			return err
		}
		if err := client.Pause(cmd.Context()); err != nil {
			return fmt.Errorf("pause failed: %w", err)
		}
		cmd.Println("Capture paused.")
		return nil
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume capture",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := adminClient()
		if err != nil {
			return err
		}
		if err := client.Resume(cmd.Context()); err != nil {
			return fmt.Errorf("resume failed: %w", err)
		}
		cmd.Println("Capture resumed.")
		return nil
	},
}

var blockCmd = &cobra.Command{
	Use:   "block <bundle-id>",
	Short: "Block an application for this session",
	Long: `Add an application identity to the privacy blocklist of the running
daemon. Its windows stop being captured until the daemon restarts. Add the
identity to privacy.blocked_apps in config.toml to block it permanently.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := adminClient()
		if err != nil {
			return err
		}
		if err := client.Block(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("block failed: %w", err)
		}
		cmd.Printf("Blocked %s.\n", args[0])
		return nil
	},
}

func init() {
	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", outputAuto, "output format: auto, text or json")
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(blockCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	client, err := adminClient()
	if err != nil {
		return err
	}
	status, err := client.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("daemon not reachable: %w", err)
	}

	out := cmd.OutOrStdout()
	switch statusOutput {
	case outputJSON:
		return writeJSON(out, status)
	case outputText:
		printStatus(out, status)
		return nil
	case outputAuto, "":
		if isTerminal(out) {
			printStatus(out, status)
			return nil
		}
		return writeJSON(out, status)
	default:
		return fmt.Errorf("unknown output format %q", statusOutput)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var headingStyle = lipgloss.NewStyle().Bold(true)

func printStatus(w io.Writer, status *domain.SchedulerStatus) {
	state := "running"
	switch {
	case !status.Running:
		state = "stopped"
	case status.Paused:
		state = "paused"
	}

	fmt.Fprintln(w, headingStyle.Render("Capture"))
	fmt.Fprintf(w, "  State: %s\n", state)
	fmt.Fprintf(w, "  Power mode: %s (base interval %s)\n",
		status.PowerMode.Description(), status.BaseInterval.Round(time.Millisecond))
	fmt.Fprintf(w, "  Retry queue: %d\n", status.QueueDepth)
	c := status.Counters
	fmt.Fprintf(w, "  Triggers: %d (coalesced %d), captures: %d, unchanged: %d\n",
		c.Triggers, c.Coalesced, c.Captures, c.Unchanged)
	fmt.Fprintf(w, "  Extractions: %d, pushed: %d, blocked: %d, stale: %d, failures: %d\n",
		c.Extractions, c.Pushed, c.Blocked, c.Stale, c.Failures)
	fmt.Fprintln(w)

	fmt.Fprintln(w, headingStyle.Render(fmt.Sprintf("Windows (%d)", len(status.Windows))))
	if len(status.Windows) == 0 {
		fmt.Fprintln(w, "  none")
		return
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("APP", "TITLE", "KIND", "STATE", "EXTRACTED")
	for _, win := range status.Windows {
		st := string(win.State)
		if win.Problematic {
			st += " (problematic)"
		}
		t.Row(win.AppID, win.Title, string(win.Kind), st, fmt.Sprintf("%d", win.ExtractionCount))
	}
	fmt.Fprintln(w, t.Render())
}
