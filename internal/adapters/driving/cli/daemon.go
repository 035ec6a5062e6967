package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/glance/internal/daemon"
)

var daemonMemory bool

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the capture daemon",
	Long: `Run the capture daemon in the foreground.

The daemon tracks on-screen windows through the configured helpers,
extracts their content and ingests it into the local store. It serves
the bulk socket for pushed content and the admin socket used by
"glance status", "glance monitor" and "glance mcp serve".

Edits to config.toml are applied without a restart, except for helper
commands, storage and socket paths.`,
	Args: cobra.NoArgs,
	RunE: runDaemon,
}

func init() {
	daemonCmd.Flags().BoolVar(&daemonMemory, "memory", false, "keep content in memory instead of SQLite")
	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	store, cfg, err := loadConfig()
	if err != nil {
		return err
	}

	d, err := daemon.New(cfg, daemon.Options{Memory: daemonMemory, Config: store})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Printf("glance daemon started (admin socket %s)\n", d.AdminPath())
	if err := d.Run(ctx); err != nil {
		return err
	}
	cmd.Println("glance daemon stopped")
	return nil
}
