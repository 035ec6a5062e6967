// Package cli provides the glance command line.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/glance/internal/adapters/driven/config/file"
	"github.com/custodia-labs/glance/internal/adapters/driving/ipc"
	"github.com/custodia-labs/glance/internal/core/domain"
	"github.com/custodia-labs/glance/internal/logger"
)

// version is set at build time.
var version = "dev"

var (
	configDir string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "glance",
	Short: "Capture and ingest on-screen content",
	Long: `Glance watches the windows on screen, extracts their text through
accessibility or OCR helpers and keeps a deduplicated, chunked copy in a
local store for retrieval.

Run "glance daemon" to start capturing. The other commands talk to the
running daemon over its unix sockets.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if verbose {
			logger.SetVerbose(true)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "",
		"configuration directory (default ~/.glance)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version reported by "glance version".
func SetVersion(v string) {
	version = v
}

// loadConfig opens the config store and reads the configuration. The
// logging section is applied immediately.
func loadConfig() (*file.ConfigStore, domain.Config, error) {
	store, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, domain.Config{}, err
	}
	cfg, err := store.Load()
	if err != nil {
		return nil, domain.Config{}, fmt.Errorf("loading config: %w", err)
	}
	if cfg.Logging.Verbose {
		logger.SetVerbose(true)
	}
	return store, cfg, nil
}

// clients returns a bulk and an admin client for the configured sockets.
func clients() (*ipc.BulkClient, *ipc.AdminClient, domain.Config, error) {
	_, cfg, err := loadConfig()
	if err != nil {
		return nil, nil, cfg, err
	}
	bulk, admin := ipc.SocketPaths(cfg.Transport)
	return ipc.NewBulkClient(bulk), ipc.NewAdminClient(admin), cfg, nil
}

func adminClient() (*ipc.AdminClient, error) {
	_, admin, _, err := clients()
	return admin, err
}
