package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/glance/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/glance/internal/adapters/driving/mcp"
	"github.com/custodia-labs/glance/internal/logger"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "MCP server commands",
	Long:  `Commands for the Model Context Protocol (MCP) server integration.`,
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server so AI assistants can inspect
and control capture on the running daemon.

By default, the server communicates over stdio using JSON-RPC.
Use --port to start an HTTP server instead.

Examples:
  # Stdio mode (default)
  glance mcp serve

  # HTTP mode (for MCP Inspector, remote access)
  glance mcp serve --port 8080

Client configuration:
  {
    "mcpServers": {
      "glance": {
        "command": "/path/to/glance",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = use stdio)")
	mcpServeCmd.Flags().Bool("no-push", false, "do not expose the push_content tool")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, err := cmd.Flags().GetInt("port")
	if err != nil {
		return fmt.Errorf("getting port flag: %w", err)
	}
	noPush, err := cmd.Flags().GetBool("no-push")
	if err != nil {
		return fmt.Errorf("getting no-push flag: %w", err)
	}

	bulk, admin, cfg, err := clients()
	if err != nil {
		return err
	}
	defer bulk.Close()

	ports := &mcp.Ports{Controller: admin}
	if !noPush {
		ports.Pusher = bulk
	}
	if store, err := sqlite.NewStore(cfg.Storage.DataDir); err != nil {
		logger.Warn("store statistics unavailable", "error", err)
	} else {
		defer store.Close()
		ports.Store = store
	}

	server, err := mcp.NewServer(ports)
	if err != nil {
		return err
	}

	if port > 0 {
		addr := fmt.Sprintf(":%d", port)
		fmt.Fprintf(cmd.ErrOrStderr(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}

	return server.Run(cmd.Context())
}
