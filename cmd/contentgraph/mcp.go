package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/contentgraph/internal/cli"
	"github.com/aretw0/contentgraph/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the configured catalog as an MCP Server.
This allows AI agents to list descriptors, inspect dependencies and trigger a refresh.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")
		loadOnStart, _ := cmd.Flags().GetBool("load-on-start")

		// Logs go to stderr so they never corrupt JSON-RPC on stdout.
		app, err := newApp(cmd, cli.WithLogOutput(os.Stderr))
		if err != nil {
			return err
		}
		defer app.Close()
		log.SetOutput(os.Stderr)

		if loadOnStart {
			if n, err := app.Refresh(cmd.Context()); err != nil {
				app.Logger.Error("Initial load failed", "err", err, "registered", n)
			}
		}

		srv := mcp.NewServer(app.Catalog,
			mcp.WithRefresh(app.Refresh),
			mcp.WithLogger(app.Logger),
		)

		switch transport {
		case "stdio":
			app.Logger.Info("Starting contentgraph MCP Server (Stdio)")
			return srv.ServeStdio()
		case "sse":
			// Create a context that cancels on interrupt signal
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			app.Logger.Info("Starting contentgraph MCP Server (SSE)", "port", port)
			if err := srv.ServeSSE(ctx, port); err != nil {
				return err
			}
			app.Logger.Info("MCP Server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
	mcpCmd.Flags().Bool("load-on-start", true, "Run a load cycle before serving")
}
