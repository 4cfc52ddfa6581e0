package cmd

import (
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"slidegen/internal/app"
	"slidegen/internal/mcptool"
	"slidegen/pkg/config"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve deck generation as an MCP tool over stdio",
	RunE:  runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	// stdout carries the protocol.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel()})))

	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return err
	}

	built, err := app.BuildService(cmd.Context(), cfg, verbose)
	if err != nil {
		return err
	}
	defer func() { _ = built.Close() }()

	slog.Info("Starting MCP server in stdio mode...")
	return server.ServeStdio(mcptool.NewServer(app.NewPipeline(built.Service)))
}
