package main

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"alignbrowser/internal/logging"
	"alignbrowser/internal/manifest"
	mcpserver "alignbrowser/internal/mcp"
)

var mcpDir string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve a built manifest over MCP stdio",
	Long: `Starts an MCP server over stdin/stdout exposing the built manifest to
agent clients: get_manifest_meta, list_experiments, get_experiment.

The server monitors for parent process death and self-terminates when the
client disconnects, to prevent zombie processes.`,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().StringVarP(&mcpDir, "output-dir", "o", "dist", "built output directory holding manifest.json")
}

func runMCP(cmd *cobra.Command, _ []string) error {
	m, err := manifest.Read(filepath.Join(mcpDir, "manifest.json"))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	mcpserver.WatchParent(ctx, cancel)

	logging.New("mcp").Info("starting alignbrowser MCP server over stdio",
		"experiments", m.Metadata.TotalExperiments)
	srv := mcpserver.NewServer(m, version)
	return srv.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}
