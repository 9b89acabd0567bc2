package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/skillet-cli/skillet/pkg/mcpserver"
	"github.com/skillet-cli/skillet/pkg/presenter"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Expose the skill library as an MCP server over stdio",
	Long: `Mcp serves every skill as an MCP prompt and a skill:// resource over
standard input and output, for use by MCP-capable clients.

Client configuration typically looks like:
  {"command": "skillet", "args": ["mcp"]}`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		reg, err := loadRegistry(ctx)
		if err != nil {
			presenter.Error(err, "Failed to load skill library")
			os.Exit(1)
		}

		if err := mcpserver.New(reg).ServeStdio(ctx); err != nil {
			presenter.Error(err, "MCP server stopped")
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
