package main

import (
	"github.com/spf13/cobra"

	mcpadapter "github.com/kirillkom/mood-builder/internal/adapters/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve journal tools over MCP on stdio",
	Long:  `Starts a Model Context Protocol server on stdin/stdout. Logs are written to stderr.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp(cmd.Context(), "mcp", cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		defer app.Close()

		return mcpadapter.New(version, app.Journal, app.Insights, app.Principal, app.Insights.Location()).Start()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
