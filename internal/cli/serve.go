package cli

import (
	"unixman/internal/logging"
	"unixman/internal/mcp"

	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio",
		Long: `Starts the Model Context Protocol server on stdin/stdout.

This is what an MCP client (Claude Desktop, editors, agents) launches to
talk to unixman; it is rarely useful to run by hand. Stdout carries only
protocol traffic, so diagnostics go to the log file and stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}
}

func runServe(cmd *cobra.Command) error {
	logger := logging.GetDefault()

	cfg, err := activeConfig(cmd)
	if err != nil {
		return err
	}

	return mcp.New(cfg, logger, version).Serve()
}
