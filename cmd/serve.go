package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/ziadkadry99/trialrag/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio that lets AI agents list the persisted indexes, search them and ask them questions.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		// Stdout carries the protocol, so diagnostics must stay on stderr.
		logger := newLogger(cfg)
		defer logger.Sync()

		catalog, err := newCatalog(cfg, logger)
		if err != nil {
			return err
		}

		available := 0
		for _, info := range catalog.Indexes() {
			if info.Available {
				available++
			}
		}

		mcpserver.Version = Version
		fmt.Fprintf(os.Stderr, "trialrag MCP server started on stdio (%d index(es) available)\n", available)

		return mcpserver.NewServer(catalog).Serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
