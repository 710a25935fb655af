package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/ziadkadry99/ad-verify/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing the verify_ad and search_guidelines tools to AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		kb, err := openKnowledge(ctx, cfg, nil)
		if err != nil {
			return err
		}
		engine, err := buildEngine(ctx, cfg, kb, nil)
		if err != nil {
			return err
		}

		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "adverify MCP server started on stdio (model=%s/%s, chunks=%d)\n", cfg.Provider, cfg.Model, kb.Count())

		return mcpserver.NewServer(engine, kb).Serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
