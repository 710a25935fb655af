package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/ad-verify/internal/auth"
	"github.com/ziadkadry99/ad-verify/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "adverify",
	Short: "Retrieval-augmented advertisement credibility checks",
	Long: `adverify checks advertisements against a knowledge base of advertising
regulations. It retrieves the most relevant guidelines, adds context from
the ad's landing page, and asks a language model for a credibility score,
issues and recommendations. It runs as a CLI, an HTTP API with chat, or an
MCP server for AI agents.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(); err != nil {
			return err
		}
		applied, err := auth.ApplyStoredKeys()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not read stored credentials: %v\n", err)
		}
		if verbose && len(applied) > 0 {
			fmt.Fprintf(os.Stderr, "Using stored API keys for: %v\n", applied)
		}
		return nil
	},
}

// Execute runs the CLI. Commands get a context that is canceled on
// SIGINT or SIGTERM, so Ctrl-C aborts in-flight fetches and model calls.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
