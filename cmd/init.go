package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/ad-verify/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize adverify configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to choose the model and embedding providers and writes the config file (default .adverify.yml).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
