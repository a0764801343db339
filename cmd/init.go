package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/trialrag/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a trialrag configuration with an interactive wizard",
	Long:  `Runs an interactive wizard that picks the model server, models and data directories, and writes them to the config file (.trialrag.yml by default).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
