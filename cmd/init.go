package cmd

import (
	"github.com/spf13/cobra"

	"github.com/SahilWadhwani/threathunt-console/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize huntctl configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure the console and writes a .huntctl.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
