package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the stager CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("stager version %s\n", version)
		fmt.Println("Risk-gated staging pipeline for multi-leg options strategies")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
