package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "stager",
	Short: "Risk-gated staging pipeline for multi-leg options strategies",
	Long: `Stager takes structured options-strategy candidates, checks their leg
composition against the known archetypes, scores them against configured
risk limits, and drives approved strategies through a staged/approved/
submitted/filled lifecycle with a full audit trail.

It provides tools for:
  - Checking a candidate against archetype rules and risk limits
  - Walking a candidate through the complete staging lifecycle
  - Journaling audit trails and fills to CSV or SQLite
  - Generating and validating configuration files`,
	PersistentPreRunE: loadEnv,
}

var envFile string

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "optional .env file to load before running")
}

func loadEnv(cmd *cobra.Command, args []string) error {
	if envFile == "" {
		return nil
	}
	if _, err := os.Stat(envFile); err != nil {
		return fmt.Errorf("env file %s not found", envFile)
	}
	return godotenv.Load(envFile)
}
