// Package cmd implements the CLI commands for vindex.
package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	apiURL  string
)

var rootCmd = &cobra.Command{
	Use:   "vindex",
	Short: "Track vehicle listings across sources",
	Long:  "An API-first service that ingests vehicle listings from auction sites, classifieds, and archived snapshots, extracts structured attributes via LLM, scores extraction confidence per field, matches listings to vehicle records, and audits stored data against its sources.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")
	rootCmd.PersistentFlags().
		StringVar(&apiURL, "api-url", "http://localhost:8080", "API server URL")

	rootCmd.AddCommand(versionCommand())
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
