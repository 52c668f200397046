package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	baseURL string
	format  string
	quiet   bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "unitmap",
	Short: "CLI tool for managing unit mapping rules",
	Long: `Unitmap is a command-line tool for working with unit mapping rule
configurations: evaluating contexts, validating config files, listing
rules on a running server and discovering fields from sample data.

Examples:
  unitmap evaluate --config rules.json --context call.json
  unitmap validate rules.json
  unitmap rules --base-url http://localhost:8080
  unitmap discover sample.json`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "http://localhost:8080", "Base URL of the unitmap API")
	rootCmd.PersistentFlags().StringVar(&format, "format", "table", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Suppress output")
}
