package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/unitmap-io/gounitmap/internal/mapping"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a mapping config file",
	Long: `Check that a mapping config file is structurally well-formed JSON.

Examples:
  unitmap validate rules.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		if err := mapping.Validate(raw); err != nil {
			return err
		}
		if !quiet {
			fmt.Println("ok")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
