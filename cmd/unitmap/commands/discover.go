package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/unitmap-io/gounitmap/internal/cli"
	"github.com/unitmap-io/gounitmap/internal/fields"
)

var discoverCmd = &cobra.Command{
	Use:   "discover <sample.json>",
	Short: "Discover fields from a sample context",
	Long: `Classify the fields of a sample context JSON file into semantic
types, to assist rule authoring.

Examples:
  unitmap discover sample.json
  unitmap discover sample.json --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		var sample map[string]any
		if err := json.Unmarshal(raw, &sample); err != nil {
			return fmt.Errorf("sample file is not a JSON object: %w", err)
		}

		descriptors := fields.Discover(sample)
		if quiet {
			return nil
		}
		if len(descriptors) == 0 {
			fmt.Println("No fields found")
			return nil
		}
		return cli.PrintDescriptors(descriptors, cli.OutputFormat(format))
	},
}

func init() {
	rootCmd.AddCommand(discoverCmd)
}
