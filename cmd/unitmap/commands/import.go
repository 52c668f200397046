package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/unitmap-io/gounitmap/internal/client"
	"github.com/unitmap-io/gounitmap/internal/mapping"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a config document into a running server",
	Long: `Replace the server's authoring state with a mapping config file.
The file is validated locally before it is sent.

Examples:
  unitmap import rules.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		if err := mapping.Validate(raw); err != nil {
			return err
		}

		c := client.NewClient(baseURL)
		if err := c.ImportConfig(context.Background(), raw); err != nil {
			return fmt.Errorf("failed to import: %w", err)
		}
		if !quiet {
			fmt.Println("imported")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
