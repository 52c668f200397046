package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/unitmap-io/gounitmap/internal/client"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the server's rules as a config document",
	Long: `Export the canonical mapping config document from a running server.

Examples:
  unitmap export --output rules.json
  unitmap export`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.NewClient(baseURL)
		doc, err := c.Export(context.Background())
		if err != nil {
			return fmt.Errorf("failed to export: %w", err)
		}

		blob, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode document: %w", err)
		}
		blob = append(blob, '\n')

		if exportOutput == "" {
			_, err = os.Stdout.Write(blob)
			return err
		}
		if err := os.WriteFile(exportOutput, blob, 0o644); err != nil {
			return fmt.Errorf("failed to write file: %w", err)
		}
		if !quiet {
			fmt.Printf("wrote %s\n", exportOutput)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportOutput, "output", "", "Write to file instead of stdout")
}
