package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unitmap-io/gounitmap/internal/cli"
	"github.com/unitmap-io/gounitmap/internal/client"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List rules on a running server",
	Long: `List the authored mapping rules of a running unitmap server.

Examples:
  unitmap rules --base-url http://localhost:8080
  unitmap rules --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.NewClient(baseURL)
		list, err := c.ListRules(context.Background())
		if err != nil {
			return fmt.Errorf("failed to list rules: %w", err)
		}

		if quiet {
			return nil
		}
		if len(list.Rules) == 0 {
			fmt.Println("No rules found")
			return nil
		}
		if err := cli.PrintRules(list.Rules, cli.OutputFormat(format)); err != nil {
			return err
		}
		if format == string(cli.FormatTable) {
			fmt.Printf("default unit: %s\n", list.DefaultUnitID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}
