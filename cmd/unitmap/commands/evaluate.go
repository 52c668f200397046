package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/unitmap-io/gounitmap/internal/cli"
	"github.com/unitmap-io/gounitmap/internal/client"
	"github.com/unitmap-io/gounitmap/internal/engine"
	"github.com/unitmap-io/gounitmap/internal/mapping"
)

var (
	evaluateConfigFile  string
	evaluateContextFile string
	evaluateTrace       bool
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Map a context to a unit id",
	Long: `Evaluate a context against a rule set and print the resolved unit.

With --config the rule set is read from a local config file and evaluated
in-process; otherwise the context is sent to a running server.

Examples:
  unitmap evaluate --config rules.json --context call.json
  unitmap evaluate --context call.json --base-url http://localhost:8080 --trace`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if evaluateContextFile == "" {
			return fmt.Errorf("--context is required")
		}
		raw, err := os.ReadFile(evaluateContextFile)
		if err != nil {
			return fmt.Errorf("failed to read context file: %w", err)
		}
		var callContext map[string]any
		if err := json.Unmarshal(raw, &callContext); err != nil {
			return fmt.Errorf("context file is not a JSON object: %w", err)
		}

		var result engine.Result
		if evaluateConfigFile != "" {
			cfgRaw, err := os.ReadFile(evaluateConfigFile)
			if err != nil {
				return fmt.Errorf("failed to read config file: %w", err)
			}
			set, err := mapping.Parse(cfgRaw)
			if err != nil {
				return fmt.Errorf("failed to parse config: %w", err)
			}
			result = engine.Evaluate(set, engine.Context(callContext))
		} else {
			c := client.NewClient(baseURL)
			remote, err := c.Evaluate(context.Background(), callContext, evaluateTrace)
			if err != nil {
				return fmt.Errorf("failed to evaluate: %w", err)
			}
			result = engine.Result{
				UnitID:        remote.UnitID,
				MatchedRuleID: remote.MatchedRuleID,
				Trace:         remote.Trace,
			}
		}

		if !evaluateTrace {
			result.Trace = nil
		}
		if quiet {
			fmt.Println(result.UnitID)
			return nil
		}
		return cli.PrintResult(result, cli.OutputFormat(format))
	},
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().StringVar(&evaluateConfigFile, "config", "", "Mapping config file (evaluate locally instead of via API)")
	evaluateCmd.Flags().StringVar(&evaluateContextFile, "context", "", "JSON file with the context to evaluate")
	evaluateCmd.Flags().BoolVar(&evaluateTrace, "trace", false, "Include per-rule evaluation trace")
}
