package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/unitmap-io/gounitmap/internal/engine"
	"github.com/unitmap-io/gounitmap/internal/fields"
	"github.com/unitmap-io/gounitmap/internal/rules"
)

// OutputFormat specifies the output format for CLI commands
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
)

// PrintRules outputs rules in the specified format
func PrintRules(list []rules.Rule, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(map[string][]rules.Rule{"rules": list})
	case FormatYAML:
		return printYAML(list)
	case FormatTable:
		return printRuleTable(list)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// PrintResult outputs an evaluation result in the specified format
func PrintResult(result engine.Result, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(result)
	case FormatYAML:
		return printYAML(result)
	case FormatTable:
		fmt.Printf("unit: %s\n", result.UnitID)
		if result.MatchedRuleID != "" {
			fmt.Printf("matched rule: %s\n", result.MatchedRuleID)
		} else {
			fmt.Println("matched rule: (default fallback)")
		}
		return printTraceTable(result.Trace)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// PrintDescriptors outputs discovered field descriptors
func PrintDescriptors(descriptors []fields.Descriptor, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(map[string][]fields.Descriptor{"fields": descriptors})
	case FormatYAML:
		return printYAML(descriptors)
	case FormatTable:
		return printDescriptorTable(descriptors)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func printJSON(data interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func printYAML(data interface{}) error {
	encoder := yaml.NewEncoder(os.Stdout)
	defer encoder.Close()
	encoder.SetIndent(2)
	return encoder.Encode(data)
}

func printRuleTable(list []rules.Rule) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("ID", "Name", "Priority", "Unit", "Combinator", "Conditions")

	for _, rule := range list {
		conds := make([]string, 0, len(rule.Conditions))
		for _, c := range rule.Conditions {
			conds = append(conds, describeCondition(c))
		}
		summary := strings.Join(conds, "; ")
		if len(summary) > 60 {
			summary = summary[:57] + "..."
		}

		table.Append(
			rule.ID,
			rule.Name,
			strconv.Itoa(rule.Priority),
			rule.UnitID,
			string(rule.Combinator()),
			summary,
		)
	}

	return table.Render()
}

func printTraceTable(trace []engine.TraceEntry) error {
	if len(trace) == 0 {
		return nil
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Rule", "Priority", "Matched", "Skipped")

	for _, entry := range trace {
		table.Append(
			entry.Name,
			strconv.Itoa(entry.Priority),
			strconv.FormatBool(entry.Matched),
			entry.Skipped,
		)
	}

	return table.Render()
}

func printDescriptorTable(descriptors []fields.Descriptor) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Display Name", "Path", "Type", "Example")

	for _, d := range descriptors {
		example := d.Example
		if len(example) > 40 {
			example = example[:37] + "..."
		}
		table.Append(d.DisplayName, d.Path, string(d.Type), example)
	}

	return table.Render()
}

func describeCondition(c rules.Condition) string {
	if !c.Valid() {
		return "(incomplete)"
	}
	if rules.IsSetOperator(c.Operator) {
		return fmt.Sprintf("%s %s [%s]", c.Field, c.Operator, strings.Join(c.ListValues(), ","))
	}
	if !rules.NeedsValue(c.Operator) {
		return fmt.Sprintf("%s %s", c.Field, c.Operator)
	}
	return fmt.Sprintf("%s %s %q", c.Field, c.Operator, c.Value)
}
