package mapping

import (
	"encoding/json"

	"github.com/unitmap-io/gounitmap/internal/rules"
)

// Build converts an in-memory rule set into its canonical interchange
// document. Invalid conditions are dropped; rules left with no valid
// condition, or with an empty unit id, are dropped entirely. This mirrors
// the evaluation-time exclusion policy so a built config matches exactly
// what the evaluator would consider.
func Build(set rules.RuleSet) Document {
	wireRules := make([]WireRule, 0, len(set.Rules))
	for _, rule := range set.Rules {
		if !rule.Eligible() {
			continue
		}
		wireRules = append(wireRules, buildRule(rule))
	}
	return Document{UnitMappingRules: Config{
		Version:       set.Version,
		DefaultUnitID: set.DefaultUnitID,
		Rules:         wireRules,
	}}
}

// Marshal builds the document and renders it as indented JSON.
func Marshal(set rules.RuleSet) ([]byte, error) {
	return json.MarshalIndent(Build(set), "", "  ")
}

func buildRule(rule rules.Rule) WireRule {
	valid := rule.ValidConditions()
	clauses := make([]WireCondition, 0, len(valid))
	for _, cond := range valid {
		clauses = append(clauses, buildCondition(cond))
	}

	var conditions RuleConditions
	if len(clauses) == 1 {
		conditions.Single = &clauses[0]
	} else {
		conditions.Group = &ConditionGroup{
			Operator: string(rule.Combinator()),
			Clauses:  clauses,
		}
	}

	return WireRule{
		ID:         rule.ID,
		Name:       rule.Name,
		Priority:   rule.Priority,
		Conditions: conditions,
		Result:     WireResult{UnitID: rule.UnitID},
	}
}

func buildCondition(cond rules.Condition) WireCondition {
	wire := WireCondition{Field: cond.Field, Operator: string(cond.Operator)}
	switch {
	case rules.IsSetOperator(cond.Operator):
		wire.Values = cond.ListValues()
	case rules.NeedsValue(cond.Operator):
		value := cond.Value
		wire.Value = &value
	}
	return wire
}
