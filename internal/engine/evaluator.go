package engine

import (
	"sort"

	"github.com/unitmap-io/gounitmap/internal/rules"
)

// EvaluateCondition decides whether a single condition holds against a
// context. Incomplete conditions and unrecognised operators evaluate to
// false, never error.
func EvaluateCondition(cond rules.Condition, ctx Context) bool {
	if !cond.Valid() {
		return false
	}
	handler, ok := getOperatorHandler(cond.Operator)
	if !ok {
		return false
	}
	value, _ := ctx.Lookup(cond.Field)
	return handler.Check(value, cond)
}

// Evaluate computes deterministic rule-based mapping of a context to a
// unit id.
//
// Rules are considered in priority order, highest first; ties keep the
// authored list order. A rule without a unit id or without any valid
// condition is skipped with a trace entry. The first rule whose combined
// conditions hold wins; when nothing matches the set's default unit is
// returned with no matched rule id.
func Evaluate(set rules.RuleSet, ctx Context) Result {
	result := Result{UnitID: set.DefaultUnitID}

	ordered := make([]rules.Rule, len(set.Rules))
	copy(ordered, set.Rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})

	for _, rule := range ordered {
		entry := TraceEntry{RuleID: rule.ID, Name: rule.Name, Priority: rule.Priority}

		switch {
		case rule.UnitID == "":
			entry.Skipped = SkipNoUnit
		case len(rule.Conditions) == 0:
			entry.Skipped = SkipNoConditions
		case len(rule.ValidConditions()) == 0:
			entry.Skipped = SkipNoValidConditions
		}
		if entry.Skipped != "" {
			result.Trace = append(result.Trace, entry)
			continue
		}

		entry.Matched = matches(rule, ctx)
		result.Trace = append(result.Trace, entry)

		if entry.Matched {
			result.UnitID = rule.UnitID
			result.MatchedRuleID = rule.ID
			return result
		}
	}

	return result
}

func matches(rule rules.Rule, ctx Context) bool {
	conditions := rule.ValidConditions()
	if rule.Combinator() == rules.CombinatorOr {
		for _, cond := range conditions {
			if EvaluateCondition(cond, ctx) {
				return true
			}
		}
		return false
	}
	for _, cond := range conditions {
		if !EvaluateCondition(cond, ctx) {
			return false
		}
	}
	return true
}
