package mapping

import (
	"encoding/json"
	"fmt"

	"github.com/unitmap-io/gounitmap/internal/rules"
)

// ParseError reports malformed config text. No partial config is ever
// accepted alongside one.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("config parse error: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Validate checks that raw config text is a structurally well-formed
// mapping document. It does not semantically re-validate rule contents.
func Validate(data []byte) error {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return &ParseError{Err: err}
	}
	return nil
}

// Parse decodes canonical config text back into an in-memory rule set.
// Round-tripping a built document reproduces a rule set with identical
// matching behavior.
func Parse(data []byte) (rules.RuleSet, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return rules.RuleSet{}, &ParseError{Err: err}
	}
	return FromDocument(doc), nil
}

// FromDocument maps an interchange document onto the in-memory model.
func FromDocument(doc Document) rules.RuleSet {
	cfg := doc.UnitMappingRules
	set := rules.RuleSet{
		Version:       cfg.Version,
		DefaultUnitID: cfg.DefaultUnitID,
		Rules:         make([]rules.Rule, 0, len(cfg.Rules)),
	}
	for _, wire := range cfg.Rules {
		set.Rules = append(set.Rules, parseRule(wire))
	}
	return set
}

func parseRule(wire WireRule) rules.Rule {
	rule := rules.Rule{
		ID:                wire.ID,
		Name:              wire.Name,
		Priority:          wire.Priority,
		UnitID:            wire.Result.UnitID,
		ConditionOperator: rules.CombinatorAnd,
	}
	switch {
	case wire.Conditions.Group != nil:
		if rules.Combinator(wire.Conditions.Group.Operator) == rules.CombinatorOr {
			rule.ConditionOperator = rules.CombinatorOr
		}
		rule.Conditions = make([]rules.Condition, 0, len(wire.Conditions.Group.Clauses))
		for _, clause := range wire.Conditions.Group.Clauses {
			rule.Conditions = append(rule.Conditions, parseCondition(clause))
		}
	case wire.Conditions.Single != nil:
		rule.Conditions = []rules.Condition{parseCondition(*wire.Conditions.Single)}
	}
	return rule
}

func parseCondition(wire WireCondition) rules.Condition {
	cond := rules.Condition{
		Field:    wire.Field,
		Operator: rules.Operator(wire.Operator),
	}
	if wire.Values != nil {
		cond.Values = wire.Values
	} else if wire.Value != nil {
		cond.Value = *wire.Value
	}
	return cond
}
