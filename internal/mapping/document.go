// Package mapping implements the canonical interchange format for unit
// mapping rules: building a serializable document from authored rules,
// parsing it back, and validating raw config text.
package mapping

import "encoding/json"

// Document is the top-level interchange shape.
type Document struct {
	UnitMappingRules Config `json:"unit_mapping_rules"`
}

// Config carries the versioned rule list and the default fallback unit.
type Config struct {
	Version       string     `json:"version"`
	DefaultUnitID string     `json:"default_unit_id"`
	Rules         []WireRule `json:"rules"`
}

// WireRule is one rule in interchange form.
type WireRule struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Priority   int            `json:"priority"`
	Conditions RuleConditions `json:"conditions"`
	Result     WireResult     `json:"result"`
}

// WireResult names the unit a matching rule resolves to.
type WireResult struct {
	UnitID string `json:"unit_id"`
}

// WireCondition is one condition in interchange form. Operators that need
// no comparison value omit both value and values; set operators carry a
// values array, every other operator a scalar value.
type WireCondition struct {
	Field    string   `json:"field"`
	Operator string   `json:"operator"`
	Value    *string  `json:"value,omitempty"`
	Values   []string `json:"values,omitempty"`
}

// MarshalJSON emits the values array whenever it is present, even when
// empty. The default omitempty would drop an empty set and turn a
// never-matching IN into a malformed condition.
func (c WireCondition) MarshalJSON() ([]byte, error) {
	type wireConditionJSON struct {
		Field    string    `json:"field"`
		Operator string    `json:"operator"`
		Value    *string   `json:"value,omitempty"`
		Values   *[]string `json:"values,omitempty"`
	}
	out := wireConditionJSON{Field: c.Field, Operator: c.Operator, Value: c.Value}
	if c.Values != nil {
		out.Values = &c.Values
	}
	return json.Marshal(out)
}

// RuleConditions is the conditions field of a wire rule: either a single
// bare condition object or an operator group wrapping several clauses.
// Exactly one of Single and Group is set.
type RuleConditions struct {
	Single *WireCondition
	Group  *ConditionGroup
}

// ConditionGroup wraps two or more clauses under an AND/OR operator.
type ConditionGroup struct {
	Operator string          `json:"operator"`
	Clauses  []WireCondition `json:"clauses"`
}

// MarshalJSON serializes whichever variant is set. A single condition is
// emitted unwrapped, per the interchange contract.
func (rc RuleConditions) MarshalJSON() ([]byte, error) {
	if rc.Group != nil {
		return json.Marshal(rc.Group)
	}
	if rc.Single != nil {
		return json.Marshal(rc.Single)
	}
	return []byte("null"), nil
}

// UnmarshalJSON distinguishes the two variants by the presence of a
// "clauses" key.
func (rc *RuleConditions) UnmarshalJSON(data []byte) error {
	var probe struct {
		Clauses json.RawMessage `json:"clauses"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	if probe.Clauses != nil {
		var group ConditionGroup
		if err := json.Unmarshal(data, &group); err != nil {
			return err
		}
		rc.Group = &group
		rc.Single = nil
		return nil
	}
	var single WireCondition
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	rc.Single = &single
	rc.Group = nil
	return nil
}
