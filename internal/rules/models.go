package rules

import "strings"

// Operator represents a comparison operator used in mapping conditions.
type Operator string

// Supported condition operators (string values for clean JSON serialization).
// The set is closed: anything outside it never matches at evaluation time.
const (
	OpEquals           Operator = "EQUALS"
	OpNotEquals        Operator = "NOT_EQUALS"
	OpIn               Operator = "IN"
	OpNotIn            Operator = "NOT_IN"
	OpContains         Operator = "CONTAINS"
	OpNotContains      Operator = "NOT_CONTAINS"
	OpStartsWith       Operator = "STARTS_WITH"
	OpEndsWith         Operator = "ENDS_WITH"
	OpIsNullOrEmpty    Operator = "IS_NULL_OR_EMPTY"
	OpIsNotNullOrEmpty Operator = "IS_NOT_NULL_OR_EMPTY"
	OpGreaterThan      Operator = "GREATER_THAN"
	OpLessThan         Operator = "LESS_THAN"
	OpRegexMatch       Operator = "REGEX_MATCH"
)

// Combinator joins the conditions of one rule.
type Combinator string

const (
	CombinatorAnd Combinator = "AND"
	CombinatorOr  Combinator = "OR"
)

// IsSetOperator reports whether op tests membership against a value list.
func IsSetOperator(op Operator) bool {
	return op == OpIn || op == OpNotIn
}

// NeedsValue reports whether op requires a comparison value at all.
func NeedsValue(op Operator) bool {
	return op != OpIsNullOrEmpty && op != OpIsNotNullOrEmpty
}

// Condition represents a single field/operator/value predicate.
//
// For set operators (IN, NOT_IN) the comparison values live in Values,
// split and trimmed from the raw comma-separated input when the condition
// is constructed. For every other operator Value holds the scalar.
type Condition struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    string   `json:"value,omitempty"`
	Values   []string `json:"values,omitempty"`
}

// NewCondition builds a Condition, choosing the value representation by
// operator: set operators get the raw value split into Values, everything
// else keeps the scalar as-is.
func NewCondition(field string, op Operator, raw string) Condition {
	c := Condition{Field: field, Operator: op}
	if IsSetOperator(op) {
		c.Values = SplitList(raw)
		return c
	}
	if NeedsValue(op) {
		c.Value = raw
	}
	return c
}

// Valid reports whether the condition is complete enough to evaluate.
// Invalid conditions are never evaluated and never serialized.
func (c Condition) Valid() bool {
	return c.Field != "" && c.Operator != ""
}

// ListValues returns the membership set for a set-operator condition.
// Falls back to splitting Value so conditions authored with a raw
// comma-separated string behave identically.
func (c Condition) ListValues() []string {
	if c.Values != nil {
		return c.Values
	}
	return SplitList(c.Value)
}

// SplitList splits a comma-separated string into trimmed entries.
// An empty input yields an empty set, not a one-element set.
func SplitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

// Rule represents a named, prioritized set of conditions mapping to a
// target unit. Higher Priority evaluates first; Priority is the sole
// evaluation-order authority, list position is cosmetic.
type Rule struct {
	ID                string      `json:"id"`
	Name              string      `json:"name"`
	Priority          int         `json:"priority"`
	UnitID            string      `json:"unitId"`
	Conditions        []Condition `json:"conditions"`
	ConditionOperator Combinator  `json:"conditionOperator"`
}

// ValidConditions returns the subset of conditions that can be evaluated.
func (r Rule) ValidConditions() []Condition {
	out := make([]Condition, 0, len(r.Conditions))
	for _, c := range r.Conditions {
		if c.Valid() {
			out = append(out, c)
		}
	}
	return out
}

// Eligible reports whether the rule participates in evaluation and in
// generated configuration. A rule without a target unit or without any
// valid condition is excluded by policy, not treated as an error.
func (r Rule) Eligible() bool {
	return r.UnitID != "" && len(r.ValidConditions()) > 0
}

// Combinator returns the rule's condition combinator, defaulting to AND.
func (r Rule) Combinator() Combinator {
	if r.ConditionOperator == CombinatorOr {
		return CombinatorOr
	}
	return CombinatorAnd
}

// Clone returns a deep copy of the rule.
func (r Rule) Clone() Rule {
	cp := r
	cp.Conditions = make([]Condition, len(r.Conditions))
	copy(cp.Conditions, r.Conditions)
	for i, c := range r.Conditions {
		if c.Values != nil {
			vals := make([]string, len(c.Values))
			copy(vals, c.Values)
			cp.Conditions[i].Values = vals
		}
	}
	return cp
}

// RuleSet is a versioned, ordered collection of rules plus the fallback
// unit returned when nothing matches.
type RuleSet struct {
	Version       string `json:"version"`
	DefaultUnitID string `json:"defaultUnitId"`
	Rules         []Rule `json:"rules"`
}

// Clone returns a deep copy of the rule set.
func (s RuleSet) Clone() RuleSet {
	cp := s
	cp.Rules = make([]Rule, len(s.Rules))
	for i, r := range s.Rules {
		cp.Rules[i] = r.Clone()
	}
	return cp
}
