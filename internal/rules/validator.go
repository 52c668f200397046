package rules

import (
	"errors"
	"fmt"
	"regexp"
)

// Sentinel errors returned by ValidateRule.
var (
	ErrInvalidCondition = errors.New("invalid condition")
	ErrInvalidOperator  = errors.New("invalid operator")
	ErrInvalidRule      = errors.New("invalid rule")
)

// validOperators is the set of all recognised condition operators.
var validOperators = map[Operator]struct{}{
	OpEquals:           {},
	OpNotEquals:        {},
	OpIn:               {},
	OpNotIn:            {},
	OpContains:         {},
	OpNotContains:      {},
	OpStartsWith:       {},
	OpEndsWith:         {},
	OpIsNullOrEmpty:    {},
	OpIsNotNullOrEmpty: {},
	OpGreaterThan:      {},
	OpLessThan:         {},
	OpRegexMatch:       {},
}

// KnownOperator reports whether op belongs to the closed operator set.
func KnownOperator(op Operator) bool {
	_, ok := validOperators[op]
	return ok
}

// ValidateRule performs strict validation of a rule as submitted through an
// authoring surface. It is a pure function: it never mutates r.
//
// Note the asymmetry with evaluation: at evaluation time structural
// omissions are silently skipped, but newly authored rules are rejected
// eagerly so mistakes surface where they were made.
func ValidateRule(r Rule) error {
	if r.ID == "" {
		return fmt.Errorf("%w: rule id must not be empty", ErrInvalidRule)
	}
	if r.ConditionOperator != "" && r.ConditionOperator != CombinatorAnd && r.ConditionOperator != CombinatorOr {
		return fmt.Errorf("%w: condition operator must be AND or OR, got %q", ErrInvalidRule, r.ConditionOperator)
	}
	for i, c := range r.Conditions {
		if err := ValidateCondition(c); err != nil {
			return fmt.Errorf("condition[%d]: %w", i, err)
		}
	}
	return nil
}

// ValidateCondition checks a single condition as submitted through an
// authoring surface. Blank conditions are allowed; they are excluded from
// evaluation and from built configuration rather than rejected.
func ValidateCondition(c Condition) error {
	if c.Field == "" && c.Operator == "" {
		return nil
	}
	if c.Operator != "" && !KnownOperator(c.Operator) {
		return fmt.Errorf("%w: operator %q is not supported", ErrInvalidOperator, c.Operator)
	}
	if c.Operator == OpRegexMatch && c.Value != "" {
		if _, err := regexp.Compile(c.Value); err != nil {
			return fmt.Errorf("%w: pattern does not compile: %v", ErrInvalidCondition, err)
		}
	}
	return nil
}
