package store

import (
	"errors"

	"github.com/unitmap-io/gounitmap/internal/rules"
)

// Sentinel errors returned by Repository implementations.
var (
	ErrRuleNotFound    = errors.New("rule not found")
	ErrConditionIndex  = errors.New("condition index out of range")
	ErrDuplicateRuleID = errors.New("duplicate rule id")
)

// RuleUpdate carries a partial field-by-field update of a rule. Nil
// fields are left untouched.
type RuleUpdate struct {
	Name              *string
	Priority          *int
	UnitID            *string
	ConditionOperator *rules.Combinator
}

// Repository owns the authoring state of a rule set. Implementations must
// be safe for concurrent use, and every mutation must publish a complete
// immutable snapshot so evaluators never observe a rule list mid-edit.
type Repository interface {
	// RuleSet returns a deep copy of the current authoring state.
	RuleSet() rules.RuleSet

	// AppendRule creates a rule with a fresh id and a default priority
	// derived from creation order, and returns it.
	AppendRule(name string) rules.Rule

	// UpdateRule applies a partial update to a rule.
	UpdateRule(id string, update RuleUpdate) (rules.Rule, error)

	// AddCondition appends a condition to a rule.
	AddCondition(ruleID string, cond rules.Condition) error

	// UpdateCondition replaces the condition at index.
	UpdateCondition(ruleID string, index int, cond rules.Condition) error

	// RemoveCondition deletes the condition at index.
	RemoveCondition(ruleID string, index int) error

	// MoveRule shifts a rule within the authored list. List order is
	// cosmetic; it only decides ties among equal priorities.
	MoveRule(id string, delta int) error

	// DeleteRule removes a rule. Deleting an absent rule is an error.
	DeleteRule(id string) error

	// SetDefaultUnitID sets the fallback unit.
	SetDefaultUnitID(unitID string)

	// SetVersion sets the config version string.
	SetVersion(version string)

	// Replace swaps the whole authoring state, e.g. on import.
	Replace(set rules.RuleSet) error
}
