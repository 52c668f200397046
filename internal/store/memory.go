package store

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/unitmap-io/gounitmap/internal/rules"
	"github.com/unitmap-io/gounitmap/internal/snapshot"
)

// priorityStep spaces default priorities so hand-edited values fit between
// appended rules.
const priorityStep = 10

// MemoryRepository is the in-memory implementation of Repository. It uses
// a mutex for authoring mutations and publishes each new state to a
// snapshot holder for lock-free evaluation.
type MemoryRepository struct {
	mu     sync.Mutex
	set    rules.RuleSet
	holder *snapshot.Holder
}

// NewMemoryRepository creates a repository publishing to holder.
func NewMemoryRepository(holder *snapshot.Holder) *MemoryRepository {
	r := &MemoryRepository{
		set:    rules.RuleSet{Version: "1.0", Rules: []rules.Rule{}},
		holder: holder,
	}
	r.publishLocked()
	return r
}

// RuleSet returns a deep copy of the current authoring state.
func (r *MemoryRepository) RuleSet() rules.RuleSet {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.set.Clone()
}

// AppendRule creates a rule with a generated id. The default priority is
// derived from creation order so later rules start lower in precedence
// only if the author says so: 10, 20, 30, ...
func (r *MemoryRepository) AppendRule(name string) rules.Rule {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name == "" {
		name = fmt.Sprintf("Rule %d", len(r.set.Rules)+1)
	}
	rule := rules.Rule{
		ID:                uuid.NewString(),
		Name:              name,
		Priority:          priorityStep * (len(r.set.Rules) + 1),
		Conditions:        []rules.Condition{},
		ConditionOperator: rules.CombinatorAnd,
	}
	r.set.Rules = append(r.set.Rules, rule)
	r.publishLocked()
	return rule.Clone()
}

// UpdateRule applies a partial update to the identified rule.
func (r *MemoryRepository) UpdateRule(id string, update RuleUpdate) (rules.Rule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx, err := r.indexLocked(id)
	if err != nil {
		return rules.Rule{}, err
	}
	rule := &r.set.Rules[idx]
	if update.Name != nil {
		rule.Name = *update.Name
	}
	if update.Priority != nil {
		rule.Priority = *update.Priority
	}
	if update.UnitID != nil {
		rule.UnitID = *update.UnitID
	}
	if update.ConditionOperator != nil {
		rule.ConditionOperator = *update.ConditionOperator
	}
	r.publishLocked()
	return rule.Clone(), nil
}

// AddCondition appends a condition to the identified rule.
func (r *MemoryRepository) AddCondition(ruleID string, cond rules.Condition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx, err := r.indexLocked(ruleID)
	if err != nil {
		return err
	}
	r.set.Rules[idx].Conditions = append(r.set.Rules[idx].Conditions, cond)
	r.publishLocked()
	return nil
}

// UpdateCondition replaces the condition at index on the identified rule.
func (r *MemoryRepository) UpdateCondition(ruleID string, index int, cond rules.Condition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx, err := r.indexLocked(ruleID)
	if err != nil {
		return err
	}
	conds := r.set.Rules[idx].Conditions
	if index < 0 || index >= len(conds) {
		return fmt.Errorf("%w: %d", ErrConditionIndex, index)
	}
	conds[index] = cond
	r.publishLocked()
	return nil
}

// RemoveCondition deletes the condition at index on the identified rule.
func (r *MemoryRepository) RemoveCondition(ruleID string, index int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx, err := r.indexLocked(ruleID)
	if err != nil {
		return err
	}
	conds := r.set.Rules[idx].Conditions
	if index < 0 || index >= len(conds) {
		return fmt.Errorf("%w: %d", ErrConditionIndex, index)
	}
	r.set.Rules[idx].Conditions = append(conds[:index], conds[index+1:]...)
	r.publishLocked()
	return nil
}

// MoveRule shifts a rule by delta positions within the authored list,
// clamped to the list bounds.
func (r *MemoryRepository) MoveRule(id string, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx, err := r.indexLocked(id)
	if err != nil {
		return err
	}
	target := idx + delta
	if target < 0 {
		target = 0
	}
	if target > len(r.set.Rules)-1 {
		target = len(r.set.Rules) - 1
	}
	if target == idx {
		return nil
	}

	rule := r.set.Rules[idx]
	rest := append(r.set.Rules[:idx], r.set.Rules[idx+1:]...)
	r.set.Rules = append(rest[:target], append([]rules.Rule{rule}, rest[target:]...)...)
	r.publishLocked()
	return nil
}

// DeleteRule removes the identified rule.
func (r *MemoryRepository) DeleteRule(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx, err := r.indexLocked(id)
	if err != nil {
		return err
	}
	r.set.Rules = append(r.set.Rules[:idx], r.set.Rules[idx+1:]...)
	r.publishLocked()
	return nil
}

// SetDefaultUnitID sets the fallback unit.
func (r *MemoryRepository) SetDefaultUnitID(unitID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.set.DefaultUnitID = unitID
	r.publishLocked()
}

// SetVersion sets the config version string.
func (r *MemoryRepository) SetVersion(version string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.set.Version = version
	r.publishLocked()
}

// Replace swaps the whole authoring state. Rule ids must be unique; rules
// missing an id get one assigned.
func (r *MemoryRepository) Replace(set rules.RuleSet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{}, len(set.Rules))
	cp := set.Clone()
	for i := range cp.Rules {
		if cp.Rules[i].ID == "" {
			cp.Rules[i].ID = uuid.NewString()
		}
		if _, dup := seen[cp.Rules[i].ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateRuleID, cp.Rules[i].ID)
		}
		seen[cp.Rules[i].ID] = struct{}{}
	}
	r.set = cp
	r.publishLocked()
	return nil
}

func (r *MemoryRepository) indexLocked(id string) (int, error) {
	for i := range r.set.Rules {
		if r.set.Rules[i].ID == id {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrRuleNotFound, id)
}

// publishLocked swaps a fresh immutable snapshot. Callers hold r.mu.
func (r *MemoryRepository) publishLocked() {
	if r.holder == nil {
		return
	}
	r.holder.Update(snapshot.Build(r.set.Clone()))
}
