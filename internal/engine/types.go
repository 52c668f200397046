package engine

import "strings"

// Context is the runtime metadata a rule set is evaluated against:
// an arbitrary mapping from field path to JSON-like values.
type Context map[string]any

// Lookup resolves a dot-delimited field path against the context,
// descending into nested objects. The second return reports whether the
// full path resolved.
func (c Context) Lookup(path string) (any, bool) {
	if c == nil || path == "" {
		return nil, false
	}
	segments := strings.Split(path, ".")
	var current any = map[string]any(c)
	for _, seg := range segments {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Skip reasons recorded in the evaluation trace.
const (
	SkipNoUnit            = "no unit id"
	SkipNoConditions      = "no conditions"
	SkipNoValidConditions = "no valid conditions"
)

// TraceEntry records the outcome for a single rule considered during
// evaluation, for diagnostics.
type TraceEntry struct {
	RuleID   string `json:"rule_id"`
	Name     string `json:"name"`
	Priority int    `json:"priority"`
	Skipped  string `json:"skipped,omitempty"`
	Matched  bool   `json:"matched"`
}

// Result is the outcome of evaluating a rule set against a context.
// MatchedRuleID is empty when the default unit was returned.
type Result struct {
	UnitID        string       `json:"unit_id"`
	MatchedRuleID string       `json:"matched_rule_id,omitempty"`
	Trace         []TraceEntry `json:"trace,omitempty"`
}
