package rules

import (
	"errors"
	"reflect"
	"testing"
)

func TestConditionValid(t *testing.T) {
	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{name: "complete", cond: Condition{Field: "department", Operator: OpEquals, Value: "Sales"}, want: true},
		{name: "missing field", cond: Condition{Operator: OpEquals, Value: "Sales"}, want: false},
		{name: "missing operator", cond: Condition{Field: "department", Value: "Sales"}, want: false},
		{name: "empty value still valid", cond: Condition{Field: "department", Operator: OpEquals}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cond.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewCondition_TaggedByOperator(t *testing.T) {
	set := NewCondition("country", OpIn, "US, CA , MX")
	if want := []string{"US", "CA", "MX"}; !reflect.DeepEqual(set.Values, want) {
		t.Errorf("Values = %v, want %v", set.Values, want)
	}
	if set.Value != "" {
		t.Errorf("set operator should not keep a scalar value, got %q", set.Value)
	}

	scalar := NewCondition("department", OpEquals, "Sales")
	if scalar.Value != "Sales" || scalar.Values != nil {
		t.Errorf("scalar condition = %+v", scalar)
	}

	noValue := NewCondition("manager", OpIsNullOrEmpty, "ignored")
	if noValue.Value != "" || noValue.Values != nil {
		t.Errorf("no-value operator should drop the raw value, got %+v", noValue)
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{raw: "a,b,c", want: []string{"a", "b", "c"}},
		{raw: " a , b ", want: []string{"a", "b"}},
		{raw: "", want: []string{}},
		{raw: "   ", want: []string{}},
		{raw: "single", want: []string{"single"}},
	}
	for _, tt := range tests {
		if got := SplitList(tt.raw); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitList(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestRuleEligible(t *testing.T) {
	valid := Condition{Field: "x", Operator: OpEquals, Value: "1"}

	tests := []struct {
		name string
		rule Rule
		want bool
	}{
		{name: "complete", rule: Rule{ID: "r", UnitID: "u", Conditions: []Condition{valid}}, want: true},
		{name: "empty unit id", rule: Rule{ID: "r", Conditions: []Condition{valid}}, want: false},
		{name: "no conditions", rule: Rule{ID: "r", UnitID: "u"}, want: false},
		{name: "only invalid conditions", rule: Rule{ID: "r", UnitID: "u", Conditions: []Condition{{Field: "x"}}}, want: false},
		{name: "one valid among invalid", rule: Rule{ID: "r", UnitID: "u", Conditions: []Condition{{Field: "x"}, valid}}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rule.Eligible(); got != tt.want {
				t.Errorf("Eligible() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRuleCombinatorDefaultsToAnd(t *testing.T) {
	if got := (Rule{}).Combinator(); got != CombinatorAnd {
		t.Errorf("Combinator() = %v, want AND", got)
	}
	if got := (Rule{ConditionOperator: CombinatorOr}).Combinator(); got != CombinatorOr {
		t.Errorf("Combinator() = %v, want OR", got)
	}
}

func TestRuleSetClone_Independent(t *testing.T) {
	set := RuleSet{
		Version:       "1.0",
		DefaultUnitID: "def",
		Rules: []Rule{{
			ID: "r", UnitID: "u",
			Conditions: []Condition{NewCondition("country", OpIn, "US,CA")},
		}},
	}

	cp := set.Clone()
	cp.Rules[0].UnitID = "changed"
	cp.Rules[0].Conditions[0].Values[0] = "ZZ"

	if set.Rules[0].UnitID != "u" {
		t.Error("Clone should not share rule storage")
	}
	if set.Rules[0].Conditions[0].Values[0] != "US" {
		t.Error("Clone should not share condition value storage")
	}
}

func TestValidateCondition(t *testing.T) {
	tests := []struct {
		name    string
		cond    Condition
		wantErr error
	}{
		{name: "blank allowed", cond: Condition{}},
		{name: "complete", cond: Condition{Field: "x", Operator: OpEquals, Value: "1"}},
		{name: "unknown operator", cond: Condition{Field: "x", Operator: Operator("BETWEEN")}, wantErr: ErrInvalidOperator},
		{name: "bad regex", cond: Condition{Field: "x", Operator: OpRegexMatch, Value: "("}, wantErr: ErrInvalidCondition},
		{name: "good regex", cond: Condition{Field: "x", Operator: OpRegexMatch, Value: "^a+$"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCondition(tt.cond)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateCondition() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateCondition() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateRule(t *testing.T) {
	tests := []struct {
		name    string
		rule    Rule
		wantErr bool
	}{
		{name: "minimal", rule: Rule{ID: "r"}, wantErr: false},
		{name: "missing id", rule: Rule{}, wantErr: true},
		{name: "bad combinator", rule: Rule{ID: "r", ConditionOperator: Combinator("XOR")}, wantErr: true},
		{name: "unknown operator", rule: Rule{ID: "r", Conditions: []Condition{{Field: "x", Operator: Operator("BETWEEN")}}}, wantErr: true},
		{name: "blank condition allowed", rule: Rule{ID: "r", Conditions: []Condition{{}}}, wantErr: false},
		{name: "bad regex rejected", rule: Rule{ID: "r", Conditions: []Condition{{Field: "x", Operator: OpRegexMatch, Value: "("}}}, wantErr: true},
		{name: "good regex", rule: Rule{ID: "r", Conditions: []Condition{{Field: "x", Operator: OpRegexMatch, Value: "^a+$"}}}, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRule(tt.rule)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRule() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
