package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/unitmap-io/gounitmap/internal/rules"
)

// OperatorHandler evaluates one condition operator against a context value.
type OperatorHandler interface {
	Check(ctxValue any, cond rules.Condition) bool
}

var (
	operatorHandlers = map[rules.Operator]OperatorHandler{
		rules.OpEquals:           equalsHandler{},
		rules.OpNotEquals:        notEqualsHandler{},
		rules.OpIn:               inHandler{},
		rules.OpNotIn:            notInHandler{},
		rules.OpContains:         containsHandler{},
		rules.OpNotContains:      notContainsHandler{},
		rules.OpStartsWith:       startsWithHandler{},
		rules.OpEndsWith:         endsWithHandler{},
		rules.OpIsNullOrEmpty:    emptyHandler{},
		rules.OpIsNotNullOrEmpty: notEmptyHandler{},
		rules.OpGreaterThan:      numericCompareHandler{cmp: func(a, b float64) bool { return a > b }},
		rules.OpLessThan:         numericCompareHandler{cmp: func(a, b float64) bool { return a < b }},
		rules.OpRegexMatch:       regexHandler{},
	}
	// regexCache keeps compiled patterns for the hot evaluation path.
	// Expected value type is *regexp.Regexp.
	regexCache sync.Map
)

func getOperatorHandler(op rules.Operator) (OperatorHandler, bool) {
	h, ok := operatorHandlers[op]
	return h, ok
}

type equalsHandler struct{}

func (equalsHandler) Check(ctxValue any, cond rules.Condition) bool {
	return looseEquals(ctxValue, cond.Value)
}

type notEqualsHandler struct{}

func (notEqualsHandler) Check(ctxValue any, cond rules.Condition) bool {
	return !looseEquals(ctxValue, cond.Value)
}

type inHandler struct{}

func (inHandler) Check(ctxValue any, cond rules.Condition) bool {
	text := toText(ctxValue)
	for _, item := range cond.ListValues() {
		if item == text {
			return true
		}
	}
	return false
}

type notInHandler struct{}

func (notInHandler) Check(ctxValue any, cond rules.Condition) bool {
	// Vacuously true against an empty set.
	return !(inHandler{}).Check(ctxValue, cond)
}

type containsHandler struct{}

func (containsHandler) Check(ctxValue any, cond rules.Condition) bool {
	return strings.Contains(toText(ctxValue), cond.Value)
}

type notContainsHandler struct{}

func (notContainsHandler) Check(ctxValue any, cond rules.Condition) bool {
	return !strings.Contains(toText(ctxValue), cond.Value)
}

type startsWithHandler struct{}

func (startsWithHandler) Check(ctxValue any, cond rules.Condition) bool {
	return strings.HasPrefix(toText(ctxValue), cond.Value)
}

type endsWithHandler struct{}

func (endsWithHandler) Check(ctxValue any, cond rules.Condition) bool {
	return strings.HasSuffix(toText(ctxValue), cond.Value)
}

type emptyHandler struct{}

func (emptyHandler) Check(ctxValue any, _ rules.Condition) bool {
	return isEmptyValue(ctxValue)
}

type notEmptyHandler struct{}

func (notEmptyHandler) Check(ctxValue any, _ rules.Condition) bool {
	return !isEmptyValue(ctxValue)
}

type numericCompareHandler struct {
	cmp func(a, b float64) bool
}

func (h numericCompareHandler) Check(ctxValue any, cond rules.Condition) bool {
	left, ok := toNumber(ctxValue)
	if !ok {
		return false
	}
	right, ok := toNumber(cond.Value)
	if !ok {
		return false
	}
	return h.cmp(left, right)
}

type regexHandler struct{}

func (regexHandler) Check(ctxValue any, cond rules.Condition) bool {
	rx, ok := getCompiledRegex(cond.Value)
	if !ok {
		return false
	}
	return rx.MatchString(toText(ctxValue))
}

func getCompiledRegex(pattern string) (*regexp.Regexp, bool) {
	if cached, ok := regexCache.Load(pattern); ok {
		rx, ok := cached.(*regexp.Regexp)
		return rx, ok
	}

	rx, err := regexp.Compile(pattern)
	if err != nil {
		return nil, false
	}
	regexCache.Store(pattern, rx)
	return rx, true
}

// looseEquals compares a context value with a rule value using type-coercing
// equality: when both sides coerce to numbers they compare numerically,
// otherwise their string forms compare.
func looseEquals(ctxValue any, ruleValue string) bool {
	if left, ok := toNumber(ctxValue); ok {
		if right, ok := toNumber(ruleValue); ok {
			return left == right
		}
	}
	return toText(ctxValue) == ruleValue
}

// isEmptyValue applies the broad falsy rule: nil, empty string, numeric
// zero and false all count as empty.
func isEmptyValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case bool:
		return !val
	default:
		if n, ok := toNumber(v); ok {
			return n == 0
		}
		return false
	}
}

// toText produces the string form of a context value. Missing values
// (nil) stringify to "".
func toText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = toText(item)
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprintf("%v", v)
	}
}

// toNumber coerces a value to float64. Anything that does not cleanly
// coerce reports false, so comparisons against it evaluate to false
// instead of raising.
func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
