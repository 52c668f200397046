// Package fields classifies sample context values into semantic types to
// assist rule authoring. It plays no role in evaluation.
package fields

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// Type is the inferred semantic type of a sample value.
type Type string

const (
	TypeUnknown       Type = "unknown"
	TypeArray         Type = "array"
	TypeObject        Type = "object"
	TypeInteger       Type = "integer"
	TypeNumber        Type = "number"
	TypeBoolean       Type = "boolean"
	TypeDatetime      Type = "datetime"
	TypeNumericString Type = "numeric-string"
	TypeString        Type = "string"
)

// maxDepth bounds recursion into nested objects.
const maxDepth = 3

var (
	datetimePattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}`)
	allDigitsPattern = regexp.MustCompile(`^[0-9]+$`)
)

// Descriptor describes one discovered field path.
type Descriptor struct {
	Path        string `json:"path"`
	DisplayName string `json:"display_name"`
	Type        Type   `json:"type"`
	Example     string `json:"example"`
}

// Discover walks a sample context up to three nested levels and produces
// one descriptor per key at every visited level, sorted by display name.
// It is a pure function over its input.
func Discover(sample map[string]any) []Descriptor {
	descriptors := make([]Descriptor, 0, len(sample))
	walk(sample, "", "", 1, &descriptors)
	sort.Slice(descriptors, func(i, j int) bool {
		return descriptors[i].DisplayName < descriptors[j].DisplayName
	})
	return descriptors
}

func walk(obj map[string]any, prefix, parent string, depth int, out *[]Descriptor) {
	for key, value := range obj {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}

		*out = append(*out, Descriptor{
			Path:        path,
			DisplayName: displayName(key, parent),
			Type:        classify(value),
			Example:     formatExample(value),
		})

		if nested, ok := value.(map[string]any); ok && depth < maxDepth {
			walk(nested, path, key, depth+1, out)
		}
	}
}

// classify maps a leaf value to its semantic type.
func classify(value any) Type {
	switch v := value.(type) {
	case nil:
		return TypeUnknown
	case []any:
		return TypeArray
	case map[string]any:
		return TypeObject
	case bool:
		return TypeBoolean
	case float64:
		if v == math.Trunc(v) {
			return TypeInteger
		}
		return TypeNumber
	case int:
		return TypeInteger
	case int64:
		return TypeInteger
	case float32:
		if float64(v) == math.Trunc(float64(v)) {
			return TypeInteger
		}
		return TypeNumber
	case string:
		if datetimePattern.MatchString(v) {
			return TypeDatetime
		}
		if allDigitsPattern.MatchString(v) {
			return TypeNumericString
		}
		return TypeString
	default:
		return TypeUnknown
	}
}

// displayName splits a camel-cased key into capitalized words, suffixing
// the parent key in parentheses for nested fields.
func displayName(key, parent string) string {
	name := splitCamelCase(key)
	if parent != "" {
		name = name + " (" + parent + ")"
	}
	return name
}

func splitCamelCase(key string) string {
	var b strings.Builder
	runes := []rune(key)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) && !unicode.IsUpper(runes[i-1]) {
			b.WriteRune(' ')
		}
		if i == 0 {
			r = unicode.ToUpper(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

func formatExample(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]any, []any:
		blob, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(blob)
	default:
		return fmt.Sprintf("%v", v)
	}
}
