// Package interpolate substitutes ${name} placeholders in node configuration
// with values from the current input payload.
package interpolate

import (
	"encoding/json"
	"regexp"
	"strings"
)

var tokenPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// TokenPattern exposes the compiled ${name} pattern for callers that apply
// their own substitution rules, such as condition evaluation.
func TokenPattern() *regexp.Regexp {
	return tokenPattern
}

// Config walks a node configuration and replaces every ${name} token inside
// string values with the value of input[name]. String values are spliced
// raw, without surrounding quotes; any other value is spliced in its JSON
// form. Tokens with no matching input key are left verbatim. The input
// configuration is never mutated.
func Config(conf, input map[string]any) map[string]any {
	if conf == nil {
		return nil
	}

	result := make(map[string]any, len(conf))
	for key, value := range conf {
		result[key] = interpolateValue(value, input)
	}

	return result
}

// String replaces ${name} tokens in a single string.
func String(s string, input map[string]any) string {
	if input == nil || !strings.Contains(s, "${") {
		return s
	}

	return tokenPattern.ReplaceAllStringFunc(s, func(token string) string {
		name := strings.TrimSpace(token[2 : len(token)-1])

		value, ok := input[name]
		if !ok {
			return token
		}

		return splice(value)
	})
}

func interpolateValue(value any, input map[string]any) any {
	switch v := value.(type) {
	case string:
		return String(v, input)
	case map[string]any:
		return Config(v, input)
	case []any:
		items := make([]any, len(v))
		for i, item := range v {
			items[i] = interpolateValue(item, input)
		}

		return items
	default:
		return value
	}
}

func splice(value any) string {
	if s, ok := value.(string); ok {
		return s
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return ""
	}

	return string(encoded)
}
