package logic

import (
	"encoding/json"
	"strings"

	"github.com/stellivo/areaflow/pkg/interpolate"
)

// Comparison operators accepted by both the structured condition form and
// the string grammar. Longest first so "===" is not split as "==" + "=".
var comparisonOperators = []string{"===", "!==", ">=", "<=", "==", "!=", ">", "<"}

// evaluateCondition resolves an IF condition against the input payload.
// Conditions come in three forms: a boolean literal, a string containing an
// optional single comparison, or a structured {operator, left, right}
// object. Free-form expression evaluation is deliberately not supported;
// strings are limited to one whitelisted comparison.
func evaluateCondition(condition any, input map[string]any) bool {
	switch cond := condition.(type) {
	case nil:
		return false
	case bool:
		return cond
	case string:
		return evaluateStringCondition(cond, input)
	case map[string]any:
		operator, _ := cond["operator"].(string)
		left, leftOK := cond["left"]
		right, rightOK := cond["right"]

		if operator != "" && leftOK && rightOK {
			return compare(operator, resolveOperand(left, input), resolveOperand(right, input))
		}

		return len(cond) > 0
	default:
		return truthy(condition)
	}
}

func evaluateStringCondition(expr string, input map[string]any) bool {
	substituted := substituteJSON(expr, input)

	if operator, left, right, ok := splitComparison(substituted); ok {
		return compare(operator, parseOperand(left), parseOperand(right))
	}

	return substituted != ""
}

// substituteJSON replaces ${key} tokens with the JSON encoding of
// input[key]; unlike configuration interpolation, string values keep their
// quotes so they parse back as string operands.
func substituteJSON(expr string, input map[string]any) string {
	if input == nil {
		return expr
	}

	return interpolate.TokenPattern().ReplaceAllStringFunc(expr, func(token string) string {
		name := strings.TrimSpace(token[2 : len(token)-1])

		value, ok := input[name]
		if !ok {
			return token
		}

		encoded, err := json.Marshal(value)
		if err != nil {
			return token
		}

		return string(encoded)
	})
}

func splitComparison(expr string) (operator, left, right string, ok bool) {
	for _, op := range comparisonOperators {
		if idx := strings.Index(expr, op); idx >= 0 {
			return op, expr[:idx], expr[idx+len(op):], true
		}
	}

	return "", "", "", false
}

// parseOperand interprets one side of a string comparison as a JSON literal
// when possible and falls back to the bare trimmed string.
func parseOperand(raw string) any {
	trimmed := strings.TrimSpace(raw)

	var value any
	if err := json.Unmarshal([]byte(trimmed), &value); err == nil {
		return value
	}

	return trimmed
}

// resolveOperand resolves a structured-condition operand: a string of the
// exact form "${key}" reads input[key], anything else is a literal.
func resolveOperand(value any, input map[string]any) any {
	if s, ok := value.(string); ok {
		if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
			return input[strings.TrimSpace(s[2:len(s)-1])]
		}
	}

	return value
}

func compare(operator string, left, right any) bool {
	switch operator {
	case "==", "===":
		return equal(left, right)
	case "!=", "!==":
		return !equal(left, right)
	case ">", "<", ">=", "<=":
		return ordered(operator, left, right)
	default:
		return false
	}
}

func equal(left, right any) bool {
	if lf, lok := asFloat(left); lok {
		if rf, rok := asFloat(right); rok {
			return lf == rf
		}

		return false
	}

	return left == right
}

func ordered(operator string, left, right any) bool {
	if lf, lok := asFloat(left); lok {
		if rf, rok := asFloat(right); rok {
			switch operator {
			case ">":
				return lf > rf
			case "<":
				return lf < rf
			case ">=":
				return lf >= rf
			case "<=":
				return lf <= rf
			}
		}

		return false
	}

	ls, lok := left.(string)
	rs, rok := right.(string)

	if lok && rok {
		switch operator {
		case ">":
			return ls > rs
		case "<":
			return ls < rs
		case ">=":
			return ls >= rs
		case "<=":
			return ls <= rs
		}
	}

	return false
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()

		return f, err == nil
	default:
		return 0, false
	}
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case float64:
		return v != 0
	case int:
		return v != 0
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return true
	}
}
