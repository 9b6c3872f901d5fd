package nodes

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/deppcyan/agent-service/graph"
)

func marshalForPath(data any) ([]byte, error) {
	return json.Marshal(data)
}

// SwitchType is the registry key for the Switch node.
const SwitchType = "switch"

// SwitchRule is one routing rule evaluated against Switch's data input.
type SwitchRule struct {
	Field       string `json:"field"`
	Operator    string `json:"operator"`
	Value       any    `json:"value"`
	OutputIndex int    `json:"output_index"`
}

// NewSwitch builds a Switch node with outputCount output ports
// (output_0..output_{n-1}) plus fallback. config may carry an
// "output_count" entry (float64 or int); it defaults to 1 when absent.
func NewSwitch(config map[string]any) (graph.Node, error) {
	outputCount := 1
	if v, ok := config["output_count"]; ok {
		switch n := v.(type) {
		case int:
			outputCount = n
		case float64:
			outputCount = int(n)
		}
	}
	if outputCount < 1 {
		return nil, fmt.Errorf("switch: output_count must be >= 1, got %d", outputCount)
	}

	out := map[string]graph.PortDescriptor{
		"fallback": {Name: "fallback", Type: graph.PortAny},
	}
	for i := 0; i < outputCount; i++ {
		name := outputName(i)
		out[name] = graph.PortDescriptor{Name: name, Type: graph.PortAny}
	}

	return graph.NodeFunc{
		InPorts: map[string]graph.PortDescriptor{
			"data":  {Name: "data", Type: graph.PortAny, Required: true},
			"rules": {Name: "rules", Type: graph.PortArray, Default: []any{}},
			"mode":  {Name: "mode", Type: graph.PortString, Default: "first_match"},
		},
		OutPorts: out,
		Fn: func(_ context.Context, inputs map[string]any) (map[string]any, error) {
			return runSwitch(inputs, outputCount)
		},
	}, nil
}

func outputName(i int) string { return fmt.Sprintf("output_%d", i) }

func runSwitch(inputs map[string]any, outputCount int) (map[string]any, error) {
	data := inputs["data"]
	mode, _ := inputs["mode"].(string)
	if mode == "" {
		mode = "first_match"
	}

	rawRules, _ := inputs["rules"].([]any)
	rules := make([]SwitchRule, 0, len(rawRules))
	for _, r := range rawRules {
		m, ok := r.(map[string]any)
		if !ok {
			continue
		}
		rule := SwitchRule{}
		rule.Field, _ = m["field"].(string)
		rule.Operator, _ = m["operator"].(string)
		rule.Value = m["value"]
		switch idx := m["output_index"].(type) {
		case float64:
			rule.OutputIndex = int(idx)
		case int:
			rule.OutputIndex = idx
		}
		rules = append(rules, rule)
	}

	result := make(map[string]any, outputCount+1)

	if mode == "all_matches" {
		matched := false
		for _, rule := range rules {
			if rule.OutputIndex < 0 || rule.OutputIndex >= outputCount {
				continue
			}
			if evaluateRule(data, rule) {
				matched = true
				result[outputName(rule.OutputIndex)] = data
			}
		}
		if !matched {
			result["fallback"] = data
		}
		return result, nil
	}

	// first_match: evaluate in list order, first matching rule wins. If two
	// rules target the same output_index, list order decides which fires.
	for _, rule := range rules {
		if rule.OutputIndex < 0 || rule.OutputIndex >= outputCount {
			continue
		}
		if evaluateRule(data, rule) {
			result[outputName(rule.OutputIndex)] = data
			return result, nil
		}
	}
	result["fallback"] = data
	return result, nil
}

// evaluateRule extracts rule.Field from data via a dotted path (integer
// segments index into arrays) and applies rule.Operator.
func evaluateRule(data any, rule SwitchRule) bool {
	if rule.Operator == "is_empty" || rule.Operator == "is_not_empty" {
		fieldValue, found := extractField(data, rule.Field)
		empty := !found || graph.IsEmpty(fieldValue)
		if rule.Operator == "is_empty" {
			return empty
		}
		return !empty
	}

	fieldValue, found := extractField(data, rule.Field)
	if !found {
		return false
	}
	return applyOperator(fieldValue, rule.Operator, rule.Value)
}

// extractField resolves a dotted path against data using gjson, after
// round-tripping data through JSON. Works uniformly over maps, slices, and
// structs coming out of node outputs as map[string]any/[]any.
func extractField(data any, field string) (any, bool) {
	if field == "" {
		return data, true
	}
	raw, err := marshalForPath(data)
	if err != nil {
		return nil, false
	}
	result := gjson.GetBytes(raw, field)
	if !result.Exists() {
		return nil, false
	}
	return result.Value(), true
}

func applyOperator(fieldValue any, operator string, ruleValue any) bool {
	switch operator {
	case "equals":
		return compareEqual(fieldValue, ruleValue)
	case "not_equals":
		return !compareEqual(fieldValue, ruleValue)
	case "greater":
		return compareNumeric(fieldValue, ruleValue) > 0
	case "greater_equal":
		return compareNumeric(fieldValue, ruleValue) >= 0
	case "less":
		return compareNumeric(fieldValue, ruleValue) < 0
	case "less_equal":
		return compareNumeric(fieldValue, ruleValue) <= 0
	case "contains":
		return strings.Contains(toText(fieldValue), toText(ruleValue))
	case "not_contains":
		return !strings.Contains(toText(fieldValue), toText(ruleValue))
	case "starts_with":
		return strings.HasPrefix(toText(fieldValue), toText(ruleValue))
	case "ends_with":
		return strings.HasSuffix(toText(fieldValue), toText(ruleValue))
	case "regex":
		re, err := regexp.Compile(toText(ruleValue))
		if err != nil {
			return false
		}
		return re.MatchString(toText(fieldValue))
	default:
		return false
	}
}

func compareEqual(a, b any) bool {
	return toText(a) == toText(b) || a == b
}

func compareNumeric(a, b any) int {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if !aok || !bok {
		return 0
	}
	switch {
	case af < bf:
		return -1
	case af > bf:
		return 1
	default:
		return 0
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func toText(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", s)
	}
}
