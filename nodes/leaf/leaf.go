// Package leaf supplies leaf node types that sit outside the control-node
// contract: plain data transforms and an external-service node, both built
// on the same Node/Registry extension point as the control nodes.
package leaf

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/deppcyan/agent-service/graph"
)

// TextInputType is the registry key for TextInput.
const TextInputType = "text_input"

// NewTextInput builds a node that emits a single constant or connected text
// value. It exists so the text/data-shape scenarios have a concrete source
// node without needing the full node library.
func NewTextInput(map[string]any) (graph.Node, error) {
	return graph.NodeFunc{
		InPorts: map[string]graph.PortDescriptor{
			"text": {Name: "text", Type: graph.PortString, Required: true},
		},
		OutPorts: map[string]graph.PortDescriptor{
			"text": {Name: "text", Type: graph.PortString},
		},
		Fn: func(_ context.Context, inputs map[string]any) (map[string]any, error) {
			return map[string]any{"text": inputs["text"]}, nil
		},
	}, nil
}

// TextStripType is the registry key for TextStrip.
const TextStripType = "text_strip"

// NewTextStrip builds a node that trims leading/trailing whitespace.
func NewTextStrip(map[string]any) (graph.Node, error) {
	return graph.NodeFunc{
		InPorts: map[string]graph.PortDescriptor{
			"text": {Name: "text", Type: graph.PortString, Required: true},
		},
		OutPorts: map[string]graph.PortDescriptor{
			"text": {Name: "text", Type: graph.PortString},
		},
		Fn: func(_ context.Context, inputs map[string]any) (map[string]any, error) {
			text, _ := inputs["text"].(string)
			return map[string]any{"text": strings.TrimSpace(text)}, nil
		},
	}, nil
}

// TextToListType is the registry key for TextToList.
const TextToListType = "text_to_list"

// NewTextToList builds a node splitting text into a list. config/inputs
// carry "format" (currently only "delimited" is supported) and "delimiter"
// (default ",").
func NewTextToList(map[string]any) (graph.Node, error) {
	return graph.NodeFunc{
		InPorts: map[string]graph.PortDescriptor{
			"text":      {Name: "text", Type: graph.PortString, Required: true},
			"format":    {Name: "format", Type: graph.PortString, Default: "delimited"},
			"delimiter": {Name: "delimiter", Type: graph.PortString, Default: ","},
		},
		OutPorts: map[string]graph.PortDescriptor{
			"list": {Name: "list", Type: graph.PortArray},
		},
		Fn: func(_ context.Context, inputs map[string]any) (map[string]any, error) {
			format, _ := inputs["format"].(string)
			if format != "" && format != "delimited" {
				return nil, fmt.Errorf("text_to_list: unsupported format %q", format)
			}
			text, _ := inputs["text"].(string)
			delimiter, _ := inputs["delimiter"].(string)
			if delimiter == "" {
				delimiter = ","
			}
			parts := strings.Split(text, delimiter)
			list := make([]any, len(parts))
			for i, p := range parts {
				list[i] = strings.TrimSpace(p)
			}
			return map[string]any{"list": list}, nil
		},
	}, nil
}

// MathOperationType is the registry key for MathOperation.
const MathOperationType = "math_operation"

// NewMathOperation builds a node combining two numeric inputs. config/inputs
// carry "operation" (add, subtract, multiply, divide).
func NewMathOperation(map[string]any) (graph.Node, error) {
	return graph.NodeFunc{
		InPorts: map[string]graph.PortDescriptor{
			"a":         {Name: "a", Type: graph.PortNumber, Required: true},
			"b":         {Name: "b", Type: graph.PortNumber, Required: true},
			"operation": {Name: "operation", Type: graph.PortString, Default: "add"},
		},
		OutPorts: map[string]graph.PortDescriptor{
			"result": {Name: "result", Type: graph.PortNumber},
		},
		Fn: func(_ context.Context, inputs map[string]any) (map[string]any, error) {
			a, err := toFloat(inputs["a"])
			if err != nil {
				return nil, err
			}
			b, err := toFloat(inputs["b"])
			if err != nil {
				return nil, err
			}
			op, _ := inputs["operation"].(string)
			if op == "" {
				op = "add"
			}
			var result float64
			switch op {
			case "add":
				result = a + b
			case "subtract":
				result = a - b
			case "multiply":
				result = a * b
			case "divide":
				if b == 0 {
					return nil, fmt.Errorf("math_operation: divide by zero")
				}
				result = a / b
			default:
				return nil, fmt.Errorf("math_operation: unknown operation %q", op)
			}
			return map[string]any{"result": result}, nil
		},
	}, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("math_operation: %q is not numeric", n)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("math_operation: value %v is not numeric", v)
	}
}
