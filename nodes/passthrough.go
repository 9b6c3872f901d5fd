package nodes

import (
	"context"

	"github.com/deppcyan/agent-service/graph"
)

// PassThroughType is the registry key for the PassThrough node.
const PassThroughType = "pass_through"

// NewPassThrough builds a PassThrough node: emits data iff control is
// non-empty, or pass_on_empty is true.
func NewPassThrough(map[string]any) (graph.Node, error) {
	return graph.NodeFunc{
		InPorts: map[string]graph.PortDescriptor{
			"data":          {Name: "data", Type: graph.PortAny},
			"control":       {Name: "control", Type: graph.PortAny},
			"pass_on_empty": {Name: "pass_on_empty", Type: graph.PortBoolean, Default: false},
		},
		OutPorts: map[string]graph.PortDescriptor{
			"output": {Name: "output", Type: graph.PortAny},
		},
		Fn: func(_ context.Context, inputs map[string]any) (map[string]any, error) {
			passOnEmpty, _ := inputs["pass_on_empty"].(bool)
			control, hasControl := inputs["control"]
			controlNonEmpty := hasControl && !graph.IsEmpty(control)
			if controlNonEmpty || passOnEmpty {
				return map[string]any{"output": inputs["data"]}, nil
			}
			return map[string]any{}, nil
		},
	}, nil
}
