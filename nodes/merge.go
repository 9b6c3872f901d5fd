package nodes

import (
	"context"
	"fmt"

	"github.com/deppcyan/agent-service/graph"
)

// MergeType is the registry key for the Merge node.
const MergeType = "merge"

// NewMerge builds a Merge node over inputCount optional inputs
// (input_0..input_{n-1}). config carries "input_count" (float64 or int),
// defaulting to 2.
func NewMerge(config map[string]any) (graph.Node, error) {
	inputCount := 2
	if v, ok := config["input_count"]; ok {
		switch n := v.(type) {
		case int:
			inputCount = n
		case float64:
			inputCount = int(n)
		}
	}
	if inputCount < 1 {
		return nil, fmt.Errorf("merge: input_count must be >= 1, got %d", inputCount)
	}

	in := make(map[string]graph.PortDescriptor, inputCount)
	for i := 0; i < inputCount; i++ {
		name := inputName(i)
		in[name] = graph.PortDescriptor{Name: name, Type: graph.PortAny}
	}

	return graph.NodeFunc{
		InPorts: in,
		OutPorts: map[string]graph.PortDescriptor{
			"output":         {Name: "output", Type: graph.PortAny},
			"selected_index": {Name: "selected_index", Type: graph.PortNumber},
			"has_result":     {Name: "has_result", Type: graph.PortBoolean},
		},
		Fn: func(_ context.Context, inputs map[string]any) (map[string]any, error) {
			for i := 0; i < inputCount; i++ {
				v, present := inputs[inputName(i)]
				if present && !graph.IsEmpty(v) {
					return map[string]any{
						"output":         v,
						"selected_index": float64(i),
						"has_result":     true,
					}, nil
				}
			}
			return map[string]any{
				"output":         nil,
				"selected_index": float64(-1),
				"has_result":     false,
			}, nil
		},
	}, nil
}

func inputName(i int) string { return fmt.Sprintf("input_%d", i) }
