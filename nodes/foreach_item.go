// Package nodes provides the four control node types the execution model
// mandates: ForEachItem, Switch, Merge, PassThrough, plus the ForEach fan-out
// node itself.
package nodes

import (
	"context"

	"github.com/deppcyan/agent-service/graph"
)

// ForEachItemType is the registry key for the ForEachItem node.
const ForEachItemType = "foreach_item"

// NewForEachItem builds the sub-workflow entry node that receives the
// current item, index, and globals from an enclosing ForEach iteration. All
// three input ports are optional so the node also behaves sensibly when run
// outside a ForEach (e.g. during sub_workflow validation).
func NewForEachItem(map[string]any) (graph.Node, error) {
	return graph.NodeFunc{
		InPorts: map[string]graph.PortDescriptor{
			"foreach_item":        {Name: "foreach_item", Type: graph.PortAny},
			"foreach_index":       {Name: "foreach_index", Type: graph.PortNumber},
			"foreach_global_vars": {Name: "foreach_global_vars", Type: graph.PortObject},
		},
		OutPorts: map[string]graph.PortDescriptor{
			"item":        {Name: "item", Type: graph.PortAny},
			"index":       {Name: "index", Type: graph.PortNumber},
			"global_vars": {Name: "global_vars", Type: graph.PortObject},
		},
		Fn: func(_ context.Context, inputs map[string]any) (map[string]any, error) {
			return map[string]any{
				"item":        inputs["foreach_item"],
				"index":       inputs["foreach_index"],
				"global_vars": inputs["foreach_global_vars"],
			}, nil
		},
	}, nil
}
