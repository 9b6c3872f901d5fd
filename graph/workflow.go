package graph

import "fmt"

// WorkflowDef is the JSON-shaped description of a graph: nodes keyed by id
// plus an ordered connection list. It matches the wire schema exactly,
// including the historical "inputs"/"input_values" field aliasing, so that
// saved workflow files stay interoperable.
type WorkflowDef struct {
	Nodes       map[string]NodeDef `json:"nodes"`
	Connections []ConnectionDef    `json:"connections"`
}

// NodeDef is one entry of WorkflowDef.Nodes.
type NodeDef struct {
	Type        string         `json:"type"`
	Inputs      map[string]any `json:"inputs"`
	InputValues map[string]any `json:"input_values"`
}

// effectiveInputValues merges Inputs and InputValues, with InputValues
// taking precedence when both set the same port (InputValues is the
// canonical field name; Inputs is the legacy alias some saved files use).
func (n NodeDef) effectiveInputValues() map[string]any {
	merged := make(map[string]any, len(n.Inputs)+len(n.InputValues))
	for k, v := range n.Inputs {
		merged[k] = v
	}
	for k, v := range n.InputValues {
		merged[k] = v
	}
	return merged
}

// ConnectionDef is one entry of WorkflowDef.Connections.
type ConnectionDef struct {
	FromNode string `json:"from_node"`
	FromPort string `json:"from_port"`
	ToNode   string `json:"to_node"`
	ToPort   string `json:"to_port"`
}

// Build materializes a fresh Graph from def using registry to construct each
// node instance. Every call produces brand-new Node instances, which is what
// lets the ForEach engine re-materialize a sub_workflow per iteration without
// iterations observing each other's residue.
func Build(registry *Registry, def WorkflowDef) (*Graph, error) {
	g := NewGraph()
	for id, nodeDef := range def.Nodes {
		config := nodeDef.effectiveInputValues()
		node, err := registry.New(nodeDef.Type, config)
		if err != nil {
			return nil, &GraphValidationError{Reason: fmt.Sprintf("node %q: %v", id, err), Nodes: []string{id}}
		}
		g.AddNode(id, node)
		g.SetInputValues(id, config)
	}
	for _, c := range def.Connections {
		g.AddConnection(Connection{FromNode: c.FromNode, FromPort: c.FromPort, ToNode: c.ToNode, ToPort: c.ToPort})
	}
	return g, nil
}
