package graph

import "context"

// Node is the unit of work in a graph. A node declares the ports it reads
// and writes, then produces outputs from inputs during Process. Process
// must be safe to call concurrently with other nodes' Process calls (but
// never with itself for the same node instance within one run).
type Node interface {
	// Ports returns the node's input and output port declarations, keyed by
	// port name. Called once per run, before dispatch.
	Ports() (in, out map[string]PortDescriptor)

	// Process runs the node's logic against the resolved effective inputs
	// and returns its outputs. A returned error aborts the run unless the
	// node is running inside a ForEach iteration with continue_on_error set.
	Process(ctx context.Context, inputs map[string]any) (map[string]any, error)
}

// NodeFunc adapts a plain function to the Node interface for node types
// whose ports are fixed and whose logic needs no additional state.
type NodeFunc struct {
	InPorts  map[string]PortDescriptor
	OutPorts map[string]PortDescriptor
	Fn       func(ctx context.Context, inputs map[string]any) (map[string]any, error)
}

func (f NodeFunc) Ports() (in, out map[string]PortDescriptor) {
	return f.InPorts, f.OutPorts
}

func (f NodeFunc) Process(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	return f.Fn(ctx, inputs)
}

// SubWorkflowHost is implemented by node types that embed and drive their
// own sub-graph (currently only the foreach node type). The scheduler does
// not check this marker; such a node's Process call recurses into graph
// execution through the Executor handed to it by its factory
// (nodes.NewForEachFactory).
type SubWorkflowHost interface {
	Node
	HostsSubWorkflow()
}
