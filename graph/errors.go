package graph

import "fmt"

// GraphValidationError reports a structural problem found by Graph.Validate:
// a dangling connection endpoint, a duplicate connection target, a cyclic
// graph, or an unknown node type. Fatal for the run — no node is dispatched.
type GraphValidationError struct {
	Reason string
	Nodes  []string
}

func (e *GraphValidationError) Error() string {
	if len(e.Nodes) == 0 {
		return "graph validation: " + e.Reason
	}
	return fmt.Sprintf("graph validation: %s (nodes: %v)", e.Reason, e.Nodes)
}

// CyclicGraph builds a GraphValidationError for the specific case of a
// directed cycle detected by Kahn's algorithm; Nodes lists every node that
// never reached in-degree zero.
func CyclicGraph(nodes []string) *GraphValidationError {
	return &GraphValidationError{Reason: "graph contains a cycle", Nodes: nodes}
}

// MissingRequiredInput is raised by port resolution when a required input
// port has no connection, no input_values entry, and no default.
type MissingRequiredInput struct {
	NodeID string
	Port   string
}

func (e *MissingRequiredInput) Error() string {
	return fmt.Sprintf("node %q: missing required input %q", e.NodeID, e.Port)
}

// TypeMismatch is raised by input resolution when a value present for a
// port is not one of the port's allowed Options. Other differences between
// a value's Go type and the port's declared type are not reported.
type TypeMismatch struct {
	NodeID   string
	Port     string
	Expected PortType
	Got      any
}

func (e *TypeMismatch) Error() string {
	return fmt.Sprintf("node %q: port %q expected %s, got %T", e.NodeID, e.Port, e.Expected, e.Got)
}

// TypeCoercionError is raised when a string→json/object coercion fails
// (even after best-effort repair).
type TypeCoercionError struct {
	Value  string
	Target PortType
}

func (e *TypeCoercionError) Error() string {
	return fmt.Sprintf("cannot coerce string to %s: %s", e.Target, e.Value)
}

// NodeProcessError wraps whatever error a node's Process implementation
// returned, attributing it to the node that produced it.
type NodeProcessError struct {
	NodeID string
	Cause  error
}

func (e *NodeProcessError) Error() string {
	return fmt.Sprintf("node %q: %v", e.NodeID, e.Cause)
}

func (e *NodeProcessError) Unwrap() error { return e.Cause }

// InvalidForEachItems is raised by the ForEach node when its "items" input
// is not an array.
type InvalidForEachItems struct {
	NodeID string
	Got    any
}

func (e *InvalidForEachItems) Error() string {
	return fmt.Sprintf("node %q: foreach \"items\" must be an array, got %T", e.NodeID, e.Got)
}

// InvalidSubWorkflow is raised by the ForEach node when its sub_workflow
// fails validation, or result_node_id/result_port_name do not resolve.
type InvalidSubWorkflow struct {
	NodeID string
	Reason string
}

func (e *InvalidSubWorkflow) Error() string {
	return fmt.Sprintf("node %q: invalid sub_workflow: %s", e.NodeID, e.Reason)
}

// IterationError describes a single failed ForEach iteration. The ForEach
// node does not construct it: failed iterations appear in that node's
// "errors" output as maps with "index", "item" and "error" keys.
type IterationError struct {
	Index int
	Item  any
	Cause error
}

func (e *IterationError) Error() string {
	return fmt.Sprintf("iteration %d: %v", e.Index, e.Cause)
}

func (e *IterationError) Unwrap() error { return e.Cause }

// Cancelled describes a run that observed a tripped cancel signal. The
// Executor does not return it: a cancelled run is reported through
// RunContext.Status() as StatusCancelled.
type Cancelled struct {
	RunID string
}

func (e *Cancelled) Error() string {
	return fmt.Sprintf("run %q: cancelled", e.RunID)
}

// RunError is the terminal error attached to a RunContext when status
// transitions to "error". It names the first node to fail and the cause;
// later failures in the same run are recorded in NodeStatus but do not
// overwrite this field (first-surfaced-failure wins, per the propagation
// policy).
type RunError struct {
	NodeID string
	Cause  error
}

func (e *RunError) Error() string {
	if e.NodeID == "" {
		return e.Cause.Error()
	}
	return fmt.Sprintf("node %q: %v", e.NodeID, e.Cause)
}

func (e *RunError) Unwrap() error { return e.Cause }
