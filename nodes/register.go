package nodes

import "github.com/deppcyan/agent-service/graph"

// RegisterControlNodes adds the four mandated control node types to reg.
// The ForEach node is registered separately via RegisterForEach since it
// needs an Executor and the Registry itself to materialize sub-workflows.
func RegisterControlNodes(reg *graph.Registry) {
	reg.Register(ForEachItemType, NewForEachItem)
	reg.Register(SwitchType, NewSwitch)
	reg.Register(MergeType, NewMerge)
	reg.Register(PassThroughType, NewPassThrough)
}

// RegisterForEach adds the ForEach fan-out node type to reg, bound to
// executor for running each iteration's sub-graph.
func RegisterForEach(reg *graph.Registry, executor *graph.Executor) {
	reg.Register(ForEachType, NewForEachFactory(executor, reg))
}
