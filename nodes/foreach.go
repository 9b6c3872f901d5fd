package nodes

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/deppcyan/agent-service/graph"
)

// ForEachType is the registry key for the ForEach fan-out node.
const ForEachType = "foreach"

// foreachInjectionPorts names the input ports a sub-workflow node may
// declare to receive per-iteration injection. A node need not declare all
// three; whichever of them it declares are overridden.
var foreachInjectionPorts = []string{"foreach_item", "foreach_index", "foreach_global_vars"}

// NewForEachFactory returns a NodeFactory for the ForEach node, closing over
// the Executor and Registry used to materialize and run each iteration's
// sub-graph. executor and registry must outlive every graph built with this
// factory.
func NewForEachFactory(executor *graph.Executor, registry *graph.Registry) graph.NodeFactory {
	return func(map[string]any) (graph.Node, error) {
		return &forEachNode{executor: executor, registry: registry}, nil
	}
}

type forEachNode struct {
	executor *graph.Executor
	registry *graph.Registry
}

func (n *forEachNode) HostsSubWorkflow() {}

func (n *forEachNode) Ports() (in, out map[string]graph.PortDescriptor) {
	in = map[string]graph.PortDescriptor{
		"items":             {Name: "items", Type: graph.PortArray, Required: true},
		"sub_workflow":      {Name: "sub_workflow", Type: graph.PortJSON, Required: true},
		"result_node_id":    {Name: "result_node_id", Type: graph.PortString, Required: true},
		"result_port_name":  {Name: "result_port_name", Type: graph.PortString, Required: true},
		"parallel":          {Name: "parallel", Type: graph.PortBoolean, Default: false},
		"continue_on_error": {Name: "continue_on_error", Type: graph.PortBoolean, Default: false},
		"max_iterations":    {Name: "max_iterations", Type: graph.PortNumber},
		"max_workers":       {Name: "max_workers", Type: graph.PortNumber},
		"global_vars":       {Name: "global_vars", Type: graph.PortObject, Default: map[string]any{}},
	}
	out = map[string]graph.PortDescriptor{
		"results":              {Name: "results", Type: graph.PortArray},
		"sub_workflow_results": {Name: "sub_workflow_results", Type: graph.PortArray},
		"item_value":           {Name: "item_value", Type: graph.PortAny},
		"current_index":        {Name: "current_index", Type: graph.PortNumber},
		"total_count":          {Name: "total_count", Type: graph.PortNumber},
		"success_count":        {Name: "success_count", Type: graph.PortNumber},
		"error_count":          {Name: "error_count", Type: graph.PortNumber},
		"errors":               {Name: "errors", Type: graph.PortArray},
	}
	return in, out
}

// iterationOutcome is one iteration's result, captured at its original
// index so parallel completions can be compacted back into index order.
type iterationOutcome struct {
	index   int
	item    any
	result  any
	subRun  map[string]map[string]any
	err     error
}

func (n *forEachNode) Process(ctx context.Context, inputs map[string]any) (map[string]any, error) {
	nodeID, _ := inputs["result_node_id"].(string)
	portName, _ := inputs["result_port_name"].(string)

	items, ok := inputs["items"].([]any)
	if !ok {
		return nil, &graph.InvalidForEachItems{Got: inputs["items"]}
	}

	def, err := decodeSubWorkflow(inputs["sub_workflow"])
	if err != nil {
		return nil, &graph.InvalidSubWorkflow{Reason: err.Error()}
	}

	// Materialize once up front purely to validate the plan and confirm the
	// result node/port exist before any iteration starts. The validated probe
	// is not reused: each iteration builds and validates its own fresh copy
	// of the same definition.
	probe, err := graph.Build(n.registry, def)
	if err != nil {
		return nil, &graph.InvalidSubWorkflow{Reason: err.Error()}
	}
	if _, err := probe.Validate(); err != nil {
		return nil, &graph.InvalidSubWorkflow{Reason: err.Error()}
	}
	resultNode, ok := probe.Nodes[nodeID]
	if !ok {
		return nil, &graph.InvalidSubWorkflow{Reason: fmt.Sprintf("result_node_id %q not found in sub_workflow", nodeID)}
	}
	_, outPorts := resultNode.Ports()
	if _, ok := outPorts[portName]; !ok {
		return nil, &graph.InvalidSubWorkflow{Reason: fmt.Sprintf("result_port_name %q not declared by node %q", portName, nodeID)}
	}

	effectiveCount := len(items)
	if maxIter, ok := inputs["max_iterations"].(float64); ok && int(maxIter) < effectiveCount {
		effectiveCount = int(maxIter)
	}

	globalVars, _ := inputs["global_vars"].(map[string]any)
	continueOnError, _ := inputs["continue_on_error"].(bool)
	parallel, _ := inputs["parallel"].(bool)

	maxWorkers := effectiveCount
	if w, ok := inputs["max_workers"].(float64); ok && int(w) > 0 {
		maxWorkers = int(w)
	} else if parallel {
		maxWorkers = min(effectiveCount, n.executor.DefaultMaxWorkers())
	}
	if !parallel {
		maxWorkers = 1
	}
	if maxWorkers < 1 {
		maxWorkers = 1
	}

	outcomes := make([]iterationOutcome, 0, effectiveCount)
	var mu sync.Mutex
	var wg sync.WaitGroup
	gate := make(chan struct{}, maxWorkers)
	abort := make(chan struct{})
	var aborted bool

	runOne := func(index int) {
		defer wg.Done()
		item := items[index]

		select {
		case <-abort:
			return
		case <-ctx.Done():
			return
		default:
		}

		sub, buildErr := graph.Build(n.registry, def)
		if buildErr != nil {
			mu.Lock()
			outcomes = append(outcomes, iterationOutcome{index: index, item: item, err: buildErr})
			mu.Unlock()
			return
		}
		injectForEachValues(sub, item, index, globalVars)

		vg, valErr := sub.Validate()
		if valErr != nil {
			mu.Lock()
			outcomes = append(outcomes, iterationOutcome{index: index, item: item, err: valErr})
			mu.Unlock()
			return
		}

		childRC := graph.NewRunContext(ctx)
		n.executor.RunChild(vg, childRC)

		var out iterationOutcome
		out.index = index
		out.item = item
		out.subRun = childRC.Results()

		if childRC.Err() != nil {
			out.err = childRC.Err()
		} else if res, ok := childRC.Result(nodeID); ok {
			out.result = res[portName]
		} else {
			out.err = fmt.Errorf("result node %q did not complete", nodeID)
		}

		mu.Lock()
		outcomes = append(outcomes, out)
		if out.err != nil && !continueOnError && !aborted {
			aborted = true
			close(abort)
		}
		mu.Unlock()
	}

	for i := 0; i < effectiveCount; i++ {
		select {
		case <-abort:
		default:
		}
		mu.Lock()
		stop := aborted
		mu.Unlock()
		if stop {
			break
		}

		wg.Add(1)
		gate <- struct{}{}
		go func(idx int) {
			defer func() { <-gate }()
			runOne(idx)
		}(i)

		if !parallel {
			wg.Wait()
		}
	}
	wg.Wait()

	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].index < outcomes[j].index })

	var results []any
	var subResults []any
	var errs []any
	successCount, errorCount := 0, 0

	for _, o := range outcomes {
		subResults = append(subResults, map[string]any{"index": o.index, "results": o.subRun})
		if o.err != nil {
			errorCount++
			errs = append(errs, map[string]any{"index": float64(o.index), "item": o.item, "error": o.err.Error()})
			continue
		}
		successCount++
		results = append(results, o.result)
	}

	var lastItem any
	lastIndex := -1
	if len(outcomes) > 0 {
		lastIndex = outcomes[len(outcomes)-1].index
		lastItem = outcomes[len(outcomes)-1].item
	}

	return map[string]any{
		"results":              results,
		"sub_workflow_results": subResults,
		"item_value":           lastItem,
		"current_index":        float64(lastIndex),
		"total_count":          float64(effectiveCount),
		"success_count":        float64(successCount),
		"error_count":          float64(errorCount),
		"errors":               errs,
	}, nil
}

// injectForEachValues overwrites each ForEach-injection port of every node
// in sub that declares it with this iteration's item, index, and globals.
func injectForEachValues(sub *graph.Graph, item any, index int, globalVars map[string]any) {
	values := map[string]any{
		"foreach_item":        item,
		"foreach_index":       float64(index),
		"foreach_global_vars": globalVars,
	}
	for id, node := range sub.Nodes {
		inPorts, _ := node.Ports()
		overrides := make(map[string]any)
		for _, port := range foreachInjectionPorts {
			if _, declared := inPorts[port]; declared {
				overrides[port] = values[port]
			}
		}
		if len(overrides) == 0 {
			continue
		}
		if existing := sub.InputValues[id]; existing != nil {
			for k, v := range overrides {
				existing[k] = v
			}
		} else {
			sub.SetInputValues(id, overrides)
		}
	}
}

func decodeSubWorkflow(raw any) (graph.WorkflowDef, error) {
	var def graph.WorkflowDef
	b, err := json.Marshal(raw)
	if err != nil {
		return def, err
	}
	if err := json.Unmarshal(b, &def); err != nil {
		return def, err
	}
	return def, nil
}
