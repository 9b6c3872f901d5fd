package graph

import (
	"context"
	"errors"
	"time"

	"github.com/deppcyan/agent-service/graph/emit"
)

// Executor drives a validated Graph to completion: computes the ready
// frontier, dispatches each ready node as its own goroutine, and advances
// the frontier as nodes complete. One Executor instance may drive many
// runs; it holds no per-run state itself.
type Executor struct {
	cfg *executorConfig
}

// NewExecutor builds an Executor with the given options applied over the
// defaults (a null emitter, no metrics, ForEach default max_workers=64).
func NewExecutor(opts ...Option) *Executor {
	cfg := defaultExecutorConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return &Executor{cfg: cfg}
}

// DefaultMaxWorkers returns the ForEach concurrency cap this Executor
// applies when a ForEach node has parallel=true but no explicit
// max_workers input, as configured by WithDefaultMaxWorkers.
func (e *Executor) DefaultMaxWorkers() int {
	return e.cfg.defaultMaxWorkers()
}

// Run validates g, creates a fresh top-level RunContext chained to ctx, and
// drives it to completion. The returned RunContext carries the final status,
// per-node status, and result store regardless of outcome; the error return
// is non-nil only for a pre-dispatch GraphValidationError.
func (e *Executor) Run(ctx context.Context, g *Graph) (*RunContext, error) {
	vg, err := g.Validate()
	if err != nil {
		return nil, err
	}
	rc := NewRunContext(ctx)
	e.drive(vg, rc)
	return rc, nil
}

// RunChild drives an already-validated graph under an existing RunContext
// (typically one built by NewRunContext from the caller's context). Used by the ForEach engine
// so that each iteration's sub-run shares the parent's cancellation chain.
func (e *Executor) RunChild(vg *validatedGraph, rc *RunContext) {
	e.drive(vg, rc)
}

// Validate runs Graph.Validate and returns the validated graph, so callers
// can validate a graph (and later pass it to RunChild) without starting a run.
func (e *Executor) Validate(g *Graph) (*validatedGraph, error) {
	return g.Validate()
}

type nodeCompletion struct {
	nodeID  string
	outputs map[string]any
	err     error
}

func (e *Executor) drive(vg *validatedGraph, rc *RunContext) {
	rc.setStatus(StatusRunning)
	e.cfg.emitter.Emit(emit.Event{RunID: rc.RunID.String(), Msg: "run_start"})

	indegree := make(map[string]int, len(vg.indegree))
	for k, v := range vg.indegree {
		indegree[k] = v
	}

	var frontier []string
	for _, id := range vg.sourceNodes {
		frontier = append(frontier, id)
	}

	done := make(chan nodeCompletion)
	inflight := 0
	aborting := false
	dispatched := make(map[string]bool, len(vg.graph.Nodes))

	dispatch := func(nodeID string) {
		dispatched[nodeID] = true
		inflight++
		rc.setNodeStatus(nodeID, NodeRunning)
		if e.cfg.metrics != nil {
			e.cfg.metrics.UpdateInflightNodes(inflight)
		}
		go e.runNode(vg, rc, nodeID, done)
	}

	for len(frontier) > 0 || inflight > 0 {
		if !aborting && rc.Cancelled() {
			aborting = true
		}
		if aborting {
			frontier = nil
		}

		for len(frontier) > 0 {
			id := frontier[0]
			frontier = frontier[1:]
			dispatch(id)
		}

		if inflight == 0 {
			break
		}

		completion := <-done
		inflight--
		if e.cfg.metrics != nil {
			e.cfg.metrics.UpdateInflightNodes(inflight)
		}

		if completion.err != nil {
			rc.setNodeStatus(completion.nodeID, NodeFailed)
			aborting = true
			if rc.Cancelled() && errors.Is(completion.err, rc.Context().Err()) {
				// The node stopped because the run was cancelled; that is
				// not a node failure, so the run can still end cancelled.
				continue
			}
			rc.failWith(completion.nodeID, completion.err)
			e.cfg.emitter.Emit(emit.Event{RunID: rc.RunID.String(), NodeID: completion.nodeID, Msg: "node_failed", Meta: map[string]any{"error": completion.err.Error()}})
			continue
		}

		rc.storeResult(completion.nodeID, completion.outputs)
		rc.setNodeStatus(completion.nodeID, NodeDone)
		e.cfg.emitter.Emit(emit.Event{RunID: rc.RunID.String(), NodeID: completion.nodeID, Msg: "node_done"})

		if aborting {
			continue
		}
		for _, c := range vg.adjacency[completion.nodeID] {
			indegree[c.ToNode]--
			if indegree[c.ToNode] == 0 {
				frontier = append(frontier, c.ToNode)
			}
		}
	}

	for id := range vg.graph.Nodes {
		if !dispatched[id] {
			rc.setNodeStatus(id, NodeSkipped)
		}
	}

	switch {
	case rc.Err() != nil:
		rc.setStatus(StatusError)
	case rc.Cancelled():
		rc.setStatus(StatusCancelled)
	default:
		rc.setStatus(StatusCompleted)
	}
	e.cfg.emitter.Emit(emit.Event{RunID: rc.RunID.String(), Msg: "run_" + string(rc.Status())})
}

func (e *Executor) runNode(vg *validatedGraph, rc *RunContext, nodeID string, done chan<- nodeCompletion) {
	node := vg.graph.Nodes[nodeID]
	start := time.Now()

	inputs, err := resolveInputs(nodeID, node, vg.graph.InputValues[nodeID], vg, rc)
	if err != nil {
		e.recordLatency(rc, nodeID, start, "error")
		done <- nodeCompletion{nodeID: nodeID, err: err}
		return
	}

	outputs, err := node.Process(rc.Context(), inputs)
	if err != nil {
		e.recordLatency(rc, nodeID, start, "error")
		done <- nodeCompletion{nodeID: nodeID, err: &NodeProcessError{NodeID: nodeID, Cause: err}}
		return
	}

	e.recordLatency(rc, nodeID, start, "success")
	done <- nodeCompletion{nodeID: nodeID, outputs: outputs}
}

func (e *Executor) recordLatency(rc *RunContext, nodeID string, start time.Time, status string) {
	if e.cfg.metrics != nil {
		e.cfg.metrics.RecordStepLatency(rc.RunID.String(), nodeID, time.Since(start), status)
	}
}
