// Package service owns the process-wide state the core graph engine
// deliberately does not: a registry of in-flight runs keyed by task id, and
// the glue between that registry and a WorkflowStore for durability. The
// graph package never reaches into this package or any singleton; it only
// ever touches the RunContext and Graph it's handed directly.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/deppcyan/agent-service/graph"
	"github.com/deppcyan/agent-service/internal/logging"
	"github.com/deppcyan/agent-service/persistence"
)

// StatusResponse mirrors the Status response contract: running, completed,
// error, cancelled, or not_found.
type StatusResponse struct {
	Status   string
	Result   map[string]map[string]any
	Error    string
	NotFound bool
}

// RunRegistry tracks every run started through it, by task id, and answers
// status/cancel requests against the live RunContext. Entries are kept in
// memory for the registry's lifetime and never removed; callers that need
// durability across restarts should also pass a persistence.WorkflowStore.
type RunRegistry struct {
	executor *graph.Executor
	store    persistence.WorkflowStore // may be nil
	logger   zerolog.Logger

	mu      sync.RWMutex
	entries map[string]*runEntry
}

type runEntry struct {
	rc *graph.RunContext
}

// RegistryOption configures a RunRegistry. Follows the same functional-option
// idiom as graph.Option.
type RegistryOption func(*RunRegistry)

// WithLogger attaches a process-level logger for registry diagnostics
// (persistence failures, unknown task ids). Defaults to logging.Default().
func WithLogger(l zerolog.Logger) RegistryOption {
	return func(r *RunRegistry) { r.logger = l }
}

// NewRunRegistry builds a RunRegistry driving runs through executor. store
// is optional; when non-nil, every run's terminal state is also persisted
// so Status can still answer for a task id this registry does not hold
// (for example one started by an earlier process).
func NewRunRegistry(executor *graph.Executor, store persistence.WorkflowStore, opts ...RegistryOption) *RunRegistry {
	r := &RunRegistry{
		executor: executor,
		store:    store,
		logger:   logging.Default(),
		entries:  make(map[string]*runEntry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Execute validates def, starts it running in the background, and returns
// immediately with a task id and its initial status.
func (r *RunRegistry) Execute(ctx context.Context, registry *graph.Registry, def graph.WorkflowDef) (taskID string, status string, err error) {
	g, err := graph.Build(registry, def)
	if err != nil {
		return "", "", err
	}
	vg, err := g.Validate()
	if err != nil {
		return "", "", err
	}

	rc := graph.NewRunContext(ctx)
	taskID = uuid.New().String()

	r.mu.Lock()
	r.entries[taskID] = &runEntry{rc: rc}
	r.mu.Unlock()

	go func() {
		r.executor.RunChild(vg, rc)
		if r.store != nil {
			record := persistence.RunRecord{
				TaskID:    taskID,
				Status:    rc.Status(),
				Results:   rc.Results(),
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			}
			if e := rc.Err(); e != nil {
				record.Error = e.Error()
			}
			if err := r.store.SaveRun(context.Background(), record); err != nil {
				r.logger.Error().Err(err).Str("task_id", taskID).Str("status", string(rc.Status())).Msg("persist run record")
			}
		}
	}()

	return taskID, string(rc.Status()), nil
}

// Status reports a task's current status and, for terminal states, its
// result store. Falls back to the durable store (if configured) for a task
// id this registry does not track in memory.
func (r *RunRegistry) Status(ctx context.Context, taskID string) StatusResponse {
	r.mu.RLock()
	entry, ok := r.entries[taskID]
	r.mu.RUnlock()

	if ok {
		resp := StatusResponse{
			Status: string(entry.rc.Status()),
			Result: entry.rc.Results(),
		}
		if e := entry.rc.Err(); e != nil {
			resp.Error = e.Error()
		}
		return resp
	}

	if r.store != nil {
		record, err := r.store.LoadRun(ctx, taskID)
		if err == nil {
			return StatusResponse{Status: string(record.Status), Result: record.Results, Error: record.Error}
		}
	}

	return StatusResponse{Status: "not_found", NotFound: true}
}

// Cancel trips the cancel signal for taskID. Returns an error if the task is
// unknown or already terminal.
func (r *RunRegistry) Cancel(taskID string) error {
	r.mu.RLock()
	entry, ok := r.entries[taskID]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("service: task %q not found", taskID)
	}
	switch s := entry.rc.Status(); s {
	case graph.StatusCompleted, graph.StatusError, graph.StatusCancelled:
		return fmt.Errorf("service: task %q already %s", taskID, s)
	}
	entry.rc.Cancel()
	return nil
}
