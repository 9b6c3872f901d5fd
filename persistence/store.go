// Package persistence provides storage for saved workflow definitions and
// run records. It sits entirely outside the graph package: the core engine
// never imports it, and never reaches for a global store of its own.
package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/deppcyan/agent-service/graph"
)

// ErrNotFound is returned when a requested workflow name or run id does not
// exist in the store.
var ErrNotFound = errors.New("persistence: not found")

// RunRecord is the durable projection of a RunContext, suitable for
// answering the service layer's status endpoint for a task id the in-memory
// RunRegistry does not hold (for example one started by an earlier process).
type RunRecord struct {
	TaskID    string
	Status    graph.Status
	Results   map[string]map[string]any
	Error     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// WorkflowStore persists workflow definitions (saved graphs, keyed by name)
// and run records. The core reads and writes opaque JSON matching the Graph
// schema; WorkflowStore implementations never interpret node semantics.
type WorkflowStore interface {
	SaveWorkflow(ctx context.Context, name string, def graph.WorkflowDef) error
	LoadWorkflow(ctx context.Context, name string) (graph.WorkflowDef, error)
	ListWorkflows(ctx context.Context) ([]string, error)
	DeleteWorkflow(ctx context.Context, name string) error

	SaveRun(ctx context.Context, record RunRecord) error
	LoadRun(ctx context.Context, taskID string) (RunRecord, error)

	Close() error
}
