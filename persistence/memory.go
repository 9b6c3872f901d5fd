package persistence

import (
	"context"
	"sync"

	"github.com/deppcyan/agent-service/graph"
)

// MemoryStore is an in-memory WorkflowStore. Data is lost when the process
// exits; useful for tests.
type MemoryStore struct {
	mu        sync.RWMutex
	workflows map[string]graph.WorkflowDef
	runs      map[string]RunRecord
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		workflows: make(map[string]graph.WorkflowDef),
		runs:      make(map[string]RunRecord),
	}
}

func (m *MemoryStore) SaveWorkflow(_ context.Context, name string, def graph.WorkflowDef) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workflows[name] = def
	return nil
}

func (m *MemoryStore) LoadWorkflow(_ context.Context, name string) (graph.WorkflowDef, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	def, ok := m.workflows[name]
	if !ok {
		return graph.WorkflowDef{}, ErrNotFound
	}
	return def, nil
}

func (m *MemoryStore) ListWorkflows(context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.workflows))
	for name := range m.workflows {
		names = append(names, name)
	}
	return names, nil
}

func (m *MemoryStore) DeleteWorkflow(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.workflows, name)
	return nil
}

func (m *MemoryStore) SaveRun(_ context.Context, record RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[record.TaskID] = record
	return nil
}

func (m *MemoryStore) LoadRun(_ context.Context, taskID string) (RunRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.runs[taskID]
	if !ok {
		return RunRecord{}, ErrNotFound
	}
	return rec, nil
}

func (m *MemoryStore) Close() error { return nil }
