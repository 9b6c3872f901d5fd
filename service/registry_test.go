package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deppcyan/agent-service/graph"
	"github.com/deppcyan/agent-service/persistence"
)

func echoRegistry() *graph.Registry {
	reg := graph.NewRegistry()
	reg.Register("echo", func(config map[string]any) (graph.Node, error) {
		return graph.NodeFunc{
			InPorts:  map[string]graph.PortDescriptor{"in": {Name: "in", Type: graph.PortString, Default: ""}},
			OutPorts: map[string]graph.PortDescriptor{"out": {Name: "out", Type: graph.PortString}},
			Fn: func(ctx context.Context, inputs map[string]any) (map[string]any, error) {
				return map[string]any{"out": inputs["in"]}, nil
			},
		}, nil
	})
	return reg
}

func waitForTerminal(t *testing.T, r *RunRegistry, taskID string) StatusResponse {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		resp := r.Status(context.Background(), taskID)
		if resp.Status != string(graph.StatusRunning) && resp.Status != string(graph.StatusPending) {
			return resp
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("run did not reach a terminal state in time")
	return StatusResponse{}
}

func TestRunRegistry_ExecuteAndStatus(t *testing.T) {
	reg := NewRunRegistry(graph.NewExecutor(), nil)
	def := graph.WorkflowDef{Nodes: map[string]graph.NodeDef{
		"n": {Type: "echo", InputValues: map[string]any{"in": "hi"}},
	}}

	taskID, status, err := reg.Execute(context.Background(), echoRegistry(), def)
	require.NoError(t, err)
	assert.NotEmpty(t, taskID)
	assert.NotEmpty(t, status)

	resp := waitForTerminal(t, reg, taskID)
	assert.Equal(t, string(graph.StatusCompleted), resp.Status)
	assert.Equal(t, "hi", resp.Result["n"]["out"])
}

func TestRunRegistry_StatusUnknownTask(t *testing.T) {
	reg := NewRunRegistry(graph.NewExecutor(), nil)
	resp := reg.Status(context.Background(), "nonexistent")
	assert.True(t, resp.NotFound)
}

func TestRunRegistry_CancelUnknownTask(t *testing.T) {
	reg := NewRunRegistry(graph.NewExecutor(), nil)
	err := reg.Cancel("nonexistent")
	assert.Error(t, err)
}

func TestRunRegistry_CancelStopsARunningTask(t *testing.T) {
	reg := NewRunRegistry(graph.NewExecutor(), nil)

	blockingReg := graph.NewRegistry()
	started := make(chan struct{})
	blockingReg.Register("blocker", func(config map[string]any) (graph.Node, error) {
		return graph.NodeFunc{
			OutPorts: map[string]graph.PortDescriptor{"out": {Name: "out", Type: graph.PortString}},
			Fn: func(ctx context.Context, inputs map[string]any) (map[string]any, error) {
				close(started)
				<-ctx.Done()
				return nil, ctx.Err()
			},
		}, nil
	})
	def := graph.WorkflowDef{Nodes: map[string]graph.NodeDef{"n": {Type: "blocker"}}}

	taskID, _, err := reg.Execute(context.Background(), blockingReg, def)
	require.NoError(t, err)

	<-started
	require.NoError(t, reg.Cancel(taskID))

	resp := waitForTerminal(t, reg, taskID)
	assert.Equal(t, string(graph.StatusCancelled), resp.Status)
}

func TestRunRegistry_PersistsTerminalStateWhenStoreConfigured(t *testing.T) {
	store := persistence.NewMemoryStore()
	reg := NewRunRegistry(graph.NewExecutor(), store)
	def := graph.WorkflowDef{Nodes: map[string]graph.NodeDef{
		"n": {Type: "echo", InputValues: map[string]any{"in": "persisted"}},
	}}

	taskID, _, err := reg.Execute(context.Background(), echoRegistry(), def)
	require.NoError(t, err)
	waitForTerminal(t, reg, taskID)

	// Give the background goroutine's SaveRun call a moment to land.
	deadline := time.Now().Add(time.Second)
	var record persistence.RunRecord
	for time.Now().Before(deadline) {
		rec, err := store.LoadRun(context.Background(), taskID)
		if err == nil {
			record = rec
			break
		}
		time.Sleep(time.Millisecond)
	}
	assert.Equal(t, graph.StatusCompleted, record.Status)
}
