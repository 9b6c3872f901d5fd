package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSingleNodeGraph(t *testing.T, id string, node Node, inputValues map[string]any) (*validatedGraph, *RunContext) {
	t.Helper()
	g := NewGraph()
	g.AddNode(id, node)
	if inputValues != nil {
		g.SetInputValues(id, inputValues)
	}
	vg, err := g.Validate()
	require.NoError(t, err)
	rc := NewRunContext(context.Background())
	return vg, rc
}

func TestResolveInputs_MissingRequired(t *testing.T) {
	node := NodeFunc{
		InPorts: map[string]PortDescriptor{"a": {Name: "a", Type: PortNumber, Required: true}},
		Fn:      func(ctx context.Context, inputs map[string]any) (map[string]any, error) { return nil, nil },
	}
	vg, rc := buildSingleNodeGraph(t, "n", node, nil)

	_, err := resolveInputs("n", node, vg.graph.InputValues["n"], vg, rc)
	require.Error(t, err)
	var missing *MissingRequiredInput
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "a", missing.Port)
}

func TestResolveInputs_DefaultWhenAbsent(t *testing.T) {
	node := NodeFunc{
		InPorts: map[string]PortDescriptor{"a": {Name: "a", Type: PortString, Default: "fallback"}},
		Fn:      func(ctx context.Context, inputs map[string]any) (map[string]any, error) { return nil, nil },
	}
	vg, rc := buildSingleNodeGraph(t, "n", node, nil)

	effective, err := resolveInputs("n", node, vg.graph.InputValues["n"], vg, rc)
	require.NoError(t, err)
	assert.Equal(t, "fallback", effective["a"])
}

func TestResolveInputs_ConstantOverridesDefault(t *testing.T) {
	node := NodeFunc{
		InPorts: map[string]PortDescriptor{"a": {Name: "a", Type: PortString, Default: "fallback"}},
		Fn:      func(ctx context.Context, inputs map[string]any) (map[string]any, error) { return nil, nil },
	}
	vg, rc := buildSingleNodeGraph(t, "n", node, map[string]any{"a": "constant"})

	effective, err := resolveInputs("n", node, vg.graph.InputValues["n"], vg, rc)
	require.NoError(t, err)
	assert.Equal(t, "constant", effective["a"])
}

func TestResolveInputs_ConnectionOverridesConstant(t *testing.T) {
	upstream := NodeFunc{
		OutPorts: map[string]PortDescriptor{"out": {Name: "out", Type: PortString}},
		Fn:       func(ctx context.Context, inputs map[string]any) (map[string]any, error) { return nil, nil },
	}
	downstream := NodeFunc{
		InPorts: map[string]PortDescriptor{"a": {Name: "a", Type: PortString}},
		Fn:      func(ctx context.Context, inputs map[string]any) (map[string]any, error) { return nil, nil },
	}

	g := NewGraph()
	g.AddNode("up", upstream)
	g.AddNode("down", downstream)
	g.SetInputValues("down", map[string]any{"a": "constant"})
	g.AddConnection(Connection{FromNode: "up", FromPort: "out", ToNode: "down", ToPort: "a"})

	vg, err := g.Validate()
	require.NoError(t, err)
	rc := NewRunContext(context.Background())
	rc.storeResult("up", map[string]any{"out": "from connection"})

	effective, err := resolveInputs("down", downstream, vg.graph.InputValues["down"], vg, rc)
	require.NoError(t, err)
	assert.Equal(t, "from connection", effective["a"])
}

func TestResolveInputs_ConnectionWithNoUpstreamOutputFallsThrough(t *testing.T) {
	upstream := NodeFunc{
		OutPorts: map[string]PortDescriptor{"out": {Name: "out", Type: PortString}},
		Fn:       func(ctx context.Context, inputs map[string]any) (map[string]any, error) { return nil, nil },
	}
	downstream := NodeFunc{
		InPorts: map[string]PortDescriptor{"a": {Name: "a", Type: PortString, Default: "fallback"}},
		Fn:      func(ctx context.Context, inputs map[string]any) (map[string]any, error) { return nil, nil },
	}

	g := NewGraph()
	g.AddNode("up", upstream)
	g.AddNode("down", downstream)
	g.AddConnection(Connection{FromNode: "up", FromPort: "out", ToNode: "down", ToPort: "a"})

	vg, err := g.Validate()
	require.NoError(t, err)
	rc := NewRunContext(context.Background())
	rc.storeResult("up", map[string]any{}) // upstream produced no value for "out"

	effective, err := resolveInputs("down", downstream, vg.graph.InputValues["down"], vg, rc)
	require.NoError(t, err)
	assert.Equal(t, "fallback", effective["a"])
}

func TestResolveInputs_OptionViolation(t *testing.T) {
	node := NodeFunc{
		InPorts: map[string]PortDescriptor{"op": {Name: "op", Type: PortString, Options: []any{"add", "subtract"}}},
		Fn:      func(ctx context.Context, inputs map[string]any) (map[string]any, error) { return nil, nil },
	}
	vg, rc := buildSingleNodeGraph(t, "n", node, map[string]any{"op": "multiply"})

	_, err := resolveInputs("n", node, vg.graph.InputValues["n"], vg, rc)
	require.Error(t, err)
	var mismatch *TypeMismatch
	require.ErrorAs(t, err, &mismatch)
}

func TestResolveInputs_StringCoercedToJSON(t *testing.T) {
	node := NodeFunc{
		InPorts: map[string]PortDescriptor{"payload": {Name: "payload", Type: PortJSON}},
		Fn:      func(ctx context.Context, inputs map[string]any) (map[string]any, error) { return nil, nil },
	}
	vg, rc := buildSingleNodeGraph(t, "n", node, map[string]any{"payload": `{"k":"v"}`})

	effective, err := resolveInputs("n", node, vg.graph.InputValues["n"], vg, rc)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"k": "v"}, effective["payload"])
}
