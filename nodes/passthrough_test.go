package nodes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassThrough_EmitsWhenControlNonEmpty(t *testing.T) {
	node, err := NewPassThrough(nil)
	require.NoError(t, err)

	out, err := node.Process(context.Background(), map[string]any{
		"data":    "payload",
		"control": "go",
	})
	require.NoError(t, err)
	assert.Equal(t, "payload", out["output"])
}

func TestPassThrough_WithholdsWhenControlEmpty(t *testing.T) {
	node, err := NewPassThrough(nil)
	require.NoError(t, err)

	out, err := node.Process(context.Background(), map[string]any{
		"data":    "payload",
		"control": "",
	})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestPassThrough_PassOnEmptyOverrides(t *testing.T) {
	node, err := NewPassThrough(nil)
	require.NoError(t, err)

	out, err := node.Process(context.Background(), map[string]any{
		"data":          "payload",
		"control":       "",
		"pass_on_empty": true,
	})
	require.NoError(t, err)
	assert.Equal(t, "payload", out["output"])
}
