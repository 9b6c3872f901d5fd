package leaf

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deppcyan/agent-service/graph/tool"
)

func TestHTTPRequest_ReturnsToolResponse(t *testing.T) {
	mock := &tool.MockTool{
		ToolName: "http_request",
		Responses: []map[string]interface{}{
			{"status_code": 200, "body": "ok", "headers": map[string]interface{}{}},
		},
	}
	node, err := NewHTTPRequestFactory(mock)(nil)
	require.NoError(t, err)

	out, err := node.Process(context.Background(), map[string]any{"url": "https://example.com"})
	require.NoError(t, err)
	assert.Equal(t, 200, out["status_code"])
	assert.Equal(t, "ok", out["body"])
	assert.Equal(t, 1, mock.CallCount())
}

func TestHTTPRequest_PropagatesToolError(t *testing.T) {
	mock := &tool.MockTool{ToolName: "http_request", Err: errors.New("connection refused")}
	node, err := NewHTTPRequestFactory(mock)(nil)
	require.NoError(t, err)

	_, err = node.Process(context.Background(), map[string]any{"url": "https://example.com"})
	assert.Error(t, err)
}

func TestHTTPRequest_ForwardsMethodAndBody(t *testing.T) {
	mock := &tool.MockTool{
		ToolName:  "http_request",
		Responses: []map[string]interface{}{{"status_code": 201}},
	}
	node, err := NewHTTPRequestFactory(mock)(nil)
	require.NoError(t, err)

	_, err = node.Process(context.Background(), map[string]any{
		"url":    "https://example.com/items",
		"method": "POST",
		"body":   `{"name":"widget"}`,
	})
	require.NoError(t, err)
	require.Len(t, mock.Calls, 1)
	assert.Equal(t, "POST", mock.Calls[0].Input["method"])
	assert.Equal(t, `{"name":"widget"}`, mock.Calls[0].Input["body"])
}
