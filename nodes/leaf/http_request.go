package leaf

import (
	"context"
	"fmt"

	"github.com/deppcyan/agent-service/graph"
	"github.com/deppcyan/agent-service/graph/tool"
)

// HTTPRequestType is the registry key for HTTPRequest.
const HTTPRequestType = "http_request"

// NewHTTPRequestFactory returns a NodeFactory for a leaf node backed by t,
// letting a graph call out to an HTTP API (or any other tool.Tool, e.g. a
// tool.MockTool in tests) the same way ModelRequest calls out to a chat
// backend.
func NewHTTPRequestFactory(t tool.Tool) graph.NodeFactory {
	return func(map[string]any) (graph.Node, error) {
		return graph.NodeFunc{
			InPorts: map[string]graph.PortDescriptor{
				"url":     {Name: "url", Type: graph.PortString, Required: true},
				"method":  {Name: "method", Type: graph.PortString, Default: "GET"},
				"headers": {Name: "headers", Type: graph.PortObject},
				"body":    {Name: "body", Type: graph.PortString},
			},
			OutPorts: map[string]graph.PortDescriptor{
				"status_code": {Name: "status_code", Type: graph.PortNumber},
				"headers":     {Name: "headers", Type: graph.PortObject},
				"body":        {Name: "body", Type: graph.PortString},
			},
			Fn: func(ctx context.Context, inputs map[string]any) (map[string]any, error) {
				out, err := t.Call(ctx, inputs)
				if err != nil {
					return nil, fmt.Errorf("http_request: %w", err)
				}
				return out, nil
			},
		}, nil
	}
}

// NewHTTPRequestLiveFactory is a convenience factory backing HTTPRequest with
// a real tool.HTTPTool, for use outside of tests.
func NewHTTPRequestLiveFactory() graph.NodeFactory {
	return NewHTTPRequestFactory(tool.NewHTTPTool())
}
