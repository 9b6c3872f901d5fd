package leaf

import (
	"context"
	"fmt"

	"github.com/deppcyan/agent-service/graph"
	"github.com/deppcyan/agent-service/graph/model"
)

// ModelRequestType is the registry key for ModelRequest.
const ModelRequestType = "model_request"

// NewModelRequestFactory returns a NodeFactory for a ModelRequest node bound
// to a specific chat backend (anthropic, openai, google, or a mock),
// demonstrating how an external-service node plugs into the registry
// alongside the data-transform leaf nodes.
//
// modelName identifies the backend for cost attribution (e.g. "gpt-4o",
// "claude-3-5-sonnet-20241022"); it only needs to match a graph.ModelPricing
// entry when tracker is non-nil. tracker is optional: pass nil to skip cost
// tracking entirely.
func NewModelRequestFactory(chat model.ChatModel, modelName string, tracker *graph.CostTracker) graph.NodeFactory {
	return func(map[string]any) (graph.Node, error) {
		return graph.NodeFunc{
			InPorts: map[string]graph.PortDescriptor{
				"system_prompt": {Name: "system_prompt", Type: graph.PortString},
				"prompt":        {Name: "prompt", Type: graph.PortString, Required: true},
			},
			OutPorts: map[string]graph.PortDescriptor{
				"text": {Name: "text", Type: graph.PortString},
			},
			Fn: func(ctx context.Context, inputs map[string]any) (map[string]any, error) {
				sys, _ := inputs["system_prompt"].(string)
				var messages []model.Message
				if sys != "" {
					messages = append(messages, model.Message{Role: model.RoleSystem, Content: sys})
				}
				prompt, _ := inputs["prompt"].(string)
				messages = append(messages, model.Message{Role: model.RoleUser, Content: prompt})

				out, err := chat.Chat(ctx, messages, nil)
				if err != nil {
					return nil, fmt.Errorf("model_request: %w", err)
				}
				if tracker != nil {
					inputTokens := estimateTokens(sys) + estimateTokens(prompt)
					outputTokens := estimateTokens(out.Text)
					_ = tracker.RecordLLMCall(modelName, inputTokens, outputTokens, "")
				}
				return map[string]any{"text": out.Text}, nil
			},
		}, nil
	}
}

// estimateTokens gives a rough token count for text whose provider didn't
// report usage, using the common ~4-characters-per-token approximation.
func estimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + 3) / 4
}
