package gateway

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/poking-agents/flock-public/operations"
)

// AnthropicClient is a Client backed directly by the Anthropic SDK — a
// concrete LIVE generate backend a deployment can select instead of routing
// through the separate gateway service (spec §6's Domain Stack entry for
// anthropic-sdk-go).
type AnthropicClient struct {
	client *anthropic.Client
}

// NewAnthropicClient constructs an AnthropicClient authorized with apiKey.
func NewAnthropicClient(apiKey string) *AnthropicClient {
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicClient{client: &c}
}

// Compile-time assertion that AnthropicClient satisfies Client.
var _ Client = (*AnthropicClient)(nil)

// Complete issues req.N sequential completion requests against the
// Anthropic Messages API — the SDK has no native n>1 concept, so the engine
// fans the count out itself, matching how the gateway presents a uniform
// `outputs` array regardless of provider (spec §6).
func (c *AnthropicClient) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	n := req.N
	if n <= 0 {
		n = 1
	}

	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case "assistant":
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	outputs := make([]operations.GenerateOutputItem, 0, n)
	for i := 0; i < n; i++ {
		resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
			Model:     anthropic.Model(req.Model),
			Messages:  messages,
			MaxTokens: 4096,
		})
		if err != nil {
			return CompletionResponse{}, fmt.Errorf("anthropic: generate: %w", err)
		}
		outputs = append(outputs, toGenerateOutputItem(resp))
	}
	return CompletionResponse{Outputs: outputs}, nil
}

func toGenerateOutputItem(resp *anthropic.Message) operations.GenerateOutputItem {
	var text string
	var call *operations.FunctionCall
	for _, block := range resp.Content {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			text += v.Text
		case anthropic.ToolUseBlock:
			call = &operations.FunctionCall{Name: v.Name, Arguments: string(v.Input)}
		}
	}
	return operations.GenerateOutputItem{
		Completion:   text,
		FunctionCall: call,
		StopReason:   string(resp.StopReason),
	}
}
