package gateway

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/poking-agents/flock-public/operations"
)

// OpenAIClient is a second concrete LIVE backend, demonstrating that the
// generate handler's dependency on Client is provider-agnostic: nothing
// downstream of gateway.Client knows or cares whether completions came from
// Anthropic, OpenAI, or the HTTP gateway (spec §6).
type OpenAIClient struct {
	client *openai.Client
}

// NewOpenAIClient constructs an OpenAIClient authorized with apiKey.
func NewOpenAIClient(apiKey string) *OpenAIClient {
	c := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIClient{client: &c}
}

// Compile-time assertion that OpenAIClient satisfies Client.
var _ Client = (*OpenAIClient)(nil)

// Complete calls the Chat Completions API with n set directly from
// req.N — unlike Anthropic, OpenAI natively supports multiple choices per
// request, so no manual fan-out is needed here.
func (c *OpenAIClient) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	n := req.N
	if n <= 0 {
		n = 1
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case "assistant":
			messages = append(messages, openai.AssistantMessage(m.Content))
		case "system":
			messages = append(messages, openai.SystemMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       req.Model,
		Messages:    messages,
		Temperature: openai.Float(req.Temperature),
		N:           openai.Int(int64(n)),
	})
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("openai: generate: %w", err)
	}

	outputs := make([]operations.GenerateOutputItem, 0, len(resp.Choices))
	for _, choice := range resp.Choices {
		var call *operations.FunctionCall
		if len(choice.Message.ToolCalls) > 0 {
			tc := choice.Message.ToolCalls[0]
			call = &operations.FunctionCall{Name: tc.Function.Name, Arguments: tc.Function.Arguments}
		}
		outputs = append(outputs, operations.GenerateOutputItem{
			Completion:   choice.Message.Content,
			FunctionCall: call,
			StopReason:   string(choice.FinishReason),
		})
	}
	return CompletionResponse{Outputs: outputs}, nil
}
