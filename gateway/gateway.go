// Package gateway implements the client side of the LLM gateway contract
// (spec §6): an HTTP completion endpoint the engine's generate handler talks
// to in LIVE mode, plus two concrete provider backends (Anthropic, OpenAI)
// that can stand in for it directly. The gateway's own internal
// implementation is out of scope (spec §1 Non-goals); this package is only
// the client contract and its retry policy.
package gateway

import (
	"context"

	"github.com/poking-agents/flock-public/operations"
)

// CompletionRequest mirrors the LLM gateway's request body (spec §6) minus
// Stream, which is always false for this engine's synchronous contract.
type CompletionRequest struct {
	APIKey          string                `json:"api_key"`
	Messages        []operations.ChatMessage `json:"messages"`
	Model           string                `json:"model"`
	Temperature     float64               `json:"temperature"`
	N               int                   `json:"n"`
	Functions       []any                 `json:"functions,omitempty"`
	FunctionCall    any                   `json:"function_call,omitempty"`
	ExtraParameters map[string]any        `json:"extraParameters,omitempty"` //nolint:tagliatelle // matches the gateway wire field name.
}

// CompletionResponse is the normalized shape every backend returns,
// regardless of whether the underlying provider responded with an array or
// a singleton completion (spec §6: "Responses carry either an outputs array
// ... or a singleton completion that the handler normalizes into the same
// shape").
type CompletionResponse struct {
	Outputs []operations.GenerateOutputItem
}

// Client is the narrow interface the generate handler depends on. Both the
// HTTP gateway client (Remote) and the direct Anthropic/OpenAI backends
// implement it, so a deployment can point the engine straight at a provider
// SDK in LIVE mode without standing up the separate gateway service.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
}

// ClientFunc adapts a function to a Client.
type ClientFunc func(ctx context.Context, req CompletionRequest) (CompletionResponse, error)

// Complete calls f.
func (f ClientFunc) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	return f(ctx, req)
}
