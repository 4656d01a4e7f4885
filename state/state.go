// Package state defines the durable AgentState document (spec §3, §4.H):
// the canonical, versioned record a phase reads, mutates, and hands back to
// the engine inside a StateRequest. It is intentionally free of any I/O —
// persistence and trimming live in package store; dispatch and subprocess
// wiring live in package dispatch/phase.
package state

import (
	"encoding/json"
	"fmt"

	"github.com/poking-agents/flock-public/operations"
)

// Source is the fixed set of Node origins named in spec §3.
type Source string

// The closed set of Node sources.
const (
	SourceActorChoice    Source = "actor_choice"
	SourceActorOptions   Source = "actor_options"
	SourceAdvisorChoice  Source = "advisor_choice"
	SourceAdvisorRatings Source = "advisor_ratings"
	SourceToolOutput     Source = "tool_output"
	SourceWarning        Source = "warning"
	SourceSystem         Source = "system"
)

// ThinkingBlock is the discriminated union of opaque reasoning segments an
// Option may carry. Implementations must be echoed back verbatim to some
// providers — never rewrite their payload (spec §9 "Thinking blocks").
type ThinkingBlock interface {
	thinkingBlockKind() string
}

// Thinking is a visible reasoning segment.
type Thinking struct {
	Thinking  string `json:"thinking"`
	Signature string `json:"signature"`
}

func (Thinking) thinkingBlockKind() string { return "thinking" }

// RedactedThinking is an opaque reasoning segment some providers redact;
// Data is an opaque, provider-specific encoded payload.
type RedactedThinking struct {
	Data string `json:"data"`
}

func (RedactedThinking) thinkingBlockKind() string { return "redacted_thinking" }

// Option is one candidate model output (spec §3). FunctionCall reuses
// operations.FunctionCall — the same `{name, arguments}` shape a generate
// result's GenerateOutputItem carries — so an actor's chosen option and the
// operation that produced it share one type.
type Option struct {
	Content        string                   `json:"content"`
	FunctionCall   *operations.FunctionCall `json:"function_call,omitempty"`
	Name           string                   `json:"name,omitempty"`
	ThinkingBlocks []ThinkingBlock          `json:"thinking_blocks,omitempty"`
	Metadata       map[string]any           `json:"metadata,omitempty"`
}

// MarshalJSON encodes Option, discriminating ThinkingBlocks by a "type" tag
// the way spec §3 describes: `{type:"thinking", ...}` / `{type:"redacted_thinking", ...}`.
func (o Option) MarshalJSON() ([]byte, error) {
	type alias struct {
		Content        string                   `json:"content"`
		FunctionCall   *operations.FunctionCall `json:"function_call,omitempty"`
		Name           string                   `json:"name,omitempty"`
		ThinkingBlocks []any                    `json:"thinking_blocks,omitempty"`
		Metadata       map[string]any           `json:"metadata,omitempty"`
	}
	var blocks []any
	for i, b := range o.ThinkingBlocks {
		enc, err := encodeThinkingBlock(b)
		if err != nil {
			return nil, fmt.Errorf("encode thinking_blocks[%d]: %w", i, err)
		}
		blocks = append(blocks, enc)
	}
	return json.Marshal(alias{
		Content:        o.Content,
		FunctionCall:   o.FunctionCall,
		Name:           o.Name,
		ThinkingBlocks: blocks,
		Metadata:       o.Metadata,
	})
}

// UnmarshalJSON decodes Option, materializing concrete ThinkingBlock values.
func (o *Option) UnmarshalJSON(data []byte) error {
	type alias struct {
		Content        string                   `json:"content"`
		FunctionCall   *operations.FunctionCall `json:"function_call,omitempty"`
		Name           string                   `json:"name,omitempty"`
		ThinkingBlocks []json.RawMessage        `json:"thinking_blocks,omitempty"`
		Metadata       map[string]any           `json:"metadata,omitempty"`
	}
	var tmp alias
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	o.Content = tmp.Content
	o.FunctionCall = tmp.FunctionCall
	o.Name = tmp.Name
	o.Metadata = tmp.Metadata
	o.ThinkingBlocks = nil
	for i, raw := range tmp.ThinkingBlocks {
		blk, err := decodeThinkingBlock(raw)
		if err != nil {
			return fmt.Errorf("decode thinking_blocks[%d]: %w", i, err)
		}
		o.ThinkingBlocks = append(o.ThinkingBlocks, blk)
	}
	return nil
}

func encodeThinkingBlock(b ThinkingBlock) (any, error) {
	switch v := b.(type) {
	case Thinking:
		return struct {
			Type string `json:"type"`
			Thinking
		}{Type: "thinking", Thinking: v}, nil
	case RedactedThinking:
		return struct {
			Type string `json:"type"`
			RedactedThinking
		}{Type: "redacted_thinking", RedactedThinking: v}, nil
	default:
		return nil, fmt.Errorf("unknown thinking block type %T", b)
	}
}

func decodeThinkingBlock(raw json.RawMessage) (ThinkingBlock, error) {
	var tag struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &tag); err != nil {
		return nil, err
	}
	switch tag.Type {
	case "thinking":
		var t Thinking
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		return t, nil
	case "redacted_thinking":
		var r RedactedThinking
		if err := json.Unmarshal(raw, &r); err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unknown thinking block type %q", tag.Type)
	}
}

// Node is one entry in the agent's transcript (spec §3). TokenUsage,
// ActionsUsage, and TimeUsage are the usage-counter snapshot at the moment
// the node was added, not live counters.
type Node struct {
	Source       Source         `json:"source"`
	Options      []Option       `json:"options"`
	TokenUsage   int            `json:"token_usage"`
	ActionsUsage int            `json:"actions_usage"`
	TimeUsage    float64        `json:"time_usage"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// ResultPair is one (request, result) pair as carried on a phase's stdin and
// inside previous_results (spec §4.E, §3).
type ResultPair struct {
	Request operations.Request
	Result  operations.Result
}

// MarshalJSON encodes a ResultPair as the two-element array the phase
// subprocess contract expects: `[request, result]`.
func (p ResultPair) MarshalJSON() ([]byte, error) {
	reqJSON, err := operations.MarshalRequest(p.Request)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	resJSON, err := operations.MarshalResult(p.Result)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return json.Marshal([2]json.RawMessage{reqJSON, resJSON})
}

// UnmarshalJSON decodes a two-element `[request, result]` array.
func (p *ResultPair) UnmarshalJSON(data []byte) error {
	var raw [2]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode result pair: %w", err)
	}
	req, err := operations.UnmarshalRequest(raw[0])
	if err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	res, err := operations.UnmarshalResult(raw[1])
	if err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	p.Request = req
	p.Result = res
	return nil
}

// ResultBatch is the result of one phase's dispatched operations: element i
// of AgentState.PreviousResults is the batch produced by phase i (spec §3).
// ProducedByPhase resolves spec §9's open question by tagging batches with
// the phase name that produced them instead of relying on negative-index
// lookups (`previous_results[-1]`/`[-2]` in the source).
type ResultBatch struct {
	ProducedByPhase string       `json:"produced_by_phase"`
	Pairs           []ResultPair `json:"pairs"`
}

// Scoring is the task-provided scoring descriptor (spec §3) — the same
// shape a get_task result's GetTaskOutput carries.
type Scoring = operations.ScoringInfo

// AgentState is the canonical per-workflow document (spec §3).
type AgentState struct {
	ID                       string        `json:"id"`
	TaskString               string        `json:"task_string"`
	PreviousResults          []ResultBatch `json:"previous_results"`
	Nodes                    []Node        `json:"nodes"`
	Settings                 Settings      `json:"settings"`
	TokenUsage               int           `json:"token_usage"`
	TokenLimit               int           `json:"token_limit"`
	ActionsUsage             int           `json:"actions_usage"`
	ActionsLimit             int           `json:"actions_limit"`
	TimeUsage                float64       `json:"time_usage"`
	TimeLimit                float64       `json:"time_limit"`
	Timeout                  int           `json:"timeout"`
	OutputLimit              int           `json:"output_limit"`
	ContextTrimmingThreshold int           `json:"context_trimming_threshold"`
	Scoring                  Scoring       `json:"scoring"`
}

// DefaultContextTrimmingThreshold is used by the store when a state document
// omits context_trimming_threshold (spec §4.A).
const DefaultContextTrimmingThreshold = 400_000

// TrimmingThreshold returns ContextTrimmingThreshold, falling back to the
// engine-wide default when the state hasn't set one.
func (s *AgentState) TrimmingThreshold() int {
	if s.ContextTrimmingThreshold > 0 {
		return s.ContextTrimmingThreshold
	}
	return DefaultContextTrimmingThreshold
}
