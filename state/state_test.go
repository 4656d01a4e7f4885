package state_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/poking-agents/flock-public/operations"
	"github.com/poking-agents/flock-public/state"
)

func TestOptionJSONRoundTripWithThinkingBlocks(t *testing.T) {
	opt := state.Option{
		Content: "the answer is 42",
		FunctionCall: &operations.FunctionCall{
			Name:      "bash",
			Arguments: `{"command":"echo 42"}`,
		},
		ThinkingBlocks: []state.ThinkingBlock{
			state.Thinking{Thinking: "let me compute", Signature: "sig"},
			state.RedactedThinking{Data: "opaque"},
		},
	}

	data, err := json.Marshal(opt)
	require.NoError(t, err)
	require.Contains(t, string(data), `"type":"thinking"`)
	require.Contains(t, string(data), `"type":"redacted_thinking"`)

	var decoded state.Option
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, opt.Content, decoded.Content)
	require.Equal(t, opt.FunctionCall, decoded.FunctionCall)
	require.Len(t, decoded.ThinkingBlocks, 2)
	require.Equal(t, state.Thinking{Thinking: "let me compute", Signature: "sig"}, decoded.ThinkingBlocks[0])
	require.Equal(t, state.RedactedThinking{Data: "opaque"}, decoded.ThinkingBlocks[1])
}

func TestAppendNodeSnapshotsUsage(t *testing.T) {
	s := &state.AgentState{TokenUsage: 10, ActionsUsage: 2, TimeUsage: 1.5}
	s.AppendNode(state.Node{Source: state.SourceActorChoice})
	require.Len(t, s.Nodes, 1)
	require.Equal(t, 10, s.Nodes[0].TokenUsage)
	require.Equal(t, 2, s.Nodes[0].ActionsUsage)
	require.InDelta(t, 1.5, s.Nodes[0].TimeUsage, 0.0001)
}

func TestUpdateUsageFromResultsRestampsTrailingNode(t *testing.T) {
	s := &state.AgentState{}
	s.AppendNode(state.Node{Source: state.SourceToolOutput})

	pairs := []state.ResultPair{
		{Request: operations.BashRequest{}, Result: operations.BashResult{}},
		{
			Request: operations.GetUsageRequest{},
			Result: operations.GetUsageResult{
				Output: operations.GetUsageOutput{
					Usage: operations.UsageCounters{Tokens: 100, Actions: 3, Time: 12.5},
				},
			},
		},
	}
	s.UpdateUsageFromResults(pairs)

	require.Equal(t, 100, s.TokenUsage)
	require.Equal(t, 3, s.ActionsUsage)
	require.InDelta(t, 12.5, s.TimeUsage, 0.0001)
	require.Equal(t, 100, s.Nodes[0].TokenUsage)
}

func TestSetFromTaskAndUsage(t *testing.T) {
	s := &state.AgentState{}
	s.SetFromTaskAndUsage(
		operations.GetTaskOutput{TaskString: "solve it", Scoring: operations.ScoringInfo{Visible: true}},
		operations.GetUsageOutput{UsageLimits: operations.UsageCounters{Tokens: 1000, Actions: 50, Time: 3600}},
	)
	require.Equal(t, "solve it", s.TaskString)
	require.True(t, s.Scoring.Visible)
	require.Equal(t, 1000, s.TokenLimit)
	require.Equal(t, 50, s.ActionsLimit)
	require.InDelta(t, 3600, s.TimeLimit, 0.0001)
}

func TestResultBatchByPhasePrefersLatestMatch(t *testing.T) {
	s := &state.AgentState{}
	s.AppendResultBatch("generate", []state.ResultPair{})
	s.AppendResultBatch("actor", []state.ResultPair{})
	s.AppendResultBatch("generate", []state.ResultPair{{Request: operations.LogRequest{}, Result: operations.LogResult{}}})

	batch, ok := s.ResultBatchByPhase("generate")
	require.True(t, ok)
	require.Len(t, batch.Pairs, 1)
}

func TestSettingsJSONRoundTripModular(t *testing.T) {
	settings := state.Settings{
		Kind: state.KindModular,
		Modular: &state.ModularSettings{
			Generator: state.ModelSpec{Model: "claude-3-opus", Temp: 1.0},
			LimitType: "token",
		},
	}
	data, err := json.Marshal(settings)
	require.NoError(t, err)

	var decoded state.Settings
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Equal(t, state.KindModular, decoded.Kind)
	require.NotNil(t, decoded.Modular)
	require.Equal(t, "claude-3-opus", decoded.Modular.Generator.Model)
	require.Nil(t, decoded.Triframe)
}

func TestTrimmingThresholdFallsBackToDefault(t *testing.T) {
	s := &state.AgentState{}
	require.Equal(t, state.DefaultContextTrimmingThreshold, s.TrimmingThreshold())
	s.ContextTrimmingThreshold = 500
	require.Equal(t, 500, s.TrimmingThreshold())
}
