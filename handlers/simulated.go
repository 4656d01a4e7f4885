package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/poking-agents/flock-public/operations"
	"github.com/poking-agents/flock-public/runlog"
)

// simulatedBash fakes a shell execution deterministically — the same
// command always produces the same canned transcript, so a recorded
// workflow can be replayed without a real sandbox (spec §4.B "SIMULATED
// handlers produce deterministic ... responses").
func simulatedBash(_ context.Context, r operations.Request, deps *Deps) (operations.Result, error) {
	req := r.(operations.BashRequest)
	if deps.Sim != nil {
		deps.Sim.AddAction()
	}
	return operations.BashResult{
		Output: operations.BashOutput{
			Stdout: fmt.Sprintf("[simulated] $ %s\n", req.Params.Command),
			Status: 0,
		},
	}, nil
}

func simulatedPython(_ context.Context, r operations.Request, deps *Deps) (operations.Result, error) {
	req := r.(operations.PythonRequest)
	if deps.Sim != nil {
		deps.Sim.AddAction()
	}
	return operations.PythonResult{
		Output: operations.PythonOutput{
			Output: fmt.Sprintf("[simulated] >>> %s\n", req.Params.Code),
			Status: 0,
		},
	}, nil
}

// simulatedGenerate synthesizes one deterministic completion per requested
// candidate, derived from a hash of the prompt so repeated runs with the
// same input are stable.
func simulatedGenerate(_ context.Context, r operations.Request, deps *Deps) (operations.Result, error) {
	req := r.(operations.GenerateRequest)
	n := req.Params.N
	if n <= 0 {
		n = 1
	}

	var prompt string
	for _, m := range req.Params.Messages {
		prompt += m.Role + ":" + m.Content + "\n"
	}
	digest := sha256.Sum256([]byte(prompt))
	tag := hex.EncodeToString(digest[:])[:12]

	outputs := make([]operations.GenerateOutputItem, n)
	tokens := 0
	for i := range outputs {
		completion := fmt.Sprintf("[simulated completion %s-%d]", tag, i)
		outputs[i] = operations.GenerateOutputItem{Completion: completion, StopReason: "stop"}
		tokens += len(completion)
	}
	if deps.Sim != nil {
		deps.Sim.AddTokens(tokens)
	}
	return operations.GenerateResult{Output: operations.GenerateOutput{Outputs: outputs}}, nil
}

func simulatedLog(ctx context.Context, r operations.Request, deps *Deps) (operations.Result, error) {
	req := r.(operations.LogRequest)
	if deps.RunLog != nil {
		_ = deps.RunLog.Append(ctx, &runlog.Event{
			StateID: deps.StateID,
			Phase:   deps.Phase,
			Message: req.Params.Message,
		})
	}
	return operations.LogResult{Output: operations.LogOutput{Recorded: true}}, nil
}

func simulatedLogWithAttributes(ctx context.Context, r operations.Request, deps *Deps) (operations.Result, error) {
	req := r.(operations.LogWithAttributesRequest)
	if deps.RunLog != nil {
		_ = deps.RunLog.Append(ctx, &runlog.Event{
			StateID:    deps.StateID,
			Phase:      deps.Phase,
			Message:    req.Params.Message,
			Attributes: req.Params.Attributes,
		})
	}
	return operations.LogWithAttributesResult{Output: operations.LogWithAttributesOutput{Recorded: true}}, nil
}

func simulatedGetUsage(_ context.Context, _ operations.Request, deps *Deps) (operations.Result, error) {
	if deps.Sim == nil {
		return operations.GetUsageResult{Output: operations.GetUsageOutput{}}, nil
	}
	return operations.GetUsageResult{Output: deps.Sim.Snapshot()}, nil
}

// simulatedGetTask returns a fixed placeholder task — SIMULATED runs are not
// expected to exercise real task content, only the engine's plumbing.
func simulatedGetTask(_ context.Context, _ operations.Request, _ *Deps) (operations.Result, error) {
	return operations.GetTaskResult{Output: operations.GetTaskOutput{
		TaskString: "[simulated task]",
		Scoring:    operations.ScoringInfo{Intermediate: false, Visible: true},
	}}, nil
}

func simulatedScore(_ context.Context, _ operations.Request, _ *Deps) (operations.Result, error) {
	return operations.ScoreResult{Output: operations.ScoreOutput{Score: 0, Message: "simulated run: no score computed"}}, nil
}

func simulatedScoreLog(ctx context.Context, r operations.Request, deps *Deps) (operations.Result, error) {
	req := r.(operations.ScoreLogRequest)
	if deps.RunLog != nil {
		_ = deps.RunLog.Append(ctx, &runlog.Event{
			StateID: deps.StateID,
			Phase:   deps.Phase,
			Message: fmt.Sprintf("[simulated score] %s", req.Params.Message),
		})
	}
	return operations.ScoreLogResult{Output: operations.ScoreLogOutput{Recorded: true}}, nil
}
