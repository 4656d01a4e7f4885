// Command flock-phase-example is a minimal phase program built against the
// Phase SDK — it exists to exercise the subprocess contract end to end
// (spec §4.E, §4.G), not as a serious workflow. Its behavior is selected by
// the FLOCK_PHASE_NAME environment variable, mirroring the teacher's own
// file-per-phase layout (flock/modular/phases/*.py) collapsed into one
// switchable binary:
//
//	noop        - emits no operations, ends the workflow (next_phase unset)
//	actor       - reads init_workflow's settings, emits generate+get_usage+get_task, advances to "tool_output"
//	tool_output - reads the actor's generate result, emits an observation, ends the workflow
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/poking-agents/flock-public/operations"
	"github.com/poking-agents/flock-public/phase"
	"github.com/poking-agents/flock-public/state"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: flock-phase-example <state_id>")
		os.Exit(1)
	}
	stateID := os.Args[1]

	engineURL := os.Getenv("FLOCK_ENGINE_URL")
	if engineURL == "" {
		engineURL = "http://localhost:8900"
	}
	sdk := phase.NewSDK(engineURL)

	name := os.Getenv("FLOCK_PHASE_NAME")
	if name == "" {
		name = "noop"
	}

	build := func(phaseName string, previous []state.ResultPair) ([]phase.StateRequest, error) {
		return buildRequest(stateID, phaseName, previous)
	}

	if _, err := phase.RunPhase(context.Background(), sdk, name, os.Stdin, build); err != nil {
		fmt.Fprintf(os.Stderr, "flock-phase-example: %v\n", err)
		os.Exit(1)
	}
}

func buildRequest(stateID, phaseName string, previous []state.ResultPair) ([]phase.StateRequest, error) {
	switch phaseName {
	case "actor":
		return actorRequest(stateID, previous)
	case "tool_output":
		return toolOutputRequest(stateID, previous)
	default:
		return noopRequest(stateID)
	}
}

func noopRequest(stateID string) ([]phase.StateRequest, error) {
	return []phase.StateRequest{{
		StateID:      stateID,
		CurrentPhase: "noop",
		Operations:   []json.RawMessage{},
	}}, nil
}

func actorRequest(stateID string, previous []state.ResultPair) ([]phase.StateRequest, error) {
	var settingsPath string
	for _, p := range previous {
		if init, ok := p.Result.(operations.InitWorkflowResult); ok {
			settingsPath = init.Output.SettingsPath
		}
	}

	generateOp := operations.GenerateRequest{Params: operations.GenerateParams{
		Messages: []operations.ChatMessage{{Role: "user", Content: "solve the task at " + settingsPath}},
		Model:    "claude-sonnet",
		N:        1,
	}}
	usageOp := operations.GetUsageRequest{}
	taskOp := operations.GetTaskRequest{}

	ops, err := marshalOps(generateOp, usageOp, taskOp)
	if err != nil {
		return nil, err
	}

	next := "tool_output"
	return []phase.StateRequest{{
		StateID:      stateID,
		CurrentPhase: "actor",
		Operations:   ops,
		NextPhase:    &next,
	}}, nil
}

func toolOutputRequest(stateID string, previous []state.ResultPair) ([]phase.StateRequest, error) {
	var (
		completion string
		usage      operations.GetUsageOutput
		task       operations.GetTaskOutput
		haveTask   bool
	)
	for _, p := range previous {
		switch res := p.Result.(type) {
		case operations.GenerateResult:
			if len(res.Output.Outputs) > 0 {
				completion = res.Output.Outputs[0].Completion
			}
		case operations.GetUsageResult:
			usage = res.Output
		case operations.GetTaskResult:
			task = res.Output
			haveTask = true
		}
	}

	observationOp := operations.ObservationRequest{Params: operations.ObservationParams{Content: completion}}
	ops, err := marshalOps(observationOp)
	if err != nil {
		return nil, err
	}

	var local state.AgentState
	if haveTask {
		local.SetFromTaskAndUsage(task, usage)
	}
	local.AppendNode(state.Node{
		Source:  state.SourceToolOutput,
		Options: []state.Option{{Content: completion}},
	})

	return []phase.StateRequest{{
		StateID:      stateID,
		State:        &local,
		CurrentPhase: "tool_output",
		Operations:   ops,
	}}, nil
}

func marshalOps(reqs ...operations.Request) ([]json.RawMessage, error) {
	ops := make([]json.RawMessage, 0, len(reqs))
	for _, r := range reqs {
		data, err := operations.MarshalRequest(r)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", r.OperationKind(), err)
		}
		ops = append(ops, data)
	}
	return ops, nil
}
