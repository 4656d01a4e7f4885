package handlers

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/poking-agents/flock-public/gateway"
	"github.com/poking-agents/flock-public/operations"
	"github.com/poking-agents/flock-public/runlog"
)

// defaultCommandTimeout bounds a bash/python operation when the request
// carries no explicit timeout.
const defaultCommandTimeout = 10 * time.Minute

func liveBash(ctx context.Context, r operations.Request, deps *Deps) (operations.Result, error) {
	req := r.(operations.BashRequest)

	timeout := defaultCommandTimeout
	if req.Params.Timeout > 0 {
		timeout = time.Duration(req.Params.Timeout) * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "bash", "-c", req.Params.Command)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	runErr := cmd.Run()

	status := 0
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			status = exitErr.ExitCode()
		} else {
			status = -1
		}
	}

	return operations.BashResult{
		Output: operations.BashOutput{Stdout: stdout.String(), Stderr: stderr.String(), Status: status},
	}, nil
}

func livePython(ctx context.Context, r operations.Request, deps *Deps) (operations.Result, error) {
	req := r.(operations.PythonRequest)

	timeout := defaultCommandTimeout
	if req.Params.Timeout > 0 {
		timeout = time.Duration(req.Params.Timeout) * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "python3", "-c", req.Params.Code)
	var combined bytes.Buffer
	cmd.Stdout = &combined
	cmd.Stderr = &combined
	runErr := cmd.Run()

	status := 0
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			status = exitErr.ExitCode()
		} else {
			status = -1
		}
	}

	return operations.PythonResult{
		Output: operations.PythonOutput{Output: combined.String(), Status: status},
	}, nil
}

func liveGenerate(ctx context.Context, r operations.Request, deps *Deps) (operations.Result, error) {
	req := r.(operations.GenerateRequest)
	if deps.Gateway == nil {
		errMsg := "handlers: no gateway.Client configured for LIVE generate"
		return operations.GenerateResult{Error: &errMsg}, nil
	}

	resp, err := deps.Gateway.Complete(ctx, gateway.CompletionRequest{
		Messages:        req.Params.Messages,
		Model:           req.Params.Model,
		Temperature:     req.Params.Temperature,
		N:               req.Params.N,
		Functions:       req.Params.Functions,
		FunctionCall:    req.Params.FunctionCall,
		ExtraParameters: req.Params.ExtraParameters,
	})
	if err != nil {
		return operations.GenerateResult{Error: errString(err)}, nil
	}
	return operations.GenerateResult{Output: operations.GenerateOutput{Outputs: resp.Outputs}}, nil
}

func liveLog(ctx context.Context, r operations.Request, deps *Deps) (operations.Result, error) {
	req := r.(operations.LogRequest)
	if deps.RunLog != nil {
		if err := deps.RunLog.Append(ctx, &runlog.Event{
			StateID: deps.StateID,
			Phase:   deps.Phase,
			Message: req.Params.Message,
		}); err != nil {
			return operations.LogResult{Error: errString(err)}, nil
		}
	}
	return operations.LogResult{Output: operations.LogOutput{Recorded: true}}, nil
}

func liveLogWithAttributes(ctx context.Context, r operations.Request, deps *Deps) (operations.Result, error) {
	req := r.(operations.LogWithAttributesRequest)
	if deps.RunLog != nil {
		if err := deps.RunLog.Append(ctx, &runlog.Event{
			StateID:    deps.StateID,
			Phase:      deps.Phase,
			Message:    req.Params.Message,
			Attributes: req.Params.Attributes,
		}); err != nil {
			return operations.LogWithAttributesResult{Error: errString(err)}, nil
		}
	}
	return operations.LogWithAttributesResult{Output: operations.LogWithAttributesOutput{Recorded: true}}, nil
}

func liveGetUsage(ctx context.Context, _ operations.Request, deps *Deps) (operations.Result, error) {
	if deps.TaskProvider == nil {
		errMsg := "handlers: no TaskProvider configured for LIVE get_usage"
		return operations.GetUsageResult{Error: &errMsg}, nil
	}
	out, err := deps.TaskProvider.GetUsage(ctx)
	if err != nil {
		return operations.GetUsageResult{Error: errString(err)}, nil
	}
	return operations.GetUsageResult{Output: out}, nil
}

func liveGetTask(ctx context.Context, _ operations.Request, deps *Deps) (operations.Result, error) {
	if deps.TaskProvider == nil {
		errMsg := "handlers: no TaskProvider configured for LIVE get_task"
		return operations.GetTaskResult{Error: &errMsg}, nil
	}
	out, err := deps.TaskProvider.GetTask(ctx)
	if err != nil {
		return operations.GetTaskResult{Error: errString(err)}, nil
	}
	return operations.GetTaskResult{Output: out}, nil
}

func liveScore(ctx context.Context, _ operations.Request, deps *Deps) (operations.Result, error) {
	if deps.TaskProvider == nil {
		errMsg := "handlers: no TaskProvider configured for LIVE score"
		return operations.ScoreResult{Error: &errMsg}, nil
	}
	out, err := deps.TaskProvider.Score(ctx)
	if err != nil {
		return operations.ScoreResult{Error: errString(err)}, nil
	}
	return operations.ScoreResult{Output: out}, nil
}

func liveScoreLog(ctx context.Context, r operations.Request, deps *Deps) (operations.Result, error) {
	req := r.(operations.ScoreLogRequest)
	if deps.RunLog != nil {
		if err := deps.RunLog.Append(ctx, &runlog.Event{
			StateID: deps.StateID,
			Phase:   deps.Phase,
			Message: fmt.Sprintf("[score] %s", req.Params.Message),
		}); err != nil {
			return operations.ScoreLogResult{Error: errString(err)}, nil
		}
	}
	return operations.ScoreLogResult{Output: operations.ScoreLogOutput{Recorded: true}}, nil
}

// ackSubmit, ackAction, ackObservation, ackSaveState, and ackInitWorkflow
// carry no mode-dependent behavior — recording a submission, an action, an
// observation, a save, or the synthetic init record is the same operation
// whether or not the surrounding workflow run is LIVE or SIMULATED
// (spec §4.F, §4.H). Each is wired to both modes.

func ackSubmit(_ context.Context, r operations.Request, _ *Deps) (operations.Result, error) {
	_ = r.(operations.SubmitRequest)
	return operations.SubmitResult{Output: operations.SubmitOutput{Accepted: true}}, nil
}

func ackAction(_ context.Context, r operations.Request, _ *Deps) (operations.Result, error) {
	_ = r.(operations.ActionRequest)
	return operations.ActionResult{Output: operations.ActionOutput{Recorded: true}}, nil
}

func ackObservation(_ context.Context, r operations.Request, _ *Deps) (operations.Result, error) {
	_ = r.(operations.ObservationRequest)
	return operations.ObservationResult{Output: operations.ObservationOutput{Recorded: true}}, nil
}

func ackSaveState(ctx context.Context, r operations.Request, deps *Deps) (operations.Result, error) {
	_ = r.(operations.SaveStateRequest)
	out := operations.SaveStateOutput{Timestamp: time.Now().UTC().Format(time.RFC3339Nano)}
	if deps != nil && deps.Snapshotter != nil {
		path, err := deps.Snapshotter(ctx)
		if err != nil {
			return operations.SaveStateResult{Output: out, Error: errString(err)}, nil
		}
		out.SnapshotPath = path
	}
	return operations.SaveStateResult{Output: out}, nil
}

func ackInitWorkflow(_ context.Context, r operations.Request, _ *Deps) (operations.Result, error) {
	req := r.(operations.InitWorkflowRequest)
	_ = req
	return operations.InitWorkflowResult{Output: operations.InitWorkflowOutput{}}, nil
}
