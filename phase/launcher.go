// Package phase implements the Phase Launcher (spec §4.E): the engine's
// half of the subprocess contract with phase programs. A phase is launched
// with its predecessor's (request, result) pairs on stdin; it runs to
// completion, POSTing its own StateRequests back to the engine before
// exiting 0. Non-zero exit is a launch failure, logged and surfaced but
// never retried here — retry policy belongs to application phases
// (spec §4.E "Subprocesses are not retried").
package phase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"

	"github.com/poking-agents/flock-public/state"
	"github.com/poking-agents/flock-public/telemetry"
)

// stdinPayload is the exact wire shape a phase program's stdin carries
// (spec §4.E "stdin: JSON object {updates: [[request, result], …]}").
type stdinPayload struct {
	Updates []state.ResultPair `json:"updates"`
}

// Launcher spawns phase programs as subprocesses.
type Launcher struct {
	logger telemetry.Logger
}

// New constructs a Launcher. logger may be nil.
func New(logger telemetry.Logger) *Launcher {
	if logger == nil {
		logger = telemetry.NewNoopLogger()
	}
	return &Launcher{logger: logger}
}

// Launch starts program with argv [program, stateID] and pairs piped to its
// stdin as {updates: [...]}. It does not wait for the phase to call back
// into the engine — the phase contract is that the subprocess itself POSTs
// its StateRequests before exiting (spec §4.E); Launch's returned error
// only reports a failure to start or a non-zero exit.
//
// Launch blocks until the subprocess exits. Callers that want fan-out
// concurrency (spec §4.E "multiple phases may run concurrently") invoke
// Launch in separate goroutines per StateRequest — the Launcher itself
// holds no shared mutable state across calls and is safe for concurrent use.
func (l *Launcher) Launch(ctx context.Context, program, stateID string, pairs []state.ResultPair) error {
	payload, err := json.Marshal(stdinPayload{Updates: pairs})
	if err != nil {
		return fmt.Errorf("phase: encode stdin: %w", err)
	}

	cmd := exec.CommandContext(ctx, program, stateID)
	cmd.Stdin = bytes.NewReader(payload)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	l.logger.Info(ctx, "phase: subprocess exited",
		"state_id", stateID, "program", program,
		"stdout_len", stdout.Len(), "stderr_len", stderr.Len())

	if err != nil {
		return fmt.Errorf("phase: %s exited with error: %w (stderr: %s)", program, err, stderr.String())
	}
	return nil
}

// LaunchAsync runs Launch in a new goroutine, logging (but not returning)
// any failure — used by the HTTP layer, which per spec §4.F must respond
// before the next phase necessarily finishes ("the response does not wait
// for the workflow to progress").
func (l *Launcher) LaunchAsync(ctx context.Context, program, stateID string, pairs []state.ResultPair) {
	go func() {
		if err := l.Launch(ctx, program, stateID, pairs); err != nil {
			l.logger.Error(ctx, "phase: async launch failed", "state_id", stateID, "program", program, "error", err.Error())
		}
	}()
}
