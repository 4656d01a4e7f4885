package phase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/poking-agents/flock-public/state"
)

// SDK is the small library phase programs link against to stay DRY on the
// stdin/POST protocol (spec §4.G). The engine binary imports package phase
// for the Launcher but never calls SDK; only phase programs, which are
// themselves freestanding executables (cmd/flock-phase-example is one), do.
type SDK struct {
	EngineURL  string
	HTTPClient *http.Client
}

// NewSDK constructs an SDK pointed at the engine's /run_workflow endpoint
// base URL.
func NewSDK(engineURL string) *SDK {
	return &SDK{EngineURL: engineURL, HTTPClient: &http.Client{Timeout: 60 * time.Second}}
}

// ReadPreviousResults parses r (the phase's stdin) into the (request,
// result) pairs the predecessor phase produced (spec §4.G
// "read_previous_results() parses and validates stdin").
func (s *SDK) ReadPreviousResults(r io.Reader) ([]state.ResultPair, error) {
	var payload stdinPayload
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("phase sdk: read stdin: %w", err)
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("phase sdk: decode stdin: %w", err)
	}
	return payload.Updates, nil
}

// StateRequest is the body a phase POSTs to /run_workflow (spec §3
// "StateRequest (phase -> engine message)", §4.F). State carries whatever
// mutations the phase made through state.AgentState's mutation helpers
// (append_node, set_from_task_and_usage) — the engine merges it into the
// persisted document before dispatching Operations. StateModel mirrors the
// document's settings kind so the engine can stamp it even on a phase's
// first save, before any Settings have been loaded.
type StateRequest struct {
	StateID      string            `json:"state_id"`
	State        *state.AgentState `json:"state,omitempty"`
	StateModel   state.Kind        `json:"state_model,omitempty"`
	Operations   []json.RawMessage `json:"operations"`
	CurrentPhase string            `json:"current_phase"`
	NextPhase    *string           `json:"next_phase,omitempty"`
	Delay        float64           `json:"delay,omitempty"`
}

// RunWorkflowResponse is /run_workflow's response body (spec §4.F item 6).
type RunWorkflowResponse struct {
	Updates   []state.ResultPair `json:"updates"`
	NextPhase *string            `json:"next_phase"`
	Error     string             `json:"error,omitempty"`
	Delay     float64            `json:"delay,omitempty"`
}

// PostStateRequests serializes each req and POSTs it to the engine's
// /run_workflow endpoint concurrently (spec §4.G "post_state_requests(reqs)
// serializes each request ... and POSTs concurrently"). A fan-out of
// multiple requests corresponds to a phase spawning multiple children
// (tournament/subagent features); the phase itself does not wait for the
// children's own descendants.
func (s *SDK) PostStateRequests(ctx context.Context, reqs []StateRequest) ([]RunWorkflowResponse, error) {
	type outcome struct {
		resp RunWorkflowResponse
		err  error
	}
	results := make([]outcome, len(reqs))
	done := make(chan int, len(reqs))

	for i, req := range reqs {
		i, req := i, req
		go func() {
			resp, err := s.postOne(ctx, req)
			results[i] = outcome{resp: resp, err: err}
			done <- i
		}()
	}
	for range reqs {
		<-done
	}

	responses := make([]RunWorkflowResponse, len(reqs))
	for i, o := range results {
		if o.err != nil {
			return nil, fmt.Errorf("phase sdk: post state request %d: %w", i, o.err)
		}
		responses[i] = o.resp
	}
	return responses, nil
}

func (s *SDK) postOne(ctx context.Context, req StateRequest) (RunWorkflowResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return RunWorkflowResponse{}, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.EngineURL+"/run_workflow", bytes.NewReader(body))
	if err != nil {
		return RunWorkflowResponse{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := s.HTTPClient.Do(httpReq)
	if err != nil {
		return RunWorkflowResponse{}, fmt.Errorf("do request: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		data, _ := io.ReadAll(httpResp.Body)
		return RunWorkflowResponse{}, fmt.Errorf("engine responded %d: %s", httpResp.StatusCode, string(data))
	}

	var resp RunWorkflowResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return RunWorkflowResponse{}, fmt.Errorf("decode response: %w", err)
	}
	return resp, nil
}

// RunPhase wires the three SDK steps together (spec §4.G
// "run_phase(name, build_fn, state_model_path)"): read the previous
// results from stdin, hand them to build, which mutates state and decides
// the next batch of operations and the next phase, then POST the resulting
// StateRequests. build receives the previous pairs and the phase's own
// name, and returns the StateRequests to submit.
func RunPhase(ctx context.Context, sdk *SDK, name string, stdin io.Reader, build func(name string, previous []state.ResultPair) ([]StateRequest, error)) ([]RunWorkflowResponse, error) {
	previous, err := sdk.ReadPreviousResults(stdin)
	if err != nil {
		return nil, err
	}
	reqs, err := build(name, previous)
	if err != nil {
		return nil, fmt.Errorf("phase sdk: build phase %s: %w", name, err)
	}
	return sdk.PostStateRequests(ctx, reqs)
}
