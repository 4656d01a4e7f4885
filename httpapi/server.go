// Package httpapi implements the Workflow HTTP API (spec §4.F): the three
// endpoints a phase subprocess and its launcher interact with —
// /start_workflow, /run_workflow, and /health.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/poking-agents/flock-public/dispatch"
	"github.com/poking-agents/flock-public/handlers"
	"github.com/poking-agents/flock-public/operations"
	"github.com/poking-agents/flock-public/phase"
	"github.com/poking-agents/flock-public/state"
	"github.com/poking-agents/flock-public/store"
	"github.com/poking-agents/flock-public/telemetry"
)

// PhaseProgram resolves a phase name to the executable path the Launcher
// should invoke — a deployment's mapping from logical phase names to the
// actual phase-program binaries on disk.
type PhaseProgram func(phaseName string) (program string, ok bool)

// Server wires the State Store, Dispatcher, and Phase Launcher behind the
// three HTTP endpoints.
type Server struct {
	Store        store.Store
	Dispatcher   *dispatch.Dispatcher
	Launcher     *phase.Launcher
	Registry     *handlers.Registry
	PhaseProgram PhaseProgram
	Mode         handlers.Mode
	Logger       telemetry.Logger
	Tracer       telemetry.Tracer
	Metrics      telemetry.Metrics
	Deps         func(stateID, phase string) *handlers.Deps

	mux *http.ServeMux
}

// NewServer constructs a Server and wires its routes. deps builds a fresh
// Deps bundle per request — handlers need per-request state like the
// state ID and current phase name stamped onto log/event records. Tracer
// and Metrics default to no-ops; set them on the returned Server to wire a
// real OTEL backend (spec §4.J "every HTTP request/response" boundary).
func NewServer(st store.Store, d *dispatch.Dispatcher, l *phase.Launcher, r *handlers.Registry, programs PhaseProgram, mode handlers.Mode, logger telemetry.Logger, depsFn func(stateID, phase string) *handlers.Deps) *Server {
	if logger == nil {
		logger = telemetry.NewNoopLogger()
	}
	s := &Server{
		Store: st, Dispatcher: d, Launcher: l, Registry: r,
		PhaseProgram: programs, Mode: mode, Logger: logger, Deps: depsFn,
		Tracer: telemetry.NewNoopTracer(), Metrics: telemetry.NewNoopMetrics(),
	}
	s.mux = http.NewServeMux()
	s.mux.HandleFunc("/start_workflow", s.handleStartWorkflow)
	s.mux.HandleFunc("/run_workflow", s.handleRunWorkflow)
	s.mux.HandleFunc("/health", s.handleHealth)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// startWorkflowRequest is /start_workflow's body (spec §4.F).
type startWorkflowRequest struct {
	StateID      string          `json:"state_id"`
	WorkflowType string          `json:"workflow_type"`
	InitialState json.RawMessage `json:"initial_state"`
	FirstPhase   string          `json:"first_phase"`
	SettingsPath string          `json:"settings_path,omitempty"`
}

func (s *Server) handleStartWorkflow(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, span := s.Tracer.Start(r.Context(), "httpapi.start_workflow")
	defer span.End()
	r = r.WithContext(ctx)
	defer func() {
		s.Metrics.RecordTimer("httpapi_request_duration", time.Since(start), "endpoint", "start_workflow")
	}()

	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req startWorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.StateID == "" || req.FirstPhase == "" || len(req.InitialState) == 0 {
		writeJSONError(w, http.StatusBadRequest, "state_id, first_phase, and initial_state are required")
		return
	}

	var doc state.AgentState
	if err := json.Unmarshal(req.InitialState, &doc); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid initial_state")
		return
	}
	doc.ID = req.StateID

	// Synthesize the fake "previous result" carrying {settings_path,
	// workflow_type} through an init_workflow variant, so the first phase
	// sees the same (request, result) shape every subsequent phase does
	// (spec §4.F "uniform shape").
	initReq := operations.InitWorkflowRequest{}
	initRes := operations.InitWorkflowResult{Output: operations.InitWorkflowOutput{
		SettingsPath: req.SettingsPath,
		WorkflowType: req.WorkflowType,
	}}
	doc.AppendResultBatch("init_workflow", []state.ResultPair{{Request: initReq, Result: initRes}})

	if err := s.Store.Save(ctx, req.StateID, &doc); err != nil {
		s.Logger.Error(ctx, "httpapi: start_workflow save failed", "state_id", req.StateID, "error", err.Error())
		writeJSONError(w, http.StatusInternalServerError, "failed to persist initial state")
		return
	}

	program, ok := s.PhaseProgram(req.FirstPhase)
	if !ok {
		writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("unknown phase program %q", req.FirstPhase))
		return
	}

	pairs, _ := doc.LatestResultBatch()
	s.Launcher.LaunchAsync(context.WithoutCancel(ctx), program, req.StateID, pairs.Pairs)

	writeJSON(w, http.StatusOK, map[string]string{"state_id": req.StateID})
}

// runWorkflowRequest is /run_workflow's body (spec §3 "StateRequest", §4.F).
// State is the phase's locally mutated state.AgentState — the engine merges
// its Nodes/TaskString/Scoring/limits/Settings into the persisted document
// and saves it before dispatching Operations, so append_node and
// set_from_task_and_usage mutations made by the phase actually land.
type runWorkflowRequest struct {
	StateID      string            `json:"state_id"`
	State        json.RawMessage   `json:"state,omitempty"`
	StateModel   string            `json:"state_model,omitempty"`
	Operations   []json.RawMessage `json:"operations"`
	CurrentPhase string            `json:"current_phase"`
	NextPhase    *string           `json:"next_phase,omitempty"`
	Delay        float64           `json:"delay,omitempty"`
}

// mergeStateMutation folds a phase-supplied state patch onto the engine's
// loaded document: newly appended Nodes are appended (not replaced, since
// the phase never sees the full prior history), and TaskString/Scoring/the
// three limits/Settings are adopted wholesale once the phase has set them
// (spec §4.H "set_from_task_and_usage", "append_node").
func mergeStateMutation(doc *state.AgentState, patch *state.AgentState, stateModel string) {
	if patch != nil {
		doc.Nodes = append(doc.Nodes, patch.Nodes...)
		if patch.TaskString != "" {
			doc.TaskString = patch.TaskString
			doc.Scoring = patch.Scoring
			doc.TokenLimit = patch.TokenLimit
			doc.ActionsLimit = patch.ActionsLimit
			doc.TimeLimit = patch.TimeLimit
		}
		if patch.Settings.Kind != "" {
			doc.Settings = patch.Settings
		}
	}
	if stateModel != "" && doc.Settings.Kind == "" {
		doc.Settings.Kind = state.Kind(stateModel)
		switch doc.Settings.Kind {
		case state.KindModular:
			doc.Settings.Modular = &state.ModularSettings{}
		case state.KindTriframe:
			doc.Settings.Triframe = &state.TriframeSettings{}
		}
	}
}

// runWorkflowResponse is /run_workflow's response body (spec §4.F item 6).
type runWorkflowResponse struct {
	Updates   []state.ResultPair `json:"updates"`
	NextPhase *string            `json:"next_phase"`
	Error     string             `json:"error,omitempty"`
	Delay     float64            `json:"delay,omitempty"`
}

func (s *Server) handleRunWorkflow(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx, span := s.Tracer.Start(r.Context(), "httpapi.run_workflow")
	defer span.End()
	defer func() {
		s.Metrics.RecordTimer("httpapi_request_duration", time.Since(start), "endpoint", "run_workflow")
	}()

	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req runWorkflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.StateID == "" || req.CurrentPhase == "" {
		writeJSONError(w, http.StatusBadRequest, "state_id and current_phase are required")
		return
	}

	if req.Delay > 0 {
		select {
		case <-time.After(time.Duration(req.Delay * float64(time.Second))):
		case <-ctx.Done():
			return
		}
	}

	reqs := make([]operations.Request, 0, len(req.Operations)+1)
	for i, raw := range req.Operations {
		op, err := operations.UnmarshalRequest(raw)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("operation %d: %s", i, err))
			return
		}
		if err := operations.ValidateRequest(op); err != nil {
			writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("operation %d: %s", i, err))
			return
		}
		reqs = append(reqs, op)
	}
	// The engine injects save_state at the end of every batch so each
	// round persists a snapshot automatically (spec §4.F item 3).
	reqs = append(reqs, operations.SaveStateRequest{})

	doc, err := s.Store.Load(ctx, req.StateID)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("load state: %s", err))
		return
	}

	if len(req.State) > 0 {
		var patch state.AgentState
		if err := json.Unmarshal(req.State, &patch); err != nil {
			writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid state: %s", err))
			return
		}
		mergeStateMutation(doc, &patch, req.StateModel)
	} else if req.StateModel != "" {
		mergeStateMutation(doc, nil, req.StateModel)
	}
	// Persist the phase's state mutation before dispatching this round's
	// operations (spec §3 "the state field is the new state the engine
	// should persist before running operations").
	if err := s.Store.Save(ctx, req.StateID, doc); err != nil {
		s.Logger.Error(ctx, "httpapi: persist mutated state failed", "state_id", req.StateID, "error", err.Error())
		writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("save state: %s", err))
		return
	}

	deps := s.Deps(req.StateID, req.CurrentPhase)
	deps.Snapshotter = func(ctx context.Context) (string, error) {
		snapper, ok := s.Store.(interface {
			Snapshot(context.Context, string, *state.AgentState) (string, error)
		})
		if !ok {
			return "", nil
		}
		return snapper.Snapshot(ctx, req.StateID, doc)
	}

	pairs, err := s.Dispatcher.Dispatch(ctx, deps, dispatch.Input{
		Mode:         s.Mode,
		Operations:   reqs,
		StateID:      req.StateID,
		CurrentPhase: req.CurrentPhase,
	})
	if err != nil {
		s.Logger.Error(ctx, "httpapi: dispatch failed", "state_id", req.StateID, "phase", req.CurrentPhase, "error", err.Error())
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resultPairs := make([]state.ResultPair, len(pairs))
	for i, p := range pairs {
		resultPairs[i] = state.ResultPair{Request: p.Request, Result: p.Result}
	}

	doc.UpdateUsageFromResults(resultPairs)
	doc.AppendResultBatch(req.CurrentPhase, resultPairs)

	if err := s.Store.Save(ctx, req.StateID, doc); err != nil {
		s.Logger.Error(ctx, "httpapi: save failed", "state_id", req.StateID, "error", err.Error())
		writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("save state: %s", err))
		return
	}

	if req.NextPhase != nil {
		program, ok := s.PhaseProgram(*req.NextPhase)
		if !ok {
			writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("unknown phase program %q", *req.NextPhase))
			return
		}
		s.Launcher.LaunchAsync(context.WithoutCancel(ctx), program, req.StateID, resultPairs)
	}

	writeJSON(w, http.StatusOK, runWorkflowResponse{
		Updates:   resultPairs,
		NextPhase: req.NextPhase,
	})
}
