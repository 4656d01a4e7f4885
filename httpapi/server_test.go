package httpapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/poking-agents/flock-public/dispatch"
	"github.com/poking-agents/flock-public/eventbus"
	"github.com/poking-agents/flock-public/handlers"
	"github.com/poking-agents/flock-public/httpapi"
	"github.com/poking-agents/flock-public/phase"
	"github.com/poking-agents/flock-public/store"
)

func newTestServer(t *testing.T, programs httpapi.PhaseProgram) (*httptest.Server, store.Store) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "state")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	st := store.NewFileStore(dir)
	registry := handlers.NewRegistry()
	bus := eventbus.New()
	d := dispatch.New(registry, bus, nil, nil)
	l := phase.New(nil)

	depsFn := func(stateID, ph string) *handlers.Deps {
		return &handlers.Deps{
			StateID: stateID,
			Phase:   ph,
			Sim:     handlers.NewSimCounters(),
		}
	}

	srv := httpapi.NewServer(st, d, l, registry, programs, handlers.Simulated, nil, depsFn)
	return httptest.NewServer(srv), st
}

func postJSON(t *testing.T, url string, body any) (*http.Response, []byte) {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func TestHealthReturnsOK(t *testing.T) {
	srv, _ := newTestServer(t, func(string) (string, bool) { return "", false })
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStartWorkflowPersistsStateAndLaunchesFirstPhase(t *testing.T) {
	programs := func(name string) (string, bool) {
		if name != "noop" {
			return "", false
		}
		return "true", true
	}
	srv, st := newTestServer(t, programs)
	defer srv.Close()

	resp, body := postJSON(t, srv.URL+"/start_workflow", map[string]any{
		"state_id":      "s1",
		"workflow_type": "basic",
		"first_phase":   "noop",
		"initial_state": map[string]any{"id": "s1"},
		"settings_path": "/settings.json",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]string
	require.NoError(t, json.Unmarshal(body, &out))
	require.Equal(t, "s1", out["state_id"])

	doc, err := st.Load(t.Context(), "s1")
	require.NoError(t, err)
	require.Len(t, doc.PreviousResults, 1)
	require.Equal(t, "init_workflow", doc.PreviousResults[0].ProducedByPhase)

	time.Sleep(50 * time.Millisecond)
}

func TestStartWorkflowRejectsMissingFields(t *testing.T) {
	srv, _ := newTestServer(t, func(string) (string, bool) { return "", false })
	defer srv.Close()

	resp, _ := postJSON(t, srv.URL+"/start_workflow", map[string]any{
		"state_id": "s1",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRunWorkflowReturnsOneMoreUpdateThanOperations(t *testing.T) {
	programs := func(string) (string, bool) { return "true", true }
	srv, _ := newTestServer(t, programs)
	defer srv.Close()

	postJSON(t, srv.URL+"/start_workflow", map[string]any{
		"state_id":      "s2",
		"workflow_type": "basic",
		"first_phase":   "noop",
		"initial_state": map[string]any{"id": "s2"},
	})

	resp, body := postJSON(t, srv.URL+"/run_workflow", map[string]any{
		"state_id":      "s2",
		"current_phase": "actor",
		"operations": []map[string]any{
			{"type": "generate", "params": map[string]any{
				"messages": []map[string]any{{"role": "user", "content": "hi"}},
				"model":    "x",
				"n":        1,
			}},
			{"type": "get_usage", "params": map[string]any{}},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Updates [][]json.RawMessage `json:"updates"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	require.Len(t, out.Updates, 3)
}

func TestRunWorkflowPersistsPhaseStateMutationBeforeDispatch(t *testing.T) {
	programs := func(string) (string, bool) { return "true", true }
	srv, st := newTestServer(t, programs)
	defer srv.Close()

	postJSON(t, srv.URL+"/start_workflow", map[string]any{
		"state_id":      "s3",
		"workflow_type": "basic",
		"first_phase":   "noop",
		"initial_state": map[string]any{"id": "s3"},
	})

	resp, _ := postJSON(t, srv.URL+"/run_workflow", map[string]any{
		"state_id":      "s3",
		"current_phase": "tool_output",
		"state": map[string]any{
			"task_string": "solve it",
			"nodes": []map[string]any{
				{"source": "tool_output", "options": []map[string]any{{"content": "42"}}},
			},
			"token_limit": 1000,
		},
		"operations": []map[string]any{},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	doc, err := st.Load(t.Context(), "s3")
	require.NoError(t, err)
	require.Equal(t, "solve it", doc.TaskString)
	require.Equal(t, 1000, doc.TokenLimit)
	require.Len(t, doc.Nodes, 1)
	require.Equal(t, "42", doc.Nodes[0].Options[0].Content)
}

func TestRunWorkflowHandlerSoftFailureIsNotFatal(t *testing.T) {
	programs := func(string) (string, bool) { return "true", true }
	srv, _ := newTestServer(t, programs)
	defer srv.Close()

	postJSON(t, srv.URL+"/start_workflow", map[string]any{
		"state_id":      "s3",
		"workflow_type": "basic",
		"first_phase":   "noop",
		"initial_state": map[string]any{"id": "s3"},
	})

	resp, body := postJSON(t, srv.URL+"/run_workflow", map[string]any{
		"state_id":      "s3",
		"current_phase": "actor",
		"operations": []map[string]any{
			{"type": "bash", "params": map[string]any{"command": "exit 1"}},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Updates [][]json.RawMessage `json:"updates"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	require.Len(t, out.Updates, 2)
}

func TestRunWorkflowRejectsUnknownStateID(t *testing.T) {
	programs := func(string) (string, bool) { return "true", true }
	srv, _ := newTestServer(t, programs)
	defer srv.Close()

	resp, _ := postJSON(t, srv.URL+"/run_workflow", map[string]any{
		"state_id":      "does-not-exist",
		"current_phase": "actor",
		"operations":    []map[string]any{},
	})
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
