package phase_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/poking-agents/flock-public/operations"
	"github.com/poking-agents/flock-public/phase"
	"github.com/poking-agents/flock-public/state"
)

func TestReadPreviousResultsDecodesPairs(t *testing.T) {
	sdk := phase.NewSDK("http://unused")

	pair := state.ResultPair{
		Request: operations.LogRequest{Params: operations.LogParams{Message: "hi"}},
		Result:  operations.LogResult{Output: operations.LogOutput{Recorded: true}},
	}
	body, err := json.Marshal(struct {
		Updates []state.ResultPair `json:"updates"`
	}{Updates: []state.ResultPair{pair}})
	require.NoError(t, err)

	pairs, err := sdk.ReadPreviousResults(strings.NewReader(string(body)))
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	require.Equal(t, operations.KindLog, pairs[0].Request.OperationKind())
}

func TestPostStateRequestsFansOutConcurrently(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(phase.RunWorkflowResponse{NextPhase: nil})
	}))
	defer srv.Close()

	sdk := phase.NewSDK(srv.URL)
	reqs := []phase.StateRequest{
		{StateID: "s1", CurrentPhase: "a"},
		{StateID: "s1", CurrentPhase: "b"},
	}
	resps, err := sdk.PostStateRequests(context.Background(), reqs)
	require.NoError(t, err)
	require.Len(t, resps, 2)
	require.Equal(t, 2, calls)
}

func TestPostStateRequestsPropagatesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	sdk := phase.NewSDK(srv.URL)
	_, err := sdk.PostStateRequests(context.Background(), []phase.StateRequest{{StateID: "s1"}})
	require.Error(t, err)
}

func TestRunPhaseWiresReadBuildPost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(phase.RunWorkflowResponse{})
	}))
	defer srv.Close()

	sdk := phase.NewSDK(srv.URL)
	stdin := strings.NewReader(`{"updates":[]}`)

	var buildCalledWith string
	resps, err := phase.RunPhase(context.Background(), sdk, "actor", stdin, func(name string, previous []state.ResultPair) ([]phase.StateRequest, error) {
		buildCalledWith = name
		require.Empty(t, previous)
		return []phase.StateRequest{{StateID: "s1", CurrentPhase: name}}, nil
	})
	require.NoError(t, err)
	require.Len(t, resps, 1)
	require.Equal(t, "actor", buildCalledWith)
}
