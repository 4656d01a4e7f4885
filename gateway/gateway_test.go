package gateway_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/poking-agents/flock-public/gateway"
	"github.com/poking-agents/flock-public/operations"
)

func TestRemoteClientRetriesOnServiceUnavailable(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&attempts, 1)
		if n < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"completion":  "ok",
			"stop_reason": "stop",
		})
	}))
	defer srv.Close()

	c := gateway.NewRemoteClient(srv.URL, "test-key")
	resp, err := c.Complete(context.Background(), gateway.CompletionRequest{
		Messages: []operations.ChatMessage{{Role: "user", Content: "hi"}},
		Model:    "test-model",
		N:        1,
	})
	require.NoError(t, err)
	require.Equal(t, int32(3), atomic.LoadInt32(&attempts))
	require.Len(t, resp.Outputs, 1)
	require.Equal(t, "ok", resp.Outputs[0].Completion)
}

func TestRemoteClientNonRetryableStatusFailsImmediately(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("bad request"))
	}))
	defer srv.Close()

	c := gateway.NewRemoteClient(srv.URL, "test-key")
	_, err := c.Complete(context.Background(), gateway.CompletionRequest{
		Messages: []operations.ChatMessage{{Role: "user", Content: "hi"}},
		Model:    "test-model",
		N:        1,
	})
	require.Error(t, err)
	require.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestRemoteClientNormalizesOutputsArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"outputs": []map[string]any{
				{"completion": "first", "stop_reason": "stop"},
				{"completion": "second", "stop_reason": "length"},
			},
		})
	}))
	defer srv.Close()

	c := gateway.NewRemoteClient(srv.URL, "test-key")
	resp, err := c.Complete(context.Background(), gateway.CompletionRequest{
		Messages: []operations.ChatMessage{{Role: "user", Content: "hi"}},
		Model:    "test-model",
		N:        2,
	})
	require.NoError(t, err)
	require.Len(t, resp.Outputs, 2)
	require.Equal(t, "first", resp.Outputs[0].Completion)
	require.Equal(t, "second", resp.Outputs[1].Completion)
}

func TestRemoteClientNormalizesSingletonFunctionCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"completion": "",
			"function_call": map[string]any{
				"name":      "bash",
				"arguments": `{"command":"ls"}`,
			},
			"stop_reason": "tool_use",
		})
	}))
	defer srv.Close()

	c := gateway.NewRemoteClient(srv.URL, "test-key")
	resp, err := c.Complete(context.Background(), gateway.CompletionRequest{
		Messages: []operations.ChatMessage{{Role: "user", Content: "hi"}},
		Model:    "test-model",
		N:        1,
	})
	require.NoError(t, err)
	require.Len(t, resp.Outputs, 1)
	require.NotNil(t, resp.Outputs[0].FunctionCall)
	require.Equal(t, "bash", resp.Outputs[0].FunctionCall.Name)
}
