package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/poking-agents/flock-public/operations"
)

// httpTimeout is the fixed ceiling spec §6 puts on outbound LLM calls.
const httpTimeout = 30 * time.Minute

// maxAttempts is the retry budget spec §6 allows on HTTP 503/529.
const maxAttempts = 5

// RemoteClient is a Client backed by an HTTP LLM gateway endpoint (spec §6).
// It retries HTTP 503 (Service Unavailable) and 529 (the Anthropic-specific
// "overloaded" status) with exponential backoff and jitter; any other
// non-2xx status is returned as an error immediately — the handler turns
// that into an error-bearing OperationErrorResult, not a retry (spec §6
// "other failures return an error-bearing result, not a retry").
type RemoteClient struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewRemoteClient constructs a RemoteClient pointed at endpoint, authorizing
// requests with apiKey.
func NewRemoteClient(endpoint, apiKey string) *RemoteClient {
	return &RemoteClient{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: httpTimeout},
	}
}

// Compile-time assertion that RemoteClient satisfies Client.
var _ Client = (*RemoteClient)(nil)

// retryableStatus reports whether status should be retried per spec §6.
func retryableStatus(status int) bool {
	return status == http.StatusServiceUnavailable || status == 529
}

// wireResponse is the gateway's raw response shape (spec §6): either an
// `outputs` array already in normalized form, or a singleton completion the
// client must normalize itself.
type wireResponse struct {
	Outputs    []wireOutput `json:"outputs,omitempty"`
	Completion string       `json:"completion,omitempty"`
	FunctionCall *wireFunctionCall `json:"function_call,omitempty"`
	StopReason string       `json:"stop_reason,omitempty"`
}

type wireOutput struct {
	Completion   string            `json:"completion"`
	FunctionCall *wireFunctionCall `json:"function_call,omitempty"`
	StopReason   string            `json:"stop_reason"`
}

type wireFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Complete POSTs req to the gateway endpoint, retrying on 503/529.
func (c *RemoteClient) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	req.APIKey = c.apiKey

	body, err := json.Marshal(struct {
		CompletionRequest
		Stream bool `json:"stream"`
	}{CompletionRequest: req, Stream: false})
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("gateway: encode request: %w", err)
	}

	bo := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxAttempts-1)
	bo = backoff.WithContext(bo, ctx)

	var out CompletionResponse
	operation := func() error {
		resp, err := c.post(ctx, body)
		if err != nil {
			var retryable *retryableError
			if errors.As(err, &retryable) {
				return err
			}
			return backoff.Permanent(err)
		}
		out = resp
		return nil
	}

	if err := backoff.Retry(operation, bo); err != nil {
		var retryable *retryableError
		if errors.As(err, &retryable) {
			return CompletionResponse{}, fmt.Errorf("gateway: exhausted %d attempts: %w", maxAttempts, err)
		}
		return CompletionResponse{}, err
	}
	return out, nil
}

type retryableError struct {
	status int
	body   string
}

func (e *retryableError) Error() string {
	return fmt.Sprintf("gateway: retryable status %d: %s", e.status, e.body)
}

func (c *RemoteClient) post(ctx context.Context, body []byte) (CompletionResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("gateway: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("gateway: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("gateway: read response: %w", err)
	}

	if retryableStatus(resp.StatusCode) {
		return CompletionResponse{}, &retryableError{status: resp.StatusCode, body: string(respBody)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return CompletionResponse{}, fmt.Errorf("gateway: status %d: %s", resp.StatusCode, string(respBody))
	}

	var wire wireResponse
	if err := json.Unmarshal(respBody, &wire); err != nil {
		return CompletionResponse{}, fmt.Errorf("gateway: decode response: %w", err)
	}
	return CompletionResponse{Outputs: normalizeOutputs(wire)}, nil
}

// normalizeOutputs folds a singleton completion into the same `outputs`
// array shape a multi-output response already has (spec §6).
func normalizeOutputs(w wireResponse) []operations.GenerateOutputItem {
	if len(w.Outputs) > 0 {
		items := make([]operations.GenerateOutputItem, 0, len(w.Outputs))
		for _, o := range w.Outputs {
			items = append(items, operations.GenerateOutputItem{
				Completion:   o.Completion,
				FunctionCall: toFunctionCall(o.FunctionCall),
				StopReason:   o.StopReason,
			})
		}
		return items
	}
	return []operations.GenerateOutputItem{{
		Completion:   w.Completion,
		FunctionCall: toFunctionCall(w.FunctionCall),
		StopReason:   w.StopReason,
	}}
}

func toFunctionCall(w *wireFunctionCall) *operations.FunctionCall {
	if w == nil {
		return nil
	}
	return &operations.FunctionCall{Name: w.Name, Arguments: w.Arguments}
}
