package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/poking-agents/flock-public/operations"
)

// HTTPTaskProvider is the LIVE TaskProvider backend: a thin client for the
// external task environment (the "hooks" server in a deployed run), which
// owns get_task/get_usage/score since they describe state the workflow
// engine itself never computes.
type HTTPTaskProvider struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewHTTPTaskProvider constructs a TaskProvider pointed at baseURL.
func NewHTTPTaskProvider(baseURL, apiKey string) *HTTPTaskProvider {
	return &HTTPTaskProvider{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

var _ TaskProvider = (*HTTPTaskProvider)(nil)

// GetTask fetches the task environment's task_string/scoring descriptor.
func (p *HTTPTaskProvider) GetTask(ctx context.Context) (operations.GetTaskOutput, error) {
	var out operations.GetTaskOutput
	if err := p.get(ctx, "/getTask", &out); err != nil {
		return operations.GetTaskOutput{}, err
	}
	return out, nil
}

// GetUsage fetches the task environment's current usage checkpoint.
func (p *HTTPTaskProvider) GetUsage(ctx context.Context) (operations.GetUsageOutput, error) {
	var out operations.GetUsageOutput
	if err := p.get(ctx, "/getUsage", &out); err != nil {
		return operations.GetUsageOutput{}, err
	}
	return out, nil
}

// Score requests an on-demand score from the task environment's verifier.
func (p *HTTPTaskProvider) Score(ctx context.Context) (operations.ScoreOutput, error) {
	var out operations.ScoreOutput
	if err := p.get(ctx, "/score", &out); err != nil {
		return operations.ScoreOutput{}, err
	}
	return out, nil
}

func (p *HTTPTaskProvider) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.BaseURL+path, bytes.NewReader(nil))
	if err != nil {
		return fmt.Errorf("task provider: build request: %w", err)
	}
	if p.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.APIKey)
	}

	resp, err := p.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("task provider: %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("task provider: %s responded %d: %s", path, resp.StatusCode, string(data))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("task provider: %s: decode response: %w", path, err)
	}
	return nil
}
