package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// defaultExecuteTimeout bounds a full benchmark execution, not a single
// operation. Per-operation deadlines are the coordinator's job.
const defaultExecuteTimeout = 6 * time.Hour

// ExecuteRequest is the payload sent to the in-container runner to start
// executing a compiled workload directory.
type ExecuteRequest struct {
	WorkloadDir string `json:"workload_dir"`
	Database    string `json:"database"`
	CallbackURL string `json:"callback_url"`
}

// ExecuteResult is the runner's terminal response for one execution. Progress
// arrives separately through the callback; this only carries the final
// verdict.
type ExecuteResult struct {
	Status          string  `json:"status"`
	DurationSeconds float64 `json:"duration_seconds"`
	Error           string  `json:"error,omitempty"`
}

// Client triggers workload executions on the in-container runner over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a runner client for the given base URL.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultExecuteTimeout},
		logger:  logger,
	}
}

// Execute starts a benchmark execution and blocks until the runner reports
// completion or the context is cancelled.
func (c *Client) Execute(ctx context.Context, req ExecuteRequest) (*ExecuteResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal execute request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/execute", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build execute request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.Info("starting execution",
		"runner", c.baseURL,
		"workload_dir", req.WorkloadDir,
		"database", req.Database,
	)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read execute response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("execute: runner returned %d: %s", resp.StatusCode, string(data))
	}

	var result ExecuteResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode execute response: %w", err)
	}

	c.logger.Info("execution finished",
		"status", result.Status,
		"duration_s", result.DurationSeconds,
	)
	return &result, nil
}
