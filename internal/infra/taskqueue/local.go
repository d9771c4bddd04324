//go:build !gcloud

package taskqueue

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// EmulatorClient talks to a Cloud Tasks-compatible HTTP emulator for local
// and container runs.
type EmulatorClient struct {
	baseURL    string
	queueName  string
	targetURL  string
	httpClient *http.Client
	maxRetries int
}

func NewEmulatorClient(baseURL, queueName, targetURL string, maxRetries int) *EmulatorClient {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &EmulatorClient{
		baseURL:   baseURL,
		queueName: queueName,
		targetURL: targetURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		maxRetries: maxRetries,
	}
}

func (c *EmulatorClient) RegisterDedupRun(ctx context.Context, task *DedupTask) (*TaskResponse, error) {
	payload, err := json.Marshal(task)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal dedup task: %w", err)
	}

	emulatorReq := emulatorTaskRequest{
		Task: emulatorTask{
			HTTPRequest: emulatorHTTPRequest{
				Body: base64.StdEncoding.EncodeToString(payload),
				Headers: map[string]string{
					"Content-Type": "application/json",
				},
			},
		},
	}
	if !task.ScheduleAt.IsZero() {
		emulatorReq.Task.ScheduleTime = task.ScheduleAt.Format(time.RFC3339)
	}

	reqBody, err := json.Marshal(emulatorReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal emulator request: %w", err)
	}

	url := fmt.Sprintf("%s/tasks", c.baseURL)
	if c.queueName != "" && c.queueName != "default" {
		url = fmt.Sprintf("%s/tasks/%s", c.baseURL, c.queueName)
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * 100 * time.Millisecond
			slog.Debug("retrying dedup task registration",
				slog.String("run_id", task.RunID),
				slog.Int("attempt", attempt+1),
				slog.Duration("backoff", backoff),
			)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		resp, err := c.doRequest(ctx, url, reqBody, task.RunID)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}

	slog.Error("all retries exhausted for dedup task registration",
		slog.String("run_id", task.RunID),
		slog.Int("max_retries", c.maxRetries),
		slog.String("error", lastErr.Error()),
	)
	return nil, fmt.Errorf("failed to register task after %d retries: %w", c.maxRetries, lastErr)
}

func (c *EmulatorClient) doRequest(ctx context.Context, url string, reqBody []byte, runID string) (*TaskResponse, error) {
	slog.Debug("registering dedup run to task emulator",
		slog.String("url", url),
		slog.String("run_id", runID),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Warn("failed to send request to task emulator",
			slog.String("run_id", runID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		slog.Warn("unexpected status code from task emulator",
			slog.String("run_id", runID),
			slog.Int("status_code", resp.StatusCode),
		)
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var emulatorResp emulatorTaskResponse
	if err := json.NewDecoder(resp.Body).Decode(&emulatorResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	out := &TaskResponse{Name: emulatorResp.Name}
	if emulatorResp.ScheduleTime != "" {
		if t, err := time.Parse(time.RFC3339, emulatorResp.ScheduleTime); err == nil {
			out.ScheduleTime = t
		}
	}
	if emulatorResp.CreateTime != "" {
		if t, err := time.Parse(time.RFC3339, emulatorResp.CreateTime); err == nil {
			out.CreateTime = t
		}
	}

	slog.Info("dedup run registered to task emulator",
		slog.String("task_name", out.Name),
		slog.String("run_id", runID),
	)
	return out, nil
}

func (c *EmulatorClient) DeleteTask(ctx context.Context, taskID string) error {
	url := fmt.Sprintf("%s/tasks/%s", c.baseURL, taskID)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		slog.Info("task not found in emulator (may have been processed)",
			slog.String("task_id", taskID),
		)
		return nil
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return nil
}
