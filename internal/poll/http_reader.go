package poll

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/medtitle/plangen-api/internal/domain"
	"github.com/medtitle/plangen-api/internal/service"
)

// HTTPStatusReader implements StatusReader against the status endpoint
// exposed by the API layer.
type HTTPStatusReader struct {
	baseURL string
	client  *http.Client
}

// NewHTTPStatusReader creates a reader for the given API base URL, e.g.
// "http://localhost:8080".
func NewHTTPStatusReader(baseURL string, client *http.Client) *HTTPStatusReader {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPStatusReader{
		baseURL: baseURL,
		client:  client,
	}
}

// statusWire matches the API's StatusResponse body.
type statusWire struct {
	TaskID   string `json:"task_id"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	ResultID string `json:"result_id,omitempty"`
	Error    string `json:"error,omitempty"`
}

// GetStatus fetches the task's status snapshot over HTTP.
func (r *HTTPStatusReader) GetStatus(ctx context.Context, taskID uuid.UUID) (*service.StatusSnapshot, error) {
	url := fmt.Sprintf("%s/api/plans/generations/%s", r.baseURL, taskID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build status request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status endpoint returned %d", resp.StatusCode)
	}

	var wire statusWire
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("failed to decode status response: %w", err)
	}

	snapshot := &service.StatusSnapshot{
		Status:   domain.TaskStatus(wire.Status),
		Progress: wire.Progress,
		Error:    wire.Error,
	}
	if id, err := uuid.Parse(wire.TaskID); err == nil {
		snapshot.TaskID = id
	}
	if wire.ResultID != "" {
		if id, err := uuid.Parse(wire.ResultID); err == nil {
			snapshot.ResultID = &id
		}
	}

	return snapshot, nil
}
