package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultRemoteTimeout = 10 * time.Second

// RemoteModel delegates inference to an HTTP model server.
type RemoteModel struct {
	HTTPClient *http.Client
	endpoint   string
	names      []string
	version    string
}

type remoteRequest struct {
	Instances [][]float64 `json:"instances"`
	Columns   []string    `json:"columns,omitempty"`
}

type remoteResponse struct {
	Predictions []float64 `json:"predictions"`
	Error       string    `json:"error,omitempty"`
}

// NewRemoteModel returns a client for endpoint. A zero timeout uses 10s.
func NewRemoteModel(endpoint string, names []string, version string, timeout time.Duration) (*RemoteModel, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("remote model has no endpoint")
	}
	if timeout <= 0 {
		timeout = defaultRemoteTimeout
	}
	return &RemoteModel{
		HTTPClient: &http.Client{Timeout: timeout},
		endpoint:   endpoint,
		names:      append([]string(nil), names...),
		version:    version,
	}, nil
}

// Predict posts one instance and expects exactly one prediction back.
func (m *RemoteModel) Predict(ctx context.Context, x []float64) (float64, error) {
	body, err := json.Marshal(remoteRequest{Instances: [][]float64{x}, Columns: m.names})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "HDB-Resale-Go/1.0")

	resp, err := m.HTTPClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("model server request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, fmt.Errorf("failed to read response body: %w", err)
	}

	var out remoteResponse
	if resp.StatusCode >= 400 {
		if json.Unmarshal(respBody, &out) == nil && out.Error != "" {
			return 0, fmt.Errorf("model server error (%d): %s", resp.StatusCode, out.Error)
		}
		return 0, fmt.Errorf("model server error (%d): %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	if err := json.Unmarshal(respBody, &out); err != nil {
		return 0, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(out.Predictions) != 1 {
		return 0, fmt.Errorf("model server returned %d predictions for 1 instance", len(out.Predictions))
	}
	return out.Predictions[0], nil
}

func (m *RemoteModel) FeatureNames() []string {
	if len(m.names) == 0 {
		return nil
	}
	return append([]string(nil), m.names...)
}

func (m *RemoteModel) Version() string { return m.version }

// Endpoint returns the inference URL.
func (m *RemoteModel) Endpoint() string { return m.endpoint }
