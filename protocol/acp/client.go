package acp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const maxResponseBytes = 8 << 20

// Client talks to ACP servers.
type Client struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates an ACP client.
func NewClient(httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger.With(zap.String("component", "acp_client")),
	}
}

// ListAgents fetches the agent manifests hosted at the endpoint.
func (c *Client) ListAgents(ctx context.Context, endpoint string) (*AgentsResponse, error) {
	url := strings.TrimRight(endpoint, "/") + "/agents"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var agents AgentsResponse
	if err := json.Unmarshal(body, &agents); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if len(agents.Agents) == 0 {
		return nil, fmt.Errorf("%w: descriptor lists no agents", ErrMalformed)
	}
	for _, ag := range agents.Agents {
		if ag.Name == "" {
			return nil, fmt.Errorf("%w: agent manifest missing name", ErrMalformed)
		}
	}
	return &agents, nil
}

// RunSync submits a run and waits for the terminal envelope.
func (c *Client) RunSync(ctx context.Context, endpoint, agentName string, input []Message) (*Run, json.RawMessage, error) {
	url := strings.TrimRight(endpoint, "/") + "/runs"
	payload, err := json.Marshal(RunRequest{AgentName: agentName, Input: input, Mode: "sync"})
	if err != nil {
		return nil, nil, fmt.Errorf("marshal run request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, body, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var run Run
	if err := json.Unmarshal(body, &run); err != nil {
		return nil, body, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return &run, body, nil
}
