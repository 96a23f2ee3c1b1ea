package tui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/moolen/agentdesk/internal/agent/catalog"
	"github.com/moolen/agentdesk/internal/api"
	"github.com/moolen/agentdesk/internal/apiserver"
)

// Client is the subset of the agent server API the chat needs.
type Client interface {
	ListAgents(ctx context.Context) ([]catalog.Summary, error)
	Ask(ctx context.Context, agentName string, req apiserver.AskRequest) (*apiserver.AskResponse, error)
}

// HTTPClient talks to a running agent server.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPClient creates a client for the server at baseURL.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ListAgents returns the agents the server currently exposes.
func (c *HTTPClient) ListAgents(ctx context.Context) ([]catalog.Summary, error) {
	var out struct {
		Agents []catalog.Summary `json:"agents"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/agents", nil, &out); err != nil {
		return nil, err
	}
	return out.Agents, nil
}

// Ask sends one prompt to the named agent.
func (c *HTTPClient) Ask(ctx context.Context, agentName string, req apiserver.AskRequest) (*apiserver.AskResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	var out apiserver.AskResponse
	if err := c.do(ctx, http.MethodPost, "/api/"+url.PathEscape(agentName), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body []byte, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr api.ErrorResponse
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return api.NewAPIError(apiErr.Code, resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server returned %s", resp.Status)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
